// Copyright 2026 RetailNext, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package grade

import (
	"fmt"
	"strings"
	"time"
)

// Stage names where a saga stopped. StageNone means it committed.
type Stage int

const (
	StageNone Stage = iota
	StageParse
	StageValidate
	StageCredential
	StageTransfer
	StageCommit
	StageCancelled
	StageInternal
)

var stageNames = [...]string{
	StageNone:       "none",
	StageParse:      "parse",
	StageValidate:   "validate",
	StageCredential: "credential",
	StageTransfer:   "transfer",
	StageCommit:     "commit",
	StageCancelled:  "cancelled",
	StageInternal:   "internal",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// SecondaryError is a failed compensation. It never changes the stage of
// the outcome it is attached to.
type SecondaryError struct {
	Action string
	Err    error
}

func (e SecondaryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e SecondaryError) Unwrap() error {
	return e.Err
}

// Outcome is the terminal result for one input file.
type Outcome struct {
	Index     int
	FileName  string
	Stage     Stage
	Reason    string
	Record    *Record
	Secondary []SecondaryError
}

func Committed(index int, fileName string, record Record) Outcome {
	return Outcome{
		Index:    index,
		FileName: fileName,
		Stage:    StageNone,
		Record:   &record,
	}
}

func Failed(index int, fileName string, stage Stage, reason string) Outcome {
	if stage == StageNone {
		panic("failed outcome without a stage")
	}
	return Outcome{
		Index:    index,
		FileName: fileName,
		Stage:    stage,
		Reason:   reason,
	}
}

func (o Outcome) Committed() bool {
	return o.Stage == StageNone && o.Record != nil
}

func (o Outcome) String() string {
	if o.Committed() {
		return fmt.Sprintf("%s: committed %s", o.FileName, o.Record.ObjectURL)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: failed at %s: %s", o.FileName, o.Stage, o.Reason)
	for _, s := range o.Secondary {
		fmt.Fprintf(&b, " (secondary %s)", s.Error())
	}
	return b.String()
}

// Report lists one outcome per input candidate, in input order.
type Report struct {
	BatchID    string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []Outcome
}

func (r Report) Counts() (committed, failed int) {
	for _, o := range r.Outcomes {
		if o.Committed() {
			committed++
		} else {
			failed++
		}
	}
	return committed, failed
}
