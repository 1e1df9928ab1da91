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

package saga

import (
	"fmt"

	"github.com/retailnext/gradeupload/grade"
)

type State int

const (
	Pending State = iota
	Parsed
	Validated
	CredentialIssued
	Uploaded
	Committed
	Failed
)

var stateNames = [...]string{
	Pending:          "pending",
	Parsed:           "parsed",
	Validated:        "validated",
	CredentialIssued: "credential_issued",
	Uploaded:         "uploaded",
	Committed:        "committed",
	Failed:           "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) Terminal() bool {
	return s == Committed || s == Failed
}

// Stage is the stage whose action runs from state s.
func (s State) Stage() grade.Stage {
	switch s {
	case Pending:
		return grade.StageParse
	case Parsed:
		return grade.StageValidate
	case Validated:
		return grade.StageCredential
	case CredentialIssued:
		return grade.StageTransfer
	case Uploaded:
		return grade.StageCommit
	}
	panic(fmt.Sprintf("no stage runs from %s", s))
}

// Compensation undoes the one liability that is live when a stage fails.
type Compensation int

const (
	NoCompensation Compensation = iota
	RevokeCredential
	RollbackObject
)

func (c Compensation) String() string {
	switch c {
	case NoCompensation:
		return "none"
	case RevokeCredential:
		return "revoke_credential"
	case RollbackObject:
		return "rollback_object"
	}
	return fmt.Sprintf("compensation(%d)", int(c))
}

// Next is the transition table. err is the result of the action that runs
// from s. A failure from CredentialIssued revokes the credential, a failure
// from Uploaded rolls the object back, any other failure needs nothing.
func Next(s State, err error) (State, Compensation) {
	if s.Terminal() {
		panic(fmt.Sprintf("transition from terminal state %s", s))
	}
	if err == nil {
		return s + 1, NoCompensation
	}
	switch s {
	case CredentialIssued:
		return Failed, RevokeCredential
	case Uploaded:
		return Failed, RollbackObject
	}
	return Failed, NoCompensation
}
