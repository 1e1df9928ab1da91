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

package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/mailru/easyjson"
	"github.com/retailnext/gradeupload/grade"
	"github.com/retailnext/writefile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileErrors maps a failed file to where and why it failed.
type FileErrors map[string]string

func (e FileErrors) Error() string {
	return fmt.Sprintf("%d files failed", len(e))
}

// OrNil returns e as an error, or nil when it is empty.
func (e FileErrors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e FileErrors) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	for name, reason := range e {
		enc.AddString(name, reason)
	}
	return nil
}

func Failures(r grade.Report) FileErrors {
	failures := make(FileErrors)
	for _, o := range r.Outcomes {
		if o.Committed() {
			continue
		}
		reason := o.Stage.String() + ": " + o.Reason
		if len(o.Secondary) > 0 {
			secondary := make([]string, 0, len(o.Secondary))
			for _, s := range o.Secondary {
				secondary = append(secondary, s.Error())
			}
			reason += " (secondary: " + strings.Join(secondary, "; ") + ")"
		}
		failures[o.FileName] = reason
	}
	return failures
}

func Log(r grade.Report) {
	lgr := zap.S().With("batch", r.BatchID)
	committed, failed := r.Counts()
	if failed == 0 {
		lgr.Infow("report", "committed", committed, "failed", failed)
		return
	}
	lgr.Warnw("report", "committed", committed, "failed", failed, "failures", Failures(r))
}

// FileName is the default report name for a batch.
func FileName(r grade.Report) string {
	return "grade-upload-" + r.StartedAt.UTC().Format("20060102T150405Z") + "-" + r.BatchID + ".json"
}

// Write atomically replaces dir/name with the JSON encoded report.
func Write(dir, name string, r grade.Report) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	target := writefile.Config{
		Directory:     dir,
		DirectoryMode: 0755,
		FileMode:      0644,
	}
	return target.WriteFile(name, func(file *os.File) error {
		_, err := easyjson.MarshalToWriter(r, file)
		return err
	})
}
