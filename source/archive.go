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

package source

import (
	"os"
	"path/filepath"

	"github.com/retailnext/gradeupload/grade"
	"go.uber.org/zap"
)

const (
	CommittedDirectory = "committed"
	RejectedDirectory  = "rejected"
)

// Archive moves files out of dir once another pass cannot change their
// outcome: committed files and files whose name or content did not parse.
// Everything else stays for the next pass.
func Archive(dir string, r grade.Report) error {
	lgr := zap.S()
	for _, o := range r.Outcomes {
		var target string
		switch {
		case o.Committed():
			target = CommittedDirectory
		case o.Stage == grade.StageParse:
			target = RejectedDirectory
		default:
			continue
		}
		targetDir := filepath.Join(dir, target)
		if err := os.MkdirAll(targetDir, 0755); err != nil {
			return err
		}
		if err := os.Rename(filepath.Join(dir, o.FileName), filepath.Join(targetDir, o.FileName)); err != nil {
			if os.IsNotExist(err) {
				lgr.Warnw("archive_file_missing", "file", o.FileName)
				continue
			}
			return err
		}
		lgr.Debugw("archived_file", "file", o.FileName, "to", target)
	}
	return nil
}
