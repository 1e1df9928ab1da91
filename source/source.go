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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/retailnext/gradeupload/grade"
	"go.uber.org/zap"
)

// MaxFileSize bounds what is read into memory for one candidate.
const MaxFileSize = 32 << 20

var ErrTooLarge = errors.New("file too large")

// Rejected is a file that could not be read into a candidate.
type Rejected struct {
	FileName string
	Err      error
}

// Load reads every regular, non hidden file in dir, in lexical order.
// Files that change while being read are rejected rather than uploaded.
func Load(dir string) ([]grade.Candidate, []Rejected, error) {
	lgr := zap.S()
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	var candidates []grade.Candidate
	var rejected []Rejected
	for _, dirEntry := range dirEntries {
		name := dirEntry.Name()
		if strings.HasPrefix(name, ".") || !dirEntry.Type().IsRegular() {
			continue
		}
		candidate, err := load(filepath.Join(dir, name))
		if err != nil {
			lgr.Warnw("source_file_rejected", "file", name, "err", err)
			rejected = append(rejected, Rejected{FileName: name, Err: err})
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates, rejected, nil
}

func load(path string) (grade.Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return grade.Candidate{}, err
	}
	defer func() {
		_ = f.Close()
	}()
	before, err := f.Stat()
	if err != nil {
		return grade.Candidate{}, err
	}
	if before.Size() > MaxFileSize {
		return grade.Candidate{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, before.Size())
	}
	body, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return grade.Candidate{}, err
	}
	after, err := f.Stat()
	if err != nil {
		return grade.Candidate{}, err
	}
	if err := check(path, before, after, len(body)); err != nil {
		return grade.Candidate{}, err
	}
	return grade.Candidate{
		FileName: filepath.Base(path),
		MimeType: mimetype.Detect(body).String(),
		Body:     body,
	}, nil
}

func check(path string, before, after os.FileInfo, read int) error {
	expected, actual := fingerprintOf(before), fingerprintOf(after)
	if !expected.equal(actual) || int64(read) != expected.size {
		return &FingerprintMismatch{Name: path, expected: expected, actual: actual}
	}
	return nil
}
