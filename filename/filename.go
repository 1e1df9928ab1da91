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

// Package filename turns grade image file names into identities.
//
// A name is <raw>_<lecture>_<student>.<ext>, where raw is a 14 digit
// YYYYMMDDHHMMSS exam time, lecture and student are 1 to 32 characters of
// [A-Za-z0-9-], and ext is an image extension. Parse and Build are exact
// inverses over every accepted name.
package filename

import (
	"fmt"
	"strings"

	"github.com/retailnext/gradeupload/examtime"
	"github.com/retailnext/gradeupload/grade"
)

const (
	Delimiter     = "_"
	MaxCodeLength = 32
)

var mimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"heic": "image/heic",
}

type ParseError struct {
	FileName string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid file name %q: %s", e.FileName, e.Reason)
}

func Parse(name string) (grade.Identity, error) {
	fail := func(format string, args ...interface{}) (grade.Identity, error) {
		return grade.Identity{}, &ParseError{FileName: name, Reason: fmt.Sprintf(format, args...)}
	}

	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return fail("missing extension")
	}
	stem, ext := name[:dot], name[dot+1:]
	if _, ok := MimeTypeForExtension(ext); !ok {
		return fail("unsupported extension %q", ext)
	}

	parts := strings.Split(stem, Delimiter)
	if len(parts) != 3 {
		return fail("expected 3 %q separated tokens, got %d", Delimiter, len(parts))
	}
	raw, lecture, student := parts[0], parts[1], parts[2]

	var ts examtime.Timestamp
	if err := ts.ParseRaw(raw); err != nil {
		return fail("date-time token %q: %v", raw, err)
	}
	if reason := checkCode(lecture); reason != "" {
		return fail("lecture code %q: %s", lecture, reason)
	}
	if reason := checkCode(student); reason != "" {
		return fail("student code %q: %s", student, reason)
	}

	return grade.Identity{
		FileName:     name,
		RawTimestamp: raw,
		ExamTime:     ts,
		LectureCode:  lecture,
		StudentCode:  student,
		Extension:    ext,
	}, nil
}

// Build is the construction rule Parse inverts.
func Build(identity grade.Identity) string {
	var b strings.Builder
	b.WriteString(identity.ExamTime.Raw())
	b.WriteString(Delimiter)
	b.WriteString(identity.LectureCode)
	b.WriteString(Delimiter)
	b.WriteString(identity.StudentCode)
	b.WriteString(".")
	b.WriteString(identity.Extension)
	return b.String()
}

func MimeTypeForExtension(ext string) (string, bool) {
	mimeType, ok := mimeTypes[strings.ToLower(ext)]
	return mimeType, ok
}

func checkCode(code string) string {
	if code == "" {
		return "empty"
	}
	if len(code) > MaxCodeLength {
		return fmt.Sprintf("longer than %d characters", MaxCodeLength)
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-':
		default:
			return fmt.Sprintf("invalid character %q", c)
		}
	}
	return ""
}
