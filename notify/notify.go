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

// Package notify resolves notification templates. A template is free text
// with $$name$$ placeholders, e.g. "$$studentName$$ took $$lectureCode$$".
package notify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/retailnext/gradeupload/grade"
)

var placeholderRegexp = regexp.MustCompile(`\$\$[^$]+\$\$`)

const (
	LectureCode  = "$$lectureCode$$"
	StudentCode  = "$$studentCode$$"
	StudentName  = "$$studentName$$"
	ExamDate     = "$$examDate$$"
	ExamDateTime = "$$examDateTime$$"
)

type UnknownPlaceholders []string

func (e UnknownPlaceholders) Error() string {
	return fmt.Sprintf("unknown placeholders: %s", strings.Join(e, ", "))
}

// Placeholders returns the placeholders used in template, in order of first use.
func Placeholders(template string) []string {
	var result []string
	seen := make(map[string]bool)
	for _, p := range placeholderRegexp.FindAllString(template, -1) {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}
	return result
}

func Validate(template string, known map[string]string) error {
	var unknown UnknownPlaceholders
	for _, p := range Placeholders(template) {
		if _, ok := known[p]; !ok {
			unknown = append(unknown, p)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return unknown
	}
	return nil
}

func Resolve(template string, values map[string]string) (string, error) {
	if err := Validate(template, values); err != nil {
		return "", err
	}
	return placeholderRegexp.ReplaceAllStringFunc(template, func(p string) string {
		return values[p]
	}), nil
}

// Values are the placeholder values available for one validated grade image.
func Values(vc grade.ValidatedContext) map[string]string {
	return map[string]string{
		LectureCode:  vc.Identity.LectureCode,
		StudentCode:  vc.Identity.StudentCode,
		StudentName:  vc.StudentName,
		ExamDate:     vc.Identity.ExamTime.Date(),
		ExamDateTime: vc.Identity.ExamTime.Time().Format("2006-01-02 15:04"),
	}
}
