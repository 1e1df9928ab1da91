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

// Package validate confirms a parsed identity against the backend, which is
// the single source of truth for lectures, students and their mapping.
package validate

import (
	"context"
	"errors"
	"fmt"

	"github.com/retailnext/gradeupload/backend"
	"github.com/retailnext/gradeupload/grade"
	"github.com/retailnext/gradeupload/notify"
)

type Kind int

const (
	NotFound Kind = iota + 1
	Unreachable
	Malformed
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Unreachable:
		return "unreachable"
	case Malformed:
		return "malformed"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

type ValidationError struct {
	Kind Kind
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation %s: %v", e.Kind, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func KindOf(err error) Kind {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Kind
	}
	return 0
}

type Validator interface {
	Validate(ctx context.Context, identity grade.Identity) (grade.ValidatedContext, error)
}

type checker interface {
	CheckGrade(ctx context.Context, params backend.GradeParams) (backend.CheckResult, error)
}

type Backend struct {
	client checker
}

func NewBackend(client *backend.Client) *Backend {
	return &Backend{client: client}
}

func (v *Backend) Validate(ctx context.Context, identity grade.Identity) (grade.ValidatedContext, error) {
	params := backend.GradeParams{
		LectureCode: identity.LectureCode,
		StudentCode: identity.StudentCode,
		SessionDate: identity.ExamTime.String(),
	}
	result, err := v.client.CheckGrade(ctx, params)
	if err != nil {
		return grade.ValidatedContext{}, &ValidationError{Kind: classify(err), Err: err}
	}
	if result.LectureID == 0 || result.StudentID == 0 {
		return grade.ValidatedContext{}, &ValidationError{Kind: Malformed, Err: errors.New("backend returned no lecture or student id")}
	}

	vc := grade.ValidatedContext{
		Identity:             identity,
		LectureID:            result.LectureID,
		StudentID:            result.StudentID,
		StudentName:          result.StudentName,
		NotificationTemplate: result.SMSForm,
	}
	message, err := notify.Resolve(vc.NotificationTemplate, notify.Values(vc))
	if err != nil {
		return grade.ValidatedContext{}, &ValidationError{Kind: Malformed, Err: fmt.Errorf("notification template: %w", err)}
	}
	vc.Notification = message
	return vc, nil
}

func classify(err error) Kind {
	switch {
	case backend.IsNotFound(err):
		return NotFound
	case backend.IsRejected(err), backend.IsMalformedResponse(err):
		return Malformed
	default:
		return Unreachable
	}
}
