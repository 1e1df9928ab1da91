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

package validate

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-test/deep"
	"github.com/retailnext/gradeupload/backend"
	"github.com/retailnext/gradeupload/filename"
	"github.com/retailnext/gradeupload/grade"
)

type fakeChecker struct {
	result backend.CheckResult
	err    error
	got    backend.GradeParams
}

func (f *fakeChecker) CheckGrade(_ context.Context, params backend.GradeParams) (backend.CheckResult, error) {
	f.got = params
	return f.result, f.err
}

func identity(t *testing.T) grade.Identity {
	id, err := filename.Parse("20240101120000_LEC01_STU99.jpg")
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestValidate(t *testing.T) {
	fake := &fakeChecker{result: backend.CheckResult{LectureID: 1, StudentID: 2, StudentName: "Kim", SMSForm: "$$studentName$$ $$lectureCode$$ $$examDate$$"}}
	v := &Backend{client: fake}
	vc, err := v.Validate(context.Background(), identity(t))
	if err != nil {
		t.Fatal(err)
	}
	expected := grade.ValidatedContext{
		Identity:             identity(t),
		LectureID:            1,
		StudentID:            2,
		StudentName:          "Kim",
		NotificationTemplate: "$$studentName$$ $$lectureCode$$ $$examDate$$",
		Notification:         "Kim LEC01 2024-01-01",
	}
	if diff := deep.Equal(vc, expected); diff != nil {
		t.Error(diff)
	}
	if diff := deep.Equal(fake.got, backend.GradeParams{LectureCode: "LEC01", StudentCode: "STU99", SessionDate: "2024-01-01T12:00:00"}); diff != nil {
		t.Error(diff)
	}
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		result backend.CheckResult
		err    error
		kind   Kind
	}{
		{err: &backend.StatusError{StatusCode: http.StatusNotFound}, kind: NotFound},
		{err: &backend.StatusError{StatusCode: http.StatusBadRequest}, kind: Malformed},
		{err: &backend.DecodeError{Err: errors.New("eof")}, kind: Malformed},
		{err: &backend.StatusError{StatusCode: http.StatusBadGateway}, kind: Unreachable},
		{err: &backend.TransportError{Err: errors.New("refused")}, kind: Unreachable},
		{err: context.DeadlineExceeded, kind: Unreachable},
		{result: backend.CheckResult{LectureID: 1}, kind: Malformed},
		{result: backend.CheckResult{LectureID: 1, StudentID: 2, SMSForm: "$$score$$"}, kind: Malformed},
	}
	for i, tc := range cases {
		v := &Backend{client: &fakeChecker{result: tc.result, err: tc.err}}
		vc, err := v.Validate(context.Background(), identity(t))
		if KindOf(err) != tc.kind {
			t.Errorf("case %d: expected %s got %v", i, tc.kind, err)
		}
		if diff := deep.Equal(vc, grade.ValidatedContext{}); diff != nil {
			t.Errorf("case %d: partial context %v", i, diff)
		}
	}
}
