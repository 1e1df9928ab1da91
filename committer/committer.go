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

package committer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/retailnext/gradeupload/backend"
	"github.com/retailnext/gradeupload/grade"
	"go.uber.org/zap"
)

// Committer creates the durable grade record for an uploaded image.
// Rollback removes an uploaded image that ended up without a record.
// Recorded reports whether a record references ref; recovery asks before
// rolling back an object whose journal entry outlived its commit.
type Committer interface {
	Commit(ctx context.Context, vc grade.ValidatedContext, ref grade.ObjectRef) (grade.Record, error)
	Rollback(ctx context.Context, ref grade.ObjectRef) error
	Recorded(ctx context.Context, vc grade.ValidatedContext, ref grade.ObjectRef) (bool, error)
}

// CommitError is returned by Commit. Conflict is set when a record for the
// same lecture, student and exam time already exists.
type CommitError struct {
	FileName string
	Conflict bool
	Err      error
}

func (e *CommitError) Error() string {
	if e.Conflict {
		return fmt.Sprintf("record for %s: conflict: %v", e.FileName, e.Err)
	}
	return fmt.Sprintf("record for %s: %v", e.FileName, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

func IsConflict(err error) bool {
	var commitErr *CommitError
	return errors.As(err, &commitErr) && commitErr.Conflict
}

var ErrNoRecordID = errors.New("no record id in response")

type gradeCreator interface {
	CreateGrade(ctx context.Context, params backend.GradeParams) (backend.CreatedGrade, error)
	DeleteGradeImage(ctx context.Context, imageURL string) error
	FindGradesByImage(ctx context.Context, imageURL string) (backend.GradeList, error)
}

// Backend records grades through the grade backend.
type Backend struct {
	client gradeCreator
	now    func() time.Time
}

func NewBackend(client *backend.Client) *Backend {
	return &Backend{client: client, now: time.Now}
}

func (b *Backend) Commit(ctx context.Context, vc grade.ValidatedContext, ref grade.ObjectRef) (grade.Record, error) {
	identity := vc.Identity
	params := backend.GradeParams{
		LectureCode:   identity.LectureCode,
		StudentCode:   identity.StudentCode,
		SessionDate:   identity.ExamTime.String(),
		GradeImageURL: ref.URL,
	}
	created, err := b.client.CreateGrade(ctx, params)
	if err != nil {
		return grade.Record{}, &CommitError{FileName: identity.FileName, Conflict: backend.IsConflict(err), Err: err}
	}
	if created.ID == 0 {
		return grade.Record{}, &CommitError{FileName: identity.FileName, Err: ErrNoRecordID}
	}
	createdAt := created.CreatedAt
	if createdAt.IsZero() {
		createdAt = b.now()
	}
	objectURL := created.GradeImageURL
	if objectURL == "" {
		objectURL = ref.URL
	}
	return newRecord(strconv.FormatInt(created.ID, 10), vc, ref, objectURL, createdAt), nil
}

func (b *Backend) Rollback(ctx context.Context, ref grade.ObjectRef) error {
	err := b.client.DeleteGradeImage(ctx, ref.URL)
	if err != nil {
		zap.S().Warnw("rollback_object_error", "url", ref.URL, "err", err)
	}
	return err
}

func (b *Backend) Recorded(ctx context.Context, _ grade.ValidatedContext, ref grade.ObjectRef) (bool, error) {
	grades, err := b.client.FindGradesByImage(ctx, ref.URL)
	if err != nil {
		return false, err
	}
	// The search may match loosely.
	for _, g := range grades {
		if g.GradeImageURL == ref.URL {
			return true, nil
		}
	}
	return false, nil
}

func newRecord(id string, vc grade.ValidatedContext, ref grade.ObjectRef, objectURL string, createdAt time.Time) grade.Record {
	return grade.Record{
		ID:                   id,
		ObjectURL:            objectURL,
		LectureID:            vc.LectureID,
		StudentID:            vc.StudentID,
		ExamTime:             vc.Identity.ExamTime,
		NotificationTemplate: vc.NotificationTemplate,
		Notification:         vc.Notification,
		Digest:               ref.Digest,
		CreatedAt:            createdAt,
	}
}
