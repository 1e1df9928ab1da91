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
	"time"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/google/uuid"
	"github.com/retailnext/gradeupload/bucket"
	"github.com/retailnext/gradeupload/grade"
	"go.uber.org/zap"
)

const insertRecord = `INSERT INTO grade_records
	(lecture_id, student_id, exam_time, id, image_url, image_key, digest, notification_template, notification, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) IF NOT EXISTS`

const selectImageKey = `SELECT image_key FROM grade_records
	WHERE lecture_id = ? AND student_id = ? AND exam_time = ?`

// gradeRow is one row of grade_records, keyed by (lecture_id, student_id), exam_time.
type gradeRow struct {
	LectureID            int64
	StudentID            int64
	ExamTime             time.Time
	ID                   string
	ImageURL             string
	ImageKey             string
	Digest               string
	NotificationTemplate string
	Notification         string
	CreatedAt            time.Time
}

type rowStore interface {
	insertIfNotExists(ctx context.Context, row gradeRow) (applied bool, existingID string, err error)
	imageKey(ctx context.Context, lectureID, studentID int64, examTime time.Time) (key string, found bool, err error)
}

type objectDeleter interface {
	KeyStore() *bucket.KeyStore
	DeleteObject(ctx context.Context, key string) error
}

// Cassandra records grades in the grade_records table with a lightweight
// transaction, so an existing record for the same exam is never overwritten.
type Cassandra struct {
	rows    rowStore
	objects objectDeleter
	now     func() time.Time
}

func NewCassandra(session *gocql.Session, objects *bucket.Client) *Cassandra {
	return &Cassandra{
		rows:    &gocqlRows{session: session},
		objects: objects,
		now:     time.Now,
	}
}

// NewSession connects to the record keyspace.
func NewSession(hosts []string, keyspace string) (*gocql.Session, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.LocalQuorum
	cluster.Timeout = 10 * time.Second
	return cluster.CreateSession()
}

func (c *Cassandra) Commit(ctx context.Context, vc grade.ValidatedContext, ref grade.ObjectRef) (grade.Record, error) {
	fileName := vc.Identity.FileName
	if err := ctx.Err(); err != nil {
		return grade.Record{}, &CommitError{FileName: fileName, Err: err}
	}
	record := newRecord(uuid.NewString(), vc, ref, ref.URL, c.now().UTC().Truncate(time.Millisecond))
	row := gradeRow{
		LectureID:            record.LectureID,
		StudentID:            record.StudentID,
		ExamTime:             record.ExamTime.Time(),
		ID:                   record.ID,
		ImageURL:             record.ObjectURL,
		ImageKey:             ref.Key,
		Digest:               record.Digest,
		NotificationTemplate: record.NotificationTemplate,
		Notification:         record.Notification,
		CreatedAt:            record.CreatedAt,
	}
	applied, existingID, err := c.rows.insertIfNotExists(ctx, row)
	if err != nil {
		return grade.Record{}, &CommitError{FileName: fileName, Err: err}
	}
	if !applied {
		return grade.Record{}, &CommitError{
			FileName: fileName,
			Conflict: true,
			Err:      fmt.Errorf("grade %s already recorded for %s", existingID, vc.Identity.ExamTime),
		}
	}
	return record, nil
}

func (c *Cassandra) Rollback(ctx context.Context, ref grade.ObjectRef) error {
	if ref.Key == "" {
		return errors.New("object has no key to roll back")
	}
	if err := c.objects.KeyStore().CheckGradeImageKey(ref.Key); err != nil {
		zap.S().Errorw("rollback_object_refused", "key", ref.Key, "err", err)
		return err
	}
	err := c.objects.DeleteObject(ctx, ref.Key)
	if err != nil {
		zap.S().Warnw("rollback_object_error", "key", ref.Key, "err", err)
	}
	return err
}

// Recorded reports whether the record for vc's exam holds ref's image.
func (c *Cassandra) Recorded(ctx context.Context, vc grade.ValidatedContext, ref grade.ObjectRef) (bool, error) {
	key, found, err := c.rows.imageKey(ctx, vc.LectureID, vc.StudentID, vc.Identity.ExamTime.Time())
	if err != nil {
		return false, err
	}
	return found && key == ref.Key, nil
}

type gocqlRows struct {
	session *gocql.Session
}

func (r *gocqlRows) insertIfNotExists(ctx context.Context, row gradeRow) (bool, string, error) {
	q := r.session.Query(insertRecord,
		row.LectureID, row.StudentID, row.ExamTime, row.ID, row.ImageURL, row.ImageKey,
		row.Digest, row.NotificationTemplate, row.Notification, row.CreatedAt)
	existing := make(map[string]interface{})
	applied, err := q.MapScanCASContext(ctx, existing)
	if err != nil {
		return false, "", err
	}
	existingID, _ := existing["id"].(string)
	return applied, existingID, nil
}

func (r *gocqlRows) imageKey(ctx context.Context, lectureID, studentID int64, examTime time.Time) (string, bool, error) {
	var key string
	err := r.session.Query(selectImageKey, lectureID, studentID, examTime).ScanContext(ctx, &key)
	if errors.Is(err, gocql.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return key, true, nil
}
