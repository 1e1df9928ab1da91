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

// Package grade holds the values that flow through the grade image upload
// pipeline, from a raw file entering a batch to its terminal outcome.
package grade

import (
	"time"

	"github.com/retailnext/gradeupload/examtime"
)

// Candidate is one file entering a batch.
type Candidate struct {
	FileName string
	MimeType string
	Body     []byte
}

// Identity is what a file name says about the image.
type Identity struct {
	FileName     string
	RawTimestamp string
	ExamTime     examtime.Timestamp
	LectureCode  string
	StudentCode  string
	Extension    string
}

// ValidatedContext exists only after the backend confirmed the identity.
type ValidatedContext struct {
	Identity             Identity
	LectureID            int64
	StudentID            int64
	StudentName          string
	NotificationTemplate string
	Notification         string
}

// Credential grants write access to exactly one object.
type Credential struct {
	TargetURL string
	Fields    map[string]string
	ObjectKey string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ObjectRef points at an object that was written successfully.
type ObjectRef struct {
	URL    string
	Key    string
	Digest string
}

// Record is the durable grade entry.
type Record struct {
	ID                   string
	ObjectURL            string
	LectureID            int64
	StudentID            int64
	ExamTime             examtime.Timestamp
	NotificationTemplate string
	Notification         string
	Digest               string
	CreatedAt            time.Time
}
