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

package grade

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-test/deep"
	"github.com/mailru/easyjson"
	"github.com/retailnext/gradeupload/examtime"
)

func TestReportJSON(t *testing.T) {
	var exam examtime.Timestamp
	if err := exam.ParseRaw("20240101120000"); err != nil {
		t.Fatal(err)
	}
	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	failed := Failed(1, "bad.jpg", StageTransfer, "status 500")
	failed.Secondary = append(failed.Secondary, SecondaryError{Action: "revoke", Err: errors.New("timeout")})
	report := Report{
		BatchID:    "b1",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Outcomes: []Outcome{
			Committed(0, "20240101120000_LEC01_STU99.jpg", Record{
				ID:        "r1",
				ObjectURL: "https://bucket/k",
				LectureID: 7,
				StudentID: 9,
				ExamTime:  exam,
				CreatedAt: started,
			}),
			failed,
		},
	}

	encoded, err := easyjson.Marshal(report)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("report is not valid json: %v\n%s", err, encoded)
	}

	expected := map[string]interface{}{
		"batch_id":    "b1",
		"started_at":  "2024-01-02T03:04:05Z",
		"finished_at": "2024-01-02T03:05:05Z",
		"committed":   float64(1),
		"failed":      float64(1),
		"outcomes": []interface{}{
			map[string]interface{}{
				"index":     float64(0),
				"file_name": "20240101120000_LEC01_STU99.jpg",
				"state":     "committed",
				"record": map[string]interface{}{
					"id":                    "r1",
					"object_url":            "https://bucket/k",
					"lecture_id":            float64(7),
					"student_id":            float64(9),
					"exam_time":             "2024-01-01T12:00:00",
					"notification_template": "",
					"notification":          "",
					"digest":                "",
					"created_at":            "2024-01-02T03:04:05Z",
				},
			},
			map[string]interface{}{
				"index":            float64(1),
				"file_name":        "bad.jpg",
				"state":            "failed",
				"stage":            "transfer",
				"reason":           "status 500",
				"secondary_errors": []interface{}{"revoke: timeout"},
			},
		},
	}
	if diff := deep.Equal(decoded, expected); diff != nil {
		t.Error(diff)
	}
}

func TestFailedWithoutStagePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	Failed(0, "x", StageNone, "")
}
