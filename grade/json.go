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
	"time"

	"github.com/mailru/easyjson/jwriter"
)

func (r Record) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"id":`)
	w.String(r.ID)
	w.RawString(`,"object_url":`)
	w.String(r.ObjectURL)
	w.RawString(`,"lecture_id":`)
	w.Int64(r.LectureID)
	w.RawString(`,"student_id":`)
	w.Int64(r.StudentID)
	w.RawString(`,"exam_time":`)
	r.ExamTime.MarshalEasyJSON(w)
	w.RawString(`,"notification_template":`)
	w.String(r.NotificationTemplate)
	w.RawString(`,"notification":`)
	w.String(r.Notification)
	w.RawString(`,"digest":`)
	w.String(r.Digest)
	w.RawString(`,"created_at":`)
	w.String(r.CreatedAt.UTC().Format(time.RFC3339))
	w.RawByte('}')
}

func (o Outcome) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"index":`)
	w.Int(o.Index)
	w.RawString(`,"file_name":`)
	w.String(o.FileName)
	if o.Committed() {
		w.RawString(`,"state":"committed","record":`)
		o.Record.MarshalEasyJSON(w)
	} else {
		w.RawString(`,"state":"failed","stage":`)
		w.String(o.Stage.String())
		w.RawString(`,"reason":`)
		w.String(o.Reason)
	}
	if len(o.Secondary) > 0 {
		w.RawString(`,"secondary_errors":[`)
		for i, s := range o.Secondary {
			if i > 0 {
				w.RawByte(',')
			}
			w.String(s.Error())
		}
		w.RawByte(']')
	}
	w.RawByte('}')
}

func (r Report) MarshalEasyJSON(w *jwriter.Writer) {
	committed, failed := r.Counts()
	w.RawString(`{"batch_id":`)
	w.String(r.BatchID)
	w.RawString(`,"started_at":`)
	w.String(r.StartedAt.UTC().Format(time.RFC3339))
	w.RawString(`,"finished_at":`)
	w.String(r.FinishedAt.UTC().Format(time.RFC3339))
	w.RawString(`,"committed":`)
	w.Int(committed)
	w.RawString(`,"failed":`)
	w.Int(failed)
	w.RawString(`,"outcomes":[`)
	for i, o := range r.Outcomes {
		if i > 0 {
			w.RawByte(',')
		}
		o.MarshalEasyJSON(w)
	}
	w.RawString(`]}`)
}
