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

package journal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
)

type Kind int

const (
	KindCredential Kind = iota + 1
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindCredential:
		return "credential"
	case KindObject:
		return "object"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindCredential, KindObject:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("invalid journal kind %d", int(k))
}

func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "credential":
		*k = KindCredential
	case "object":
		*k = KindObject
	default:
		return fmt.Errorf("invalid journal kind %q", text)
	}
	return nil
}

// Entry is one live liability: an issued credential or an uploaded object
// that has not been discharged yet. LectureID and StudentID identify the
// record an object was meant for.
type Entry struct {
	ID         string
	Kind       Kind
	FileName   string
	Key        string
	URL        string
	LectureID  int64
	StudentID  int64
	RecordedAt time.Time
}

// NewEntry returns an entry with a time ordered ID.
func NewEntry(kind Kind, fileName, key, url string) Entry {
	return Entry{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Kind:       kind,
		FileName:   fileName,
		Key:        key,
		URL:        url,
		RecordedAt: time.Now().UTC(),
	}
}

func (e Entry) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"id":`)
	w.String(e.ID)
	w.RawString(`,"kind":`)
	w.String(e.Kind.String())
	w.RawString(`,"file_name":`)
	w.String(e.FileName)
	w.RawString(`,"key":`)
	w.String(e.Key)
	w.RawString(`,"url":`)
	w.String(e.URL)
	w.RawString(`,"lecture_id":`)
	w.Int64(e.LectureID)
	w.RawString(`,"student_id":`)
	w.Int64(e.StudentID)
	w.RawString(`,"recorded_at":`)
	w.Raw(e.RecordedAt.MarshalJSON())
	w.RawByte('}')
}

func (e *Entry) UnmarshalEasyJSON(in *jlexer.Lexer) {
	if in.IsNull() {
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}
		switch key {
		case "id":
			e.ID = in.String()
		case "kind":
			in.AddError(e.Kind.UnmarshalText(in.UnsafeBytes()))
		case "file_name":
			e.FileName = in.String()
		case "key":
			e.Key = in.String()
		case "url":
			e.URL = in.String()
		case "lecture_id":
			e.LectureID = in.Int64()
		case "student_id":
			e.StudentID = in.Int64()
		case "recorded_at":
			in.AddError(e.RecordedAt.UnmarshalJSON(in.Raw()))
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
}
