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

package backend

import (
	"time"

	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
)

// GradeParams is the nested lecture/student/grade document every grade
// endpoint accepts.
type GradeParams struct {
	LectureCode   string
	StudentCode   string
	SessionDate   string
	GradeImageURL string
}

func (p GradeParams) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"lecture":{"lectureCode":`)
	w.String(p.LectureCode)
	w.RawString(`,"student":{"studentCode":`)
	w.String(p.StudentCode)
	w.RawString(`,"grade":{"gradeImageUrl":`)
	w.String(p.GradeImageURL)
	w.RawString(`}},"lectureSession":{"sessionDate":`)
	w.String(p.SessionDate)
	w.RawString(`}}}`)
}

type CheckResult struct {
	LectureID   int64
	StudentID   int64
	StudentName string
	SMSForm     string
}

func (r *CheckResult) UnmarshalEasyJSON(in *jlexer.Lexer) {
	decodeObject(in, func(key string) {
		switch key {
		case "lectureId":
			r.LectureID = in.Int64()
		case "studentId":
			r.StudentID = in.Int64()
		case "studentName":
			r.StudentName = in.String()
		case "smsForm":
			r.SMSForm = in.String()
		default:
			in.SkipRecursive()
		}
	})
}

type PreSignedURL struct {
	SignedURL string
	ObjectKey string
	Fields    map[string]string
	ExpiresAt time.Time
}

func (p *PreSignedURL) UnmarshalEasyJSON(in *jlexer.Lexer) {
	decodeObject(in, func(key string) {
		switch key {
		case "signedUrl":
			p.SignedURL = in.String()
		case "objectKey":
			p.ObjectKey = in.String()
		case "fields":
			p.Fields = decodeStringMap(in)
		case "expiresAt":
			p.ExpiresAt = decodeTime(in)
		default:
			in.SkipRecursive()
		}
	})
}

type CreatedGrade struct {
	ID            int64
	GradeImageURL string
	CreatedAt     time.Time
}

func (g *CreatedGrade) UnmarshalEasyJSON(in *jlexer.Lexer) {
	decodeObject(in, func(key string) {
		switch key {
		case "id":
			g.ID = in.Int64()
		case "gradeImageUrl":
			g.GradeImageURL = in.String()
		case "createdAt":
			g.CreatedAt = decodeTime(in)
		default:
			in.SkipRecursive()
		}
	})
}

// GradeList is a grades listing. The backend answers with a plain array or
// with a page object that holds it under "items".
type GradeList []CreatedGrade

func (l *GradeList) UnmarshalEasyJSON(in *jlexer.Lexer) {
	if in.IsNull() {
		in.Skip()
		return
	}
	if !in.IsDelim('{') {
		l.decodeItems(in)
		return
	}
	decodeObject(in, func(key string) {
		if key == "items" {
			l.decodeItems(in)
			return
		}
		in.SkipRecursive()
	})
}

func (l *GradeList) decodeItems(in *jlexer.Lexer) {
	in.Delim('[')
	for !in.IsDelim(']') {
		var g CreatedGrade
		g.UnmarshalEasyJSON(in)
		*l = append(*l, g)
		in.WantComma()
	}
	in.Delim(']')
}

type envelope struct {
	Code    string
	Message string
	Data    []byte
}

func (e *envelope) UnmarshalEasyJSON(in *jlexer.Lexer) {
	decodeObject(in, func(key string) {
		switch key {
		case "code":
			e.Code = in.String()
		case "message":
			e.Message = in.String()
		case "data":
			raw := in.Raw()
			e.Data = make([]byte, len(raw))
			copy(e.Data, raw)
		default:
			in.SkipRecursive()
		}
	})
}

type urlRequest struct {
	field string
	url   string
}

func (r urlRequest) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawByte('{')
	w.String(r.field)
	w.RawByte(':')
	w.String(r.url)
	w.RawByte('}')
}

// decodeObject walks one JSON object, calling field for every non-null member.
func decodeObject(in *jlexer.Lexer, field func(key string)) {
	isTopLevel := in.IsStart()
	if in.IsNull() {
		if isTopLevel {
			in.Consumed()
		}
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
		field(key)
		in.WantComma()
	}
	in.Delim('}')
	if isTopLevel {
		in.Consumed()
	}
}

func decodeStringMap(in *jlexer.Lexer) map[string]string {
	result := make(map[string]string)
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.String()
		in.WantColon()
		result[key] = in.String()
		in.WantComma()
	}
	in.Delim('}')
	return result
}

func decodeTime(in *jlexer.Lexer) time.Time {
	value := in.String()
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		in.AddNonFatalError(err)
	}
	return t
}
