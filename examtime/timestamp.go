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

package examtime

import (
	"errors"
	"fmt"
	"time"

	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
)

// RawLayout is the layout of the date-time token embedded in grade image file names.
const RawLayout = "20060102150405"

// Layout is the canonical text form of a Timestamp.
const Layout = "2006-01-02T15:04:05"

const rawLength = len(RawLayout)

// Timestamp is an exam wall-clock time with second precision.
// It carries no zone: the value is the wall clock read as if it were UTC.
type Timestamp int64

var (
	InvalidRawLength = errors.New("examtime: raw timestamp must be 14 digits")
	InvalidRawDigit  = errors.New("examtime: raw timestamp must contain only digits")
)

func (t Timestamp) Time() time.Time {
	return time.Unix(int64(t), 0).UTC()
}

func (t Timestamp) Raw() string {
	return t.Time().Format(RawLayout)
}

func (t Timestamp) String() string {
	return t.Time().Format(Layout)
}

// Date returns the calendar date part, e.g. "2024-01-01".
func (t Timestamp) Date() string {
	return t.Time().Format("2006-01-02")
}

// ParseRaw accepts exactly the 14-digit YYYYMMDDHHMMSS form. Out of range
// fields (month 13, February 30, hour 24, ...) are rejected, so every
// accepted value formats back to the identical raw text.
func (t *Timestamp) ParseRaw(value string) error {
	if len(value) != rawLength {
		return InvalidRawLength
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return InvalidRawDigit
		}
	}
	parsed, err := time.ParseInLocation(RawLayout, value, time.UTC)
	if err != nil {
		return fmt.Errorf("examtime: %w", err)
	}
	*t = Timestamp(parsed.Unix())
	return nil
}

func (t *Timestamp) ParseString(value string) error {
	parsed, err := time.ParseInLocation(Layout, value, time.UTC)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed.Unix())
	return nil
}

func (t Timestamp) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Timestamp) UnmarshalText(text []byte) error {
	return t.ParseString(string(text))
}

func (t Timestamp) MarshalEasyJSON(w *jwriter.Writer) {
	w.String(t.String())
}

func (t *Timestamp) UnmarshalEasyJSON(l *jlexer.Lexer) {
	if err := t.ParseString(l.String()); err != nil {
		l.AddNonFatalError(err)
	}
}
