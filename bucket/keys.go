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

package bucket

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/retailnext/gradeupload/grade"
)

var ErrNotGradeImage = errors.New("not a grade image key")

type KeyStore struct {
	Bucket string
	Prefix string
}

func NewKeyStore(bucket, prefix string) KeyStore {
	return KeyStore{bucket, prefix}
}

func (c *KeyStore) keyWithPrefix(key string) string {
	if c.Prefix == "" {
		return key
	}
	var buffer bytes.Buffer
	buffer.WriteString(c.Prefix)
	buffer.WriteString("/")
	buffer.WriteString(key)
	return buffer.String()
}

// AbsoluteKeyForGradeImage returns a fresh key for one upload attempt.
// Every attempt gets its own key so that rolling back a failed attempt can
// never remove an image an earlier record still references.
func (c *KeyStore) AbsoluteKeyForGradeImage(identity grade.Identity) string {
	return c.absoluteKeyForGradeImage(identity, uuid.NewString())
}

func (c *KeyStore) absoluteKeyForGradeImage(identity grade.Identity, attempt string) string {
	var buffer bytes.Buffer
	buffer.WriteString("grades/")
	buffer.WriteString(identity.LectureCode)
	buffer.WriteString("/")
	buffer.WriteString(identity.StudentCode)
	buffer.WriteString("/")
	buffer.WriteString(identity.RawTimestamp)
	buffer.WriteString("-")
	buffer.WriteString(attempt)
	buffer.WriteString(".")
	buffer.WriteString(strings.ToLower(identity.Extension))
	return c.keyWithPrefix(buffer.String())
}

// IsGradeImageKey reports whether key lies in the grade image area of this store.
func (c *KeyStore) IsGradeImageKey(key string) bool {
	prefix := c.keyWithPrefix("grades/")
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	return len(strings.Split(strings.TrimPrefix(key, prefix), "/")) == 3
}

// CheckGradeImageKey refuses keys outside the grade image area, so nothing
// else in the bucket is ever deleted on behalf of a grade.
func (c *KeyStore) CheckGradeImageKey(key string) error {
	if !c.IsGradeImageKey(key) {
		return fmt.Errorf("%w: %q", ErrNotGradeImage, key)
	}
	return nil
}
