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

package source

import (
	"fmt"
	"os"
	"time"
)

// fingerprint is what has to stay the same while a file is read.
type fingerprint struct {
	size  int64
	mtime time.Time
	mode  os.FileMode
}

func fingerprintOf(info os.FileInfo) fingerprint {
	return fingerprint{
		size:  info.Size(),
		mtime: info.ModTime(),
		mode:  info.Mode(),
	}
}

func (fp fingerprint) equal(other fingerprint) bool {
	return fp.size == other.size && fp.mtime.Equal(other.mtime) && fp.mode == other.mode
}

type FingerprintMismatch struct {
	Name     string
	expected fingerprint
	actual   fingerprint
}

func (e *FingerprintMismatch) Error() string {
	return fmt.Sprintf("file modified while reading: name=%q expected=%+v actual=%+v", e.Name, e.expected, e.actual)
}
