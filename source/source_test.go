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
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-test/deep"
)

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "20240101120000_LEC01_STU02.png", pngBytes)
	writeFile(t, dir, "20240101120000_LEC01_STU01.jpg", jpegBytes)
	writeFile(t, dir, "notes.txt", []byte("hello grades"))
	writeFile(t, dir, ".DS_Store", []byte{0})
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}

	candidates, rejected, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(rejected) != 0 {
		t.Fatalf("unexpected rejects %+v", rejected)
	}
	var got [][2]string
	for _, c := range candidates {
		got = append(got, [2]string{c.FileName, c.MimeType})
	}
	expected := [][2]string{
		{"20240101120000_LEC01_STU01.jpg", "image/jpeg"},
		{"20240101120000_LEC01_STU02.png", "image/png"},
		{"notes.txt", "text/plain; charset=utf-8"},
	}
	if diff := deep.Equal(got, expected); diff != nil {
		t.Error(diff)
	}
	if string(candidates[0].Body) != string(jpegBytes) {
		t.Error("body not read")
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("wrong error %v", err)
	}
}

type fakeInfo struct {
	os.FileInfo
	size  int64
	mtime time.Time
}

func (f fakeInfo) Size() int64        { return f.size }
func (f fakeInfo) ModTime() time.Time { return f.mtime }
func (f fakeInfo) Mode() os.FileMode  { return 0644 }

func TestCheck(t *testing.T) {
	mtime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	before := fakeInfo{size: 10, mtime: mtime}
	if err := check("f", before, before, 10); err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		after os.FileInfo
		read  int
	}{
		{fakeInfo{size: 11, mtime: mtime}, 10},
		{fakeInfo{size: 10, mtime: mtime.Add(time.Second)}, 10},
		{before, 9},
	}
	for _, c := range cases {
		var mismatch *FingerprintMismatch
		if err := check("f", before, c.after, c.read); !errors.As(err, &mismatch) {
			t.Errorf("expected mismatch for %+v, got %v", c, err)
		}
	}
}
