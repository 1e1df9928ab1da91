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

package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-test/deep"
	"github.com/retailnext/gradeupload/config"
	"github.com/retailnext/gradeupload/report"
	"github.com/retailnext/gradeupload/source"
)

var jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")

type gradeRequest struct {
	Lecture struct {
		LectureCode string `json:"lectureCode"`
		Student     struct {
			StudentCode string `json:"studentCode"`
			Grade       struct {
				GradeImageURL string `json:"gradeImageUrl"`
			} `json:"grade"`
		} `json:"student"`
	} `json:"lecture"`
}

// fakeServices is a grade backend and an object store in one test server.
type fakeServices struct {
	lock    sync.Mutex
	puts    []string
	deletes []string
	grades  []string
}

func (f *fakeServices) handler(t *testing.T, storeURL func() string) http.Handler {
	reply := func(w http.ResponseWriter, status int, data string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 300 {
			_, _ = fmt.Fprintf(w, `{"code":"GR-%d","message":"rejected"}`, status)
			return
		}
		_, _ = fmt.Fprintf(w, `{"code":"OK","message":"","data":%s}`, data)
	}
	decode := func(r *http.Request) gradeRequest {
		var req gradeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
		}
		return req
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/grades/check", func(w http.ResponseWriter, r *http.Request) {
		student := decode(r).Lecture.Student.StudentCode
		if student == "STU03" {
			reply(w, http.StatusNotFound, "")
			return
		}
		reply(w, http.StatusOK, `{"lectureId":1,"studentId":2,"studentName":"Kim","smsForm":"$$studentCode$$ graded"}`)
	})
	mux.HandleFunc("/grades/pre-signed-url", func(w http.ResponseWriter, r *http.Request) {
		student := decode(r).Lecture.Student.StudentCode
		key := "grades/" + student + ".jpg"
		reply(w, http.StatusOK, fmt.Sprintf(`{"signedUrl":%q,"objectKey":%q}`, storeURL()+"/store/"+key+"?sig=1", key))
	})
	mux.HandleFunc("/grades/pre-signed-url/expire", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, "{}")
	})
	mux.HandleFunc("/grades/images", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.lock.Lock()
		f.deletes = append(f.deletes, string(body))
		f.lock.Unlock()
		reply(w, http.StatusOK, "{}")
	})
	mux.HandleFunc("/grades", func(w http.ResponseWriter, r *http.Request) {
		req := decode(r)
		if req.Lecture.Student.StudentCode == "STU04" {
			reply(w, http.StatusConflict, "")
			return
		}
		f.lock.Lock()
		f.grades = append(f.grades, req.Lecture.Student.StudentCode)
		id := len(f.grades)
		f.lock.Unlock()
		reply(w, http.StatusCreated, fmt.Sprintf(`{"id":%d,"gradeImageUrl":%q}`, id, req.Lecture.Student.Grade.GradeImageURL))
	})
	mux.HandleFunc("/store/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		f.lock.Lock()
		f.puts = append(f.puts, r.URL.Path)
		f.lock.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func TestPass(t *testing.T) {
	services := &fakeServices{}
	var server *httptest.Server
	server = httptest.NewServer(services.handler(t, func() string { return server.URL }))
	defer server.Close()

	inbox := t.TempDir()
	reports := t.TempDir()
	for i := 1; i <= 4; i++ {
		name := fmt.Sprintf("20240101120000_LEC01_STU%02d.jpg", i)
		if err := os.WriteFile(filepath.Join(inbox, name), jpegBytes, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(inbox, "notes.jpg"), jpegBytes, 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.BackendURL = server.URL
	cfg.JournalFile = filepath.Join(t.TempDir(), "journal.db")
	cfg.ReportDirectory = reports
	cfg.Concurrency = 2

	ctx := context.Background()
	c, err := open(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer c.close()

	err = pass(ctx, cfg, c, inbox, true)
	failures, ok := err.(report.FileErrors)
	if !ok {
		t.Fatalf("expected FileErrors, got %v", err)
	}
	var failed []string
	for name := range failures {
		failed = append(failed, name)
	}
	if len(failed) != 3 {
		t.Errorf("unexpected failures %v", failures)
	}
	for _, name := range []string{"20240101120000_LEC01_STU03.jpg", "20240101120000_LEC01_STU04.jpg", "notes.jpg"} {
		if _, ok := failures[name]; !ok {
			t.Errorf("%s did not fail", name)
		}
	}

	if len(services.puts) != 3 {
		t.Errorf("expected three uploads, got %v", services.puts)
	}
	if len(services.deletes) != 1 {
		t.Errorf("expected one rollback, got %v", services.deletes)
	}
	if len(services.grades) != 2 {
		t.Errorf("expected two grades, got %v", services.grades)
	}

	entries, err := c.journal.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("journal not discharged: %+v", entries)
	}

	written, err := os.ReadDir(reports)
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 1 {
		t.Errorf("expected one report, got %d", len(written))
	}

	// Committed and unparseable files are archived, the rest stay for retry.
	candidates, _, err := source.Load(inbox)
	if err != nil {
		t.Fatal(err)
	}
	var left []string
	for _, candidate := range candidates {
		left = append(left, candidate.FileName)
	}
	expectedLeft := []string{"20240101120000_LEC01_STU03.jpg", "20240101120000_LEC01_STU04.jpg"}
	if diff := deep.Equal(left, expectedLeft); diff != nil {
		t.Error(diff)
	}
	if _, err := os.Stat(filepath.Join(inbox, source.RejectedDirectory, "notes.jpg")); err != nil {
		t.Error(err)
	}
}

func TestPassReportsUnreadableFiles(t *testing.T) {
	inbox := t.TempDir()
	name := "20240101120000_LEC01_STU01.jpg"
	f, err := os.Create(filepath.Join(inbox, name))
	if err != nil {
		t.Fatal(err)
	}
	// Sparse, so nothing of that size is written.
	if err := f.Truncate(source.MaxFileSize + 1); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	err = pass(context.Background(), config.Default(), &components{}, inbox, false)
	failures, ok := err.(report.FileErrors)
	if !ok {
		t.Fatalf("expected FileErrors, got %v", err)
	}
	if len(failures) != 1 || failures[name] == "" {
		t.Errorf("unexpected failures %v", failures)
	}
}

func TestDoRecoverNeedsJournal(t *testing.T) {
	cfg := config.Default()
	cfg.BackendURL = "http://localhost:1"
	if err := DoRecover(context.Background(), cfg); err != ErrNoJournal {
		t.Fatalf("wrong error %v", err)
	}
}
