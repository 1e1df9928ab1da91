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

package broker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-test/deep"
	"github.com/retailnext/gradeupload/backend"
	"github.com/retailnext/gradeupload/bucket"
	"github.com/retailnext/gradeupload/filename"
	"github.com/retailnext/gradeupload/grade"
)

var issuedAt = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func validated(t *testing.T, name string) grade.ValidatedContext {
	t.Helper()
	identity, err := filename.Parse(name)
	if err != nil {
		t.Fatal(err)
	}
	return grade.ValidatedContext{Identity: identity, LectureID: 1, StudentID: 2}
}

type fakeIssuer struct {
	params    []backend.GradeParams
	result    backend.PreSignedURL
	issueErr  error
	expired   []string
	expireErr error
}

func (f *fakeIssuer) IssuePreSignedURL(_ context.Context, params backend.GradeParams) (backend.PreSignedURL, error) {
	f.params = append(f.params, params)
	return f.result, f.issueErr
}

func (f *fakeIssuer) ExpirePreSignedURL(_ context.Context, signedURL string) error {
	f.expired = append(f.expired, signedURL)
	return f.expireErr
}

func TestBackendIssue(t *testing.T) {
	issuer := &fakeIssuer{result: backend.PreSignedURL{
		SignedURL: "https://store.example/k?sig=1",
		ObjectKey: "k",
		Fields:    map[string]string{"X-Amz-Acl": "private"},
		ExpiresAt: issuedAt.Add(time.Minute),
	}}
	b := &Backend{client: issuer, now: func() time.Time { return issuedAt }}
	cred, err := b.Issue(context.Background(), validated(t, "20240101120000_LEC01_STU99.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	expected := grade.Credential{
		TargetURL: "https://store.example/k?sig=1",
		Fields:    map[string]string{"X-Amz-Acl": "private"},
		ObjectKey: "k",
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(time.Minute),
	}
	if diff := deep.Equal(cred, expected); diff != nil {
		t.Error(diff)
	}
	expectedParams := []backend.GradeParams{{LectureCode: "LEC01", StudentCode: "STU99", SessionDate: "2024-01-01T12:00:00"}}
	if diff := deep.Equal(issuer.params, expectedParams); diff != nil {
		t.Error(diff)
	}
}

func TestBackendIssueErrors(t *testing.T) {
	boom := errors.New("boom")
	for _, issuer := range []*fakeIssuer{{issueErr: boom}, {}} {
		b := &Backend{client: issuer, now: time.Now}
		_, err := b.Issue(context.Background(), validated(t, "20240101120000_LEC01_STU99.jpg"))
		var brokerErr *BrokerError
		if !errors.As(err, &brokerErr) {
			t.Fatalf("expected BrokerError, got %v", err)
		}
		if brokerErr.FileName != "20240101120000_LEC01_STU99.jpg" {
			t.Errorf("wrong file name %q", brokerErr.FileName)
		}
	}
}

func TestBackendRevoke(t *testing.T) {
	boom := errors.New("boom")
	issuer := &fakeIssuer{expireErr: boom}
	b := &Backend{client: issuer, now: time.Now}
	err := b.Revoke(context.Background(), grade.Credential{TargetURL: "https://store.example/k?sig=1"})
	if !errors.Is(err, boom) {
		t.Fatalf("wrong error %v", err)
	}
	if diff := deep.Equal(issuer.expired, []string{"https://store.example/k?sig=1"}); diff != nil {
		t.Error(diff)
	}
}

type fakeBucket struct {
	keyStore     bucket.KeyStore
	contentTypes []string
	written      map[string]bool
	existsErr    error
	deleted      []string
	deleteErr    error
}

func (f *fakeBucket) KeyStore() *bucket.KeyStore {
	return &f.keyStore
}

func (f *fakeBucket) PresignPut(_ context.Context, key, contentType string, _ time.Duration) (bucket.PresignedPut, error) {
	f.contentTypes = append(f.contentTypes, contentType)
	return bucket.PresignedPut{
		URL:    "https://grades.s3.amazonaws.com/" + key + "?X-Amz-Signature=abc",
		Key:    key,
		Header: map[string]string{"X-Amz-Server-Side-Encryption": "AES256"},
	}, nil
}

func (f *fakeBucket) ObjectExists(_ context.Context, key string) (bool, error) {
	return f.written[key], f.existsErr
}

func (f *fakeBucket) DeleteObject(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return f.deleteErr
}

func TestS3Issue(t *testing.T) {
	fb := &fakeBucket{keyStore: bucket.NewKeyStore("grades", "prod"), written: make(map[string]bool)}
	s := &S3{bucket: fb, expires: 10 * time.Minute, now: func() time.Time { return issuedAt }}
	cred, err := s.Issue(context.Background(), validated(t, "20240101120000_LEC01_STU99.PNG"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(cred.ObjectKey, "prod/grades/LEC01/STU99/20240101120000-") || !strings.HasSuffix(cred.ObjectKey, ".png") {
		t.Errorf("wrong key %q", cred.ObjectKey)
	}
	if !strings.Contains(cred.TargetURL, cred.ObjectKey) {
		t.Errorf("target url %q does not contain key", cred.TargetURL)
	}
	if !cred.ExpiresAt.Equal(issuedAt.Add(10 * time.Minute)) {
		t.Errorf("wrong expiry %s", cred.ExpiresAt)
	}
	if diff := deep.Equal(fb.contentTypes, []string{"image/png"}); diff != nil {
		t.Error(diff)
	}

	if err := s.Revoke(context.Background(), cred); err != nil {
		t.Fatal(err)
	}
	if len(fb.deleted) != 0 {
		t.Errorf("deleted an object that was never written: %v", fb.deleted)
	}

	fb.written[cred.ObjectKey] = true
	if err := s.Revoke(context.Background(), cred); err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(fb.deleted, []string{cred.ObjectKey}); diff != nil {
		t.Error(diff)
	}
}

func TestS3RevokeUnknownStateDeletes(t *testing.T) {
	fb := &fakeBucket{keyStore: bucket.NewKeyStore("grades", ""), existsErr: errors.New("throttled")}
	s := &S3{bucket: fb, expires: time.Minute, now: time.Now}
	key := "grades/LEC01/STU99/20240101120000-a.jpg"
	if err := s.Revoke(context.Background(), grade.Credential{ObjectKey: key}); err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(fb.deleted, []string{key}); diff != nil {
		t.Error(diff)
	}
}

func TestS3RevokeRefusesForeignKey(t *testing.T) {
	fb := &fakeBucket{keyStore: bucket.NewKeyStore("grades", "prod"), written: map[string]bool{"prod/manifests/x.json": true}}
	s := &S3{bucket: fb, expires: time.Minute, now: time.Now}
	err := s.Revoke(context.Background(), grade.Credential{ObjectKey: "prod/manifests/x.json"})
	if !errors.Is(err, bucket.ErrNotGradeImage) {
		t.Fatalf("wrong error %v", err)
	}
	if len(fb.deleted) != 0 {
		t.Errorf("deleted %v", fb.deleted)
	}
}
