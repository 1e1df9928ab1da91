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
	"fmt"
	"time"

	"github.com/retailnext/gradeupload/backend"
	"github.com/retailnext/gradeupload/bucket"
	"github.com/retailnext/gradeupload/filename"
	"github.com/retailnext/gradeupload/grade"
	"go.uber.org/zap"
)

// Broker hands out single object write credentials.
// Revoke is best effort: the error is returned for the caller to record but
// must never fail the item on its own.
type Broker interface {
	Issue(ctx context.Context, vc grade.ValidatedContext) (grade.Credential, error)
	Revoke(ctx context.Context, cred grade.Credential) error
}

type BrokerError struct {
	FileName string
	Err      error
}

func (e *BrokerError) Error() string {
	return fmt.Sprintf("credential for %s: %v", e.FileName, e.Err)
}

func (e *BrokerError) Unwrap() error {
	return e.Err
}

var ErrEmptyCredential = errors.New("no target url in credential")

type issuer interface {
	IssuePreSignedURL(ctx context.Context, params backend.GradeParams) (backend.PreSignedURL, error)
	ExpirePreSignedURL(ctx context.Context, signedURL string) error
}

// Backend asks the grade backend for presigned upload URLs.
type Backend struct {
	client issuer
	now    func() time.Time
}

func NewBackend(client *backend.Client) *Backend {
	return &Backend{client: client, now: time.Now}
}

func (b *Backend) Issue(ctx context.Context, vc grade.ValidatedContext) (grade.Credential, error) {
	identity := vc.Identity
	params := backend.GradeParams{
		LectureCode: identity.LectureCode,
		StudentCode: identity.StudentCode,
		SessionDate: identity.ExamTime.String(),
	}
	issuedAt := b.now()
	result, err := b.client.IssuePreSignedURL(ctx, params)
	if err != nil {
		return grade.Credential{}, &BrokerError{FileName: identity.FileName, Err: err}
	}
	if result.SignedURL == "" {
		return grade.Credential{}, &BrokerError{FileName: identity.FileName, Err: ErrEmptyCredential}
	}
	return grade.Credential{
		TargetURL: result.SignedURL,
		Fields:    result.Fields,
		ObjectKey: result.ObjectKey,
		IssuedAt:  issuedAt,
		ExpiresAt: result.ExpiresAt,
	}, nil
}

func (b *Backend) Revoke(ctx context.Context, cred grade.Credential) error {
	err := b.client.ExpirePreSignedURL(ctx, cred.TargetURL)
	if err != nil {
		zap.S().Warnw("revoke_credential_error", "key", cred.ObjectKey, "err", err)
	}
	return err
}

type presigner interface {
	KeyStore() *bucket.KeyStore
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (bucket.PresignedPut, error)
	ObjectExists(ctx context.Context, key string) (bool, error)
	DeleteObject(ctx context.Context, key string) error
}

// S3 presigns PUTs against the grade bucket itself. A presigned URL cannot
// be recalled, so revoking removes whatever may have been written at its key.
type S3 struct {
	bucket  presigner
	expires time.Duration
	now     func() time.Time
}

func NewS3(client *bucket.Client, expires time.Duration) *S3 {
	return &S3{bucket: client, expires: expires, now: time.Now}
}

func (s *S3) Issue(ctx context.Context, vc grade.ValidatedContext) (grade.Credential, error) {
	identity := vc.Identity
	mimeType, ok := filename.MimeTypeForExtension(identity.Extension)
	if !ok {
		return grade.Credential{}, &BrokerError{FileName: identity.FileName, Err: fmt.Errorf("unsupported extension %q", identity.Extension)}
	}
	key := s.bucket.KeyStore().AbsoluteKeyForGradeImage(identity)
	issuedAt := s.now()
	put, err := s.bucket.PresignPut(ctx, key, mimeType, s.expires)
	if err != nil {
		return grade.Credential{}, &BrokerError{FileName: identity.FileName, Err: err}
	}
	return grade.Credential{
		TargetURL: put.URL,
		Fields:    put.Header,
		ObjectKey: put.Key,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(s.expires),
	}, nil
}

func (s *S3) Revoke(ctx context.Context, cred grade.Credential) error {
	lgr := zap.S()
	if err := s.bucket.KeyStore().CheckGradeImageKey(cred.ObjectKey); err != nil {
		lgr.Errorw("revoke_credential_refused", "key", cred.ObjectKey, "err", err)
		return err
	}
	exists, err := s.bucket.ObjectExists(ctx, cred.ObjectKey)
	if err == nil && !exists {
		lgr.Debugw("revoke_credential_nothing_written", "key", cred.ObjectKey)
		return nil
	}
	// An unknown state is treated as written.
	err = s.bucket.DeleteObject(ctx, cred.ObjectKey)
	if err != nil {
		lgr.Warnw("revoke_credential_error", "key", cred.ObjectKey, "err", err)
	}
	return err
}
