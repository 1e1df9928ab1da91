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

package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/retailnext/gradeupload/blake"
	"github.com/retailnext/gradeupload/grade"
	"github.com/retailnext/gradeupload/metrics"
	"go.uber.org/zap"
)

const (
	defaultHTTPTimeout = 5 * time.Minute
	maxErrorBodyBytes  = 512
)

var ErrCredentialExpired = errors.New("credential expired")

// TransferError covers both transport failures and non 2xx answers.
// StatusCode is zero when no response was received.
type TransferError struct {
	StatusCode int
	Err        error
}

func (e *TransferError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transfer: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transfer: %v", e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Client writes one object per credential with a single PUT. It never retries.
type Client struct {
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{httpClient: httpClient, now: time.Now}
}

func (c *Client) Transfer(ctx context.Context, cred grade.Credential, body []byte, mimeType string) (grade.ObjectRef, error) {
	ref, err := c.transfer(ctx, cred, body, mimeType)
	if err != nil {
		metrics.Transfer.UploadErrors.Inc()
		zap.S().Debugw("transfer_error", "key", cred.ObjectKey, "err", err)
		return grade.ObjectRef{}, err
	}
	metrics.Transfer.UploadedFiles.Inc()
	metrics.Transfer.UploadedBytes.Add(float64(len(body)))
	return ref, nil
}

func (c *Client) transfer(ctx context.Context, cred grade.Credential, body []byte, mimeType string) (grade.ObjectRef, error) {
	if cred.Expired(c.now()) {
		return grade.ObjectRef{}, &TransferError{Err: ErrCredentialExpired}
	}
	objectURL, err := stripQuery(cred.TargetURL)
	if err != nil {
		return grade.ObjectRef{}, &TransferError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, cred.TargetURL, bytes.NewReader(body))
	if err != nil {
		return grade.ObjectRef{}, &TransferError{Err: err}
	}
	for name, value := range cred.Fields {
		req.Header.Set(name, value)
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Content-Md5", blake.ContentMD5(body))
	req.ContentLength = int64(len(body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return grade.ObjectRef{}, &TransferError{Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return grade.ObjectRef{}, &TransferError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("object store rejected upload: %s", strings.TrimSpace(string(snippet))),
		}
	}

	return grade.ObjectRef{
		URL:    objectURL,
		Key:    cred.ObjectKey,
		Digest: blake.Sum(body).String(),
	}, nil
}

func stripQuery(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("target url %q is not absolute", target)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
