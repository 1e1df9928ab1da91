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

// Package backend talks to the administrative REST backend that owns
// lectures, students, grade records and pre-signed upload URLs.
package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mailru/easyjson"
	"github.com/retailnext/gradeupload/metrics"
	"go.uber.org/zap"
)

const (
	apiKeyHeader       = "x-api-key"
	maxResponseBytes   = 1 << 20
	defaultHTTPTimeout = 10 * time.Second
)

const (
	checkPath          = "/grades/check"
	preSignedURLPath   = "/grades/pre-signed-url"
	expirePreSignedURL = "/grades/pre-signed-url/expire"
	gradesPath         = "/grades"
	gradeImagesPath    = "/grades/images"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (c *Client) CheckGrade(ctx context.Context, params GradeParams) (CheckResult, error) {
	var result CheckResult
	err := c.do(ctx, http.MethodPost, checkPath, nil, params, &result)
	return result, err
}

func (c *Client) IssuePreSignedURL(ctx context.Context, params GradeParams) (PreSignedURL, error) {
	var result PreSignedURL
	err := c.do(ctx, http.MethodPost, preSignedURLPath, nil, params, &result)
	return result, err
}

func (c *Client) ExpirePreSignedURL(ctx context.Context, signedURL string) error {
	return c.do(ctx, http.MethodPost, expirePreSignedURL, nil, urlRequest{field: "signedUrl", url: signedURL}, nil)
}

func (c *Client) CreateGrade(ctx context.Context, params GradeParams) (CreatedGrade, error) {
	var result CreatedGrade
	err := c.do(ctx, http.MethodPost, gradesPath, nil, params, &result)
	return result, err
}

func (c *Client) DeleteGradeImage(ctx context.Context, imageURL string) error {
	return c.do(ctx, http.MethodDelete, gradeImagesPath, nil, urlRequest{field: "gradeImageUrl", url: imageURL}, nil)
}

// FindGradesByImage lists the grades whose image is imageURL.
func (c *Client) FindGradesByImage(ctx context.Context, imageURL string) (GradeList, error) {
	query := url.Values{
		"searchField":   {"gradeImageUrl"},
		"searchKeyword": {imageURL},
		"searchType":    {"exact"},
	}
	var result GradeList
	err := c.do(ctx, http.MethodGet, gradesPath, query, nil, &result)
	return result, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body easyjson.Marshaler, into easyjson.Unmarshaler) error {
	lgr := zap.S()
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		encoded, err := easyjson.Marshal(body)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &TransportError{Path: path, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.Backend.ObserveRequest(path, start, resp, err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransportError{Path: path, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Path: path, Err: err}
	}

	var env envelope
	decodeErr := easyjson.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Path: path, StatusCode: resp.StatusCode}
		if decodeErr == nil {
			statusErr.Code = env.Code
			statusErr.Message = env.Message
		}
		lgr.Debugw("backend_status_error", "path", path, "status", resp.StatusCode, "code", statusErr.Code)
		return statusErr
	}
	if into == nil {
		return nil
	}
	if decodeErr != nil {
		return &DecodeError{Path: path, Err: decodeErr}
	}
	if len(env.Data) == 0 {
		return &DecodeError{Path: path, Err: fmt.Errorf("response has no data")}
	}
	if err := easyjson.Unmarshal(env.Data, into); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}
