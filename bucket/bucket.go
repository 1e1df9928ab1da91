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

// Package bucket is the S3 side of grade image storage: it presigns single
// object writes and removes objects that no grade record references.
package bucket

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/retailnext/gradeupload/config"
	"go.uber.org/zap"
)

type s3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type presignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type Client struct {
	s3Svc                s3API
	presigner            presignAPI
	keyStore             KeyStore
	serverSideEncryption types.ServerSideEncryption
	retrySleep           time.Duration
}

// PresignedPut is a presigned single object PUT. Header must be sent as is.
type PresignedPut struct {
	URL    string
	Key    string
	Header map[string]string
}

func NewAWSClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.BucketRegion))
	if err != nil {
		return nil, err
	}
	s3Svc := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return &Client{
		s3Svc:                s3Svc,
		presigner:            s3.NewPresignClient(s3Svc),
		keyStore:             NewKeyStore(cfg.BucketName, strings.Trim(cfg.BucketKeyPrefix, "/")),
		serverSideEncryption: types.ServerSideEncryptionAes256,
		retrySleep:           config.RetrySleepPerAttempt,
	}, nil
}

func (c *Client) KeyStore() *KeyStore {
	return &c.keyStore
}

func (c *Client) PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (PresignedPut, error) {
	input := &s3.PutObjectInput{
		Bucket:               aws.String(c.keyStore.Bucket),
		Key:                  aws.String(key),
		ContentType:          aws.String(contentType),
		ServerSideEncryption: c.serverSideEncryption,
	}
	req, err := c.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(expires))
	if err != nil {
		return PresignedPut{}, err
	}
	return PresignedPut{
		URL:    req.URL,
		Key:    key,
		Header: signedHeaders(req.SignedHeader),
	}, nil
}

// signedHeaders keeps the headers the client has to send itself.
func signedHeaders(h http.Header) map[string]string {
	result := make(map[string]string)
	for name, values := range h {
		if len(values) == 0 {
			continue
		}
		switch http.CanonicalHeaderKey(name) {
		case "Host", "Content-Type", "Content-Length":
			continue
		}
		result[name] = values[0]
	}
	return result
}

func (c *Client) ObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := c.s3Svc.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.keyStore.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if IsNoSuchKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteObject removes key. A missing object counts as deleted.
func (c *Client) DeleteObject(ctx context.Context, key string) error {
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(c.keyStore.Bucket),
		Key:    aws.String(key),
	}
	attempts := 0
	for {
		_, err := c.s3Svc.DeleteObject(ctx, input)
		if err == nil || IsNoSuchKey(err) {
			return nil
		}
		attempts++
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if attempts > config.DeleteObjectRetriesLimit {
			return err
		}
		zap.S().Warnw("s3_delete_object_error", "key", key, "err", err, "attempts", attempts)
		time.Sleep(time.Duration(attempts) * c.retrySleep)
	}
}
