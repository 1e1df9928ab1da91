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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-test/deep"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "gradeupload.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
backend_url: https://api.example.com
provider: aws
bucket: grades
bucket_region: ap-northeast-2
presign_expiry: 5m
record_store: cassandra
cassandra_hosts: [cass1, cass2]
concurrency: 8
stage_timeout: 45s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	expected := Default()
	expected.BackendURL = "https://api.example.com"
	expected.Provider = ProviderAWS
	expected.BucketName = "grades"
	expected.BucketRegion = "ap-northeast-2"
	expected.PresignExpiry = 5 * time.Minute
	expected.RecordStore = StoreCassandra
	expected.CassandraHosts = []string{"cass1", "cass2"}
	expected.Concurrency = 8
	expected.StageTimeout = 45 * time.Second
	if diff := deep.Equal(cfg, expected); diff != nil {
		t.Error(diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadUnknownField(t *testing.T) {
	if _, err := Load(writeConfig(t, "bucket_name: typo\n")); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(cfg, Default()); diff != nil {
		t.Error(diff)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.BackendURL = "http://backend"
		return cfg
	}
	if err := valid().Validate(); err != nil {
		t.Fatal(err)
	}

	cases := []func(*Config){
		func(c *Config) { c.BackendURL = "" },
		func(c *Config) { c.Concurrency = 0 },
		func(c *Config) { c.Provider = ProviderAWS },
		func(c *Config) { c.RecordStore = StoreCassandra },
		func(c *Config) { c.Provider = "gcs" },
		func(c *Config) { c.RecordStore = "mysql" },
	}
	for i, mutate := range cases {
		cfg := valid()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}

	cfg := valid()
	cfg.Provider = "gcs"
	if err := cfg.Validate(); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("wrong error %v", err)
	}
}
