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
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DeleteObjectRetriesLimit = 3
	RetrySleepPerAttempt     = time.Second
)

const (
	ProviderBackend = "backend"
	ProviderAWS     = "aws"
)

const (
	StoreBackend   = "backend"
	StoreCassandra = "cassandra"
)

var (
	ErrUnknownProvider = errors.New("unknown credential provider")
	ErrUnknownStore    = errors.New("unknown record store")
)

type Config struct {
	BackendURL    string `yaml:"backend_url"`
	BackendAPIKey string `yaml:"backend_api_key"`

	Provider        string        `yaml:"provider"`
	BucketName      string        `yaml:"bucket"`
	BucketRegion    string        `yaml:"bucket_region"`
	BucketKeyPrefix string        `yaml:"bucket_key_prefix"`
	S3Endpoint      string        `yaml:"s3_endpoint"`
	PresignExpiry   time.Duration `yaml:"presign_expiry"`

	RecordStore       string   `yaml:"record_store"`
	CassandraHosts    []string `yaml:"cassandra_hosts"`
	CassandraKeyspace string   `yaml:"cassandra_keyspace"`

	JournalFile         string        `yaml:"journal_file"`
	Concurrency         int           `yaml:"concurrency"`
	BatchTimeout        time.Duration `yaml:"batch_timeout"`
	StageTimeout        time.Duration `yaml:"stage_timeout"`
	CompensationTimeout time.Duration `yaml:"compensation_timeout"`
	ReportDirectory     string        `yaml:"report_directory"`
}

func Default() *Config {
	return &Config{
		Provider:            ProviderBackend,
		BucketKeyPrefix:     "/",
		PresignExpiry:       15 * time.Minute,
		RecordStore:         StoreBackend,
		CassandraKeyspace:   "grades",
		Concurrency:         4,
		BatchTimeout:        30 * time.Minute,
		StageTimeout:        2 * time.Minute,
		CompensationTimeout: 30 * time.Second,
	}
}

// Load layers the YAML file at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) IsAWS() bool {
	return c.Provider == ProviderAWS
}

func (c *Config) IsCassandra() bool {
	return c.RecordStore == StoreCassandra
}

func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderBackend:
	case ProviderAWS:
		if c.BucketName == "" || c.BucketRegion == "" {
			return errors.New("bucket and bucket region are required for the aws provider")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
	switch c.RecordStore {
	case StoreBackend:
	case StoreCassandra:
		if len(c.CassandraHosts) == 0 {
			return errors.New("cassandra hosts are required for the cassandra record store")
		}
		if c.BucketName == "" || c.BucketRegion == "" {
			return errors.New("bucket and bucket region are required to roll back objects for the cassandra record store")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.RecordStore)
	}
	if c.BackendURL == "" {
		return errors.New("backend url is required to validate identities")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	return nil
}
