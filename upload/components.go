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
	"errors"
	"fmt"

	"github.com/retailnext/gradeupload/backend"
	"github.com/retailnext/gradeupload/broker"
	"github.com/retailnext/gradeupload/bucket"
	"github.com/retailnext/gradeupload/committer"
	"github.com/retailnext/gradeupload/config"
	"github.com/retailnext/gradeupload/journal"
	"github.com/retailnext/gradeupload/saga"
	"github.com/retailnext/gradeupload/transfer"
	"github.com/retailnext/gradeupload/validate"
	"go.uber.org/zap"
)

// components are the collaborators one run needs, built from the config.
type components struct {
	broker    broker.Broker
	committer committer.Committer
	journal   *journal.Journal
	saga      *saga.Saga
	closers   []func() error
}

func open(ctx context.Context, cfg *config.Config) (*components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &components{}
	client := backend.NewClient(cfg.BackendURL, cfg.BackendAPIKey, nil)

	var bkt *bucket.Client
	if cfg.IsAWS() || cfg.IsCassandra() {
		var err error
		bkt, err = bucket.NewAWSClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("bucket: %w", err)
		}
	}

	if cfg.IsAWS() {
		c.broker = broker.NewS3(bkt, cfg.PresignExpiry)
	} else {
		c.broker = broker.NewBackend(client)
	}

	if cfg.IsCassandra() {
		session, err := committer.NewSession(cfg.CassandraHosts, cfg.CassandraKeyspace)
		if err != nil {
			return nil, fmt.Errorf("cassandra: %w", err)
		}
		c.closers = append(c.closers, func() error {
			session.Close()
			return nil
		})
		c.committer = committer.NewCassandra(session, bkt)
	} else {
		c.committer = committer.NewBackend(client)
	}

	s := &saga.Saga{
		Validator:           validate.NewBackend(client),
		Broker:              c.broker,
		Transfer:            transfer.NewClient(nil),
		Committer:           c.committer,
		StageTimeout:        cfg.StageTimeout,
		CompensationTimeout: cfg.CompensationTimeout,
	}
	if cfg.JournalFile != "" {
		j, err := journal.Open(cfg.JournalFile, 0644)
		if err != nil {
			c.close()
			return nil, fmt.Errorf("journal: %w", err)
		}
		c.journal = j
		c.closers = append(c.closers, j.Close)
		s.Ledger = j
	}
	c.saga = s
	return c, nil
}

func (c *components) close() {
	lgr := zap.S()
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			lgr.Errorw("close_error", "err", err)
		}
	}
}

var ErrNoJournal = errors.New("no journal file configured")
