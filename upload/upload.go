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

	"github.com/retailnext/gradeupload/batch"
	"github.com/retailnext/gradeupload/config"
	"github.com/retailnext/gradeupload/grade"
	"github.com/retailnext/gradeupload/periodic"
	"github.com/retailnext/gradeupload/report"
	"github.com/retailnext/gradeupload/saga"
	"github.com/retailnext/gradeupload/source"
	"go.uber.org/zap"
)

// DoBatch uploads the images in the input directory once. Per item failures
// are returned together as report.FileErrors after the report is written.
func DoBatch(ctx context.Context, cfg *config.Config) error {
	c, err := open(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.close()
	return pass(ctx, cfg, c, *inputDirectory, *archive)
}

// DoWatch uploads whatever shows up in the input directory until ctx is
// cancelled.
func DoWatch(ctx context.Context, cfg *config.Config) error {
	c, err := open(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.close()
	return periodic.Main(ctx, *watchInterval, func(ctx context.Context) error {
		return pass(ctx, cfg, c, *inputDirectory, true)
	})
}

func pass(ctx context.Context, cfg *config.Config, c *components, dir string, archiveFiles bool) error {
	lgr := zap.S()
	candidates, rejected, err := source.Load(dir)
	if err != nil {
		return err
	}
	// Files that could not be read never reach the batch, so they are
	// reported here.
	failures := make(report.FileErrors)
	for _, r := range rejected {
		failures[r.FileName] = "load: " + r.Err.Error()
	}
	if len(failures) > 0 {
		lgr.Warnw("rejected_files", "dir", dir, "failures", failures)
	}
	if len(candidates) == 0 {
		lgr.Debugw("no_candidates", "dir", dir, "rejected", len(rejected))
		return failures.OrNil()
	}

	r := run(ctx, cfg, c.saga, candidates)

	report.Log(r)
	if cfg.ReportDirectory != "" {
		if err := report.Write(cfg.ReportDirectory, report.FileName(r), r); err != nil {
			lgr.Errorw("report_write_error", "dir", cfg.ReportDirectory, "err", err)
		}
	}
	if archiveFiles {
		if err := source.Archive(dir, r); err != nil {
			lgr.Errorw("archive_error", "dir", dir, "err", err)
		}
	}
	for name, reason := range report.Failures(r) {
		failures[name] = reason
	}
	return failures.OrNil()
}

func run(ctx context.Context, cfg *config.Config, s *saga.Saga, candidates []grade.Candidate) grade.Report {
	if cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.BatchTimeout)
		defer cancel()
	}
	return batch.NewCoordinator(s).Run(ctx, candidates, cfg.Concurrency)
}

// DoRecover discharges what an interrupted run left in the journal.
func DoRecover(ctx context.Context, cfg *config.Config) error {
	lgr := zap.S()
	if cfg.JournalFile == "" {
		return ErrNoJournal
	}
	c, err := open(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.close()

	if cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.BatchTimeout)
		defer cancel()
	}
	results, err := saga.Recover(ctx, c.journal, c.broker, c.committer, *recoverIDs, *recoverDryRun)
	failures := make(report.FileErrors)
	for _, result := range results {
		if result.Err != nil {
			failures[result.Entry.ID] = result.Entry.FileName + ": " + result.Err.Error()
		}
	}
	lgr.Infow("recover_done", "entries", len(results), "failed", len(failures), "dry_run", *recoverDryRun)
	if err != nil {
		return err
	}
	if len(failures) > 0 {
		return failures
	}
	return nil
}
