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

package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/retailnext/gradeupload/grade"
	"github.com/retailnext/gradeupload/metrics"
	"go.uber.org/zap"
)

// Runner takes one candidate to a terminal outcome. It must not panic or
// return early on failure; *saga.Saga is the production Runner.
type Runner interface {
	Run(ctx context.Context, index int, candidate grade.Candidate) grade.Outcome
}

// Coordinator runs one saga per candidate under a concurrency limit. It has
// no domain logic of its own.
type Coordinator struct {
	runner Runner
	now    func() time.Time
}

func NewCoordinator(runner Runner) *Coordinator {
	return &Coordinator{runner: runner, now: time.Now}
}

// Run returns one outcome per candidate, in input order. Only cancellation
// of ctx, or a runner calling grade.Halt, stops it early; candidates that
// never started are then reported as cancelled, while started ones finish
// their current stage and compensation.
func (c *Coordinator) Run(ctx context.Context, candidates []grade.Candidate, limit int) grade.Report {
	if limit < 1 {
		limit = 1
	}
	ctx, halt := grade.WithHalt(ctx)
	defer halt()

	report := grade.Report{
		BatchID:   uuid.NewString(),
		StartedAt: c.now(),
		Outcomes:  make([]grade.Outcome, len(candidates)),
	}
	lgr := zap.S().With("batch", report.BatchID)
	lgr.Infow("batch_start", "candidates", len(candidates), "limit", limit)

	var wg sync.WaitGroup
	limiter := make(chan struct{}, limit)
	doneCh := ctx.Done()
	started := 0
launch:
	for i := range candidates {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-doneCh:
			break launch
		case limiter <- struct{}{}:
			if ctx.Err() != nil {
				<-limiter
				break launch
			}
			wg.Add(1)
			metrics.Batch.Started.Inc()
			metrics.Batch.InFlight.Inc()
			go func(i int) {
				defer func() {
					metrics.Batch.InFlight.Dec()
					<-limiter
					wg.Done()
				}()
				// Slot i belongs to this goroutine alone.
				defer func() {
					if r := recover(); r != nil {
						lgr.Errorw("runner_panic", "index", i, "file", candidates[i].FileName, "panic", r)
						report.Outcomes[i] = grade.Failed(i, candidates[i].FileName, grade.StageInternal, fmt.Sprintf("panic: %v", r))
					}
				}()
				report.Outcomes[i] = c.runner.Run(ctx, i, candidates[i])
			}(i)
			started++
		}
	}
	wg.Wait()

	if started < len(candidates) {
		reason := context.Canceled.Error()
		if cause := context.Cause(ctx); cause != nil {
			reason = cause.Error()
		}
		for i := started; i < len(candidates); i++ {
			report.Outcomes[i] = grade.Failed(i, candidates[i].FileName, grade.StageCancelled, reason)
		}
		metrics.Batch.Cancelled.Add(float64(len(candidates) - started))
		lgr.Warnw("batch_cancelled", "started", started, "cancelled", len(candidates)-started, "err", context.Cause(ctx))
	}

	report.FinishedAt = c.now()
	committed, failed := report.Counts()
	lgr.Infow("batch_done", "committed", committed, "failed", failed, "duration", report.FinishedAt.Sub(report.StartedAt))
	return report
}
