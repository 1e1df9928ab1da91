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

package periodic

import (
	"context"
	"time"

	"github.com/retailnext/gradeupload/metrics"
	"go.uber.org/zap"
)

// Pass is one scan of the watched directory.
type Pass func(ctx context.Context) error

// Main runs pass every interval until ctx is cancelled. A failed pass is
// logged and retried on the next tick.
func Main(ctx context.Context, interval time.Duration, pass Pass) error {
	metrics.Periodic.RegisterMetrics()
	lgr := zap.S()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	doneCh := ctx.Done()

	for {
		metrics.Periodic.PassInProgress.Set(1)
		lgr.Debugw("starting_pass")
		err := pass(ctx)
		metrics.Periodic.PassInProgress.Set(0)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			metrics.Periodic.LastPassAt.Set(float64(time.Now().Unix()))
			metrics.Periodic.LastPassOk.Set(1)
			metrics.Periodic.PassesCompleted.Inc()
			lgr.Debugw("pass_complete")
		} else {
			metrics.Periodic.LastPassOk.Set(0)
			metrics.Periodic.PassErrors.Inc()
			lgr.Errorw("pass_error", "err", err)
		}

		select {
		case <-doneCh:
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
