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

package grade

import "context"

type haltKey struct{}

// WithHalt returns a context that work running under it can cancel for
// everyone with Halt, for failures no sibling could get past.
func WithHalt(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	ctx = context.WithValue(ctx, haltKey{}, cancel)
	return ctx, func() { cancel(context.Canceled) }
}

// Halt cancels the context set up by WithHalt with err as its cause. It does
// nothing for a context without one.
func Halt(ctx context.Context, err error) {
	if cancel, ok := ctx.Value(haltKey{}).(context.CancelCauseFunc); ok {
		cancel(err)
	}
}
