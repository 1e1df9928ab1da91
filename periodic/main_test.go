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
	"errors"
	"testing"
	"time"
)

func TestMainRunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	passes := 0
	pass := func(context.Context) error {
		passes++
		if passes == 3 {
			cancel()
		}
		if passes == 2 {
			return errors.New("backend down")
		}
		return nil
	}
	err := Main(ctx, time.Millisecond, pass)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("wrong error %v", err)
	}
	if passes != 3 {
		t.Fatalf("expected 3 passes, got %d", passes)
	}
}
