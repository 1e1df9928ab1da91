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

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type periodic struct {
	LastPassOk      prometheus.Gauge
	LastPassAt      prometheus.Gauge
	PassInProgress  prometheus.Gauge
	PassErrors      prometheus.Counter
	PassesCompleted prometheus.Counter
	registerOnce    sync.Once
}

var (
	Periodic = periodic{
		LastPassAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watch",
			Name:      "last_at_seconds",
			Help:      "Time the last directory pass successfully completed.",
		}),
		LastPassOk: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watch",
			Name:      "last_ok",
			Help:      "1 if the last directory pass completed without failed items.",
		}),
		PassInProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watch",
			Name:      "in_progress",
			Help:      "1 if a directory pass is in progress.",
		}),
		PassErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watch",
			Name:      "errors_total",
			Help:      "Number of directory passes that failed or had failed items.",
		}),
		PassesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watch",
			Name:      "completed_total",
			Help:      "Number of completed directory passes.",
		}),
	}
)

func (c *periodic) RegisterMetrics() {
	c.registerOnce.Do(func() {
		prometheus.MustRegister(c.PassesCompleted)
		prometheus.MustRegister(c.PassErrors)
		prometheus.MustRegister(c.PassInProgress)
		prometheus.MustRegister(c.LastPassAt)
		prometheus.MustRegister(c.LastPassOk)
	})
}
