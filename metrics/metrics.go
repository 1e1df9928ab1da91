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
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "gradeupload"

type saga struct {
	Committed        prometheus.Counter
	stageFailuresVec *prometheus.CounterVec
	compensationsVec *prometheus.CounterVec
	SecondsTotal     prometheus.Counter
	JournalErrors    prometheus.Counter
	Panics           prometheus.Counter
}

type transfer struct {
	UploadedBytes prometheus.Counter
	UploadedFiles prometheus.Counter
	UploadErrors  prometheus.Counter
}

type backend struct {
	requestsVec       *prometheus.CounterVec
	requestSecondsVec *prometheus.CounterVec
}

type batch struct {
	InFlight  prometheus.Gauge
	Started   prometheus.Counter
	Cancelled prometheus.Counter
}

type journal struct {
	getHitsVec   *prometheus.CounterVec
	getMissesVec *prometheus.CounterVec
	putsVec      *prometheus.CounterVec
	deletesVec   *prometheus.CounterVec
}

type JournalCounters struct {
	Hits    prometheus.Counter
	Misses  prometheus.Counter
	Puts    prometheus.Counter
	Deletes prometheus.Counter
}

func NewJournalCounters(name string) *JournalCounters {
	return &JournalCounters{
		Hits:    Journal.getHitsVec.WithLabelValues(name),
		Misses:  Journal.getMissesVec.WithLabelValues(name),
		Puts:    Journal.putsVec.WithLabelValues(name),
		Deletes: Journal.deletesVec.WithLabelValues(name),
	}
}

func (s *saga) StageFailure(stage string) {
	s.stageFailuresVec.WithLabelValues(stage).Inc()
}

func (s *saga) Compensation(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.compensationsVec.WithLabelValues(action, result).Inc()
}

func (b *backend) ObserveRequest(path string, start time.Time, resp *http.Response, err error) {
	code := "error"
	if err == nil && resp != nil {
		code = strconv.Itoa(resp.StatusCode)
	}
	b.requestsVec.WithLabelValues(path, code).Inc()
	b.requestSecondsVec.WithLabelValues(path).Add(time.Since(start).Seconds())
}

var (
	Saga = saga{
		Committed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "saga",
			Name:      "committed_total",
			Help:      "Number of grade images that were uploaded and recorded.",
		}),
		stageFailuresVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "saga",
			Name:      "failures_total",
			Help:      "Number of grade images that failed, by stage.",
		}, []string{"stage"}),
		compensationsVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "saga",
			Name:      "compensations_total",
			Help:      "Number of compensating actions run, by action and result.",
		}, []string{"action", "result"}),
		SecondsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "saga",
			Name:      "seconds_total",
			Help:      "Total time spent running sagas.",
		}),
		JournalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "saga",
			Name:      "journal_errors_total",
			Help:      "Number of liabilities that could not be journaled or cleared.",
		}),
		Panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "saga",
			Name:      "panics_total",
			Help:      "Number of panics recovered while running a stage or compensation.",
		}),
	}

	Transfer = transfer{
		UploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "upload_bytes_total",
			Help:      "Total bytes uploaded to the object store.",
		}),
		UploadedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "upload_files_total",
			Help:      "Number of files uploaded to the object store.",
		}),
		UploadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "upload_errors_total",
			Help:      "Number of failed uploads.",
		}),
	}

	Backend = backend{
		requestsVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Number of backend requests, by path and status code.",
		}, []string{"path", "code"}),
		requestSecondsVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "request_seconds_total",
			Help:      "Total time spent waiting on backend requests, by path.",
		}, []string{"path"}),
	}

	Batch = batch{
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "in_flight",
			Help:      "Number of sagas currently running.",
		}),
		Started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "started_total",
			Help:      "Number of batches started.",
		}),
		Cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "cancelled_items_total",
			Help:      "Number of items reported as cancelled before they started.",
		}),
	}

	Journal = journal{
		getHitsVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "get_hits_total",
			Help:      "Number of journal gets that were hits.",
		}, []string{"journal"}),
		getMissesVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "get_misses_total",
			Help:      "Number of journal gets that were misses.",
		}, []string{"journal"}),
		putsVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "puts_total",
			Help:      "Number of journal put requests.",
		}, []string{"journal"}),
		deletesVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "deletes_total",
			Help:      "Number of journal delete requests.",
		}, []string{"journal"}),
	}
)

func SetupPrometheus(metricsListenAddress, metricsPath *string) {
	if metricsListenAddress == nil || *metricsListenAddress == "" {
		return
	}
	go func() {
		http.Handle(*metricsPath, promhttp.Handler())
		err := http.ListenAndServe(*metricsListenAddress, nil)
		zap.S().Fatalw("metrics_listen_error", "err", err)
	}()
}

func init() {
	prometheus.MustRegister(Saga.Committed)
	prometheus.MustRegister(Saga.stageFailuresVec)
	prometheus.MustRegister(Saga.compensationsVec)
	prometheus.MustRegister(Saga.SecondsTotal)
	prometheus.MustRegister(Saga.JournalErrors)
	prometheus.MustRegister(Saga.Panics)

	prometheus.MustRegister(Transfer.UploadedBytes)
	prometheus.MustRegister(Transfer.UploadedFiles)
	prometheus.MustRegister(Transfer.UploadErrors)

	prometheus.MustRegister(Backend.requestsVec)
	prometheus.MustRegister(Backend.requestSecondsVec)

	prometheus.MustRegister(Batch.InFlight)
	prometheus.MustRegister(Batch.Started)
	prometheus.MustRegister(Batch.Cancelled)

	prometheus.MustRegister(Journal.getHitsVec)
	prometheus.MustRegister(Journal.getMissesVec)
	prometheus.MustRegister(Journal.putsVec)
	prometheus.MustRegister(Journal.deletesVec)
}
