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

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/retailnext/gradeupload/config"
	"github.com/retailnext/gradeupload/metrics"
	"github.com/retailnext/gradeupload/upload"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func setupLogger() func() {
	var logger *zap.Logger
	var err error
	if term.IsTerminal(int(os.Stdin.Fd())) {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)

	return func() {
		_ = logger.Sync()
	}
}

func setupInterruptContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-c:
			zap.S().Infow("shutting_down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	onExit := func() {
		signal.Stop(c)
		cancel()
	}
	return ctx, onExit
}

func setupProfile() func() {
	if pprofFile == nil || *pprofFile == "" {
		return func() {
		}
	}
	f, err := os.Create(*pprofFile)
	if err != nil {
		panic(err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		panic(err)
	}
	return func() {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			panic(err)
		}
	}
}

var (
	pprofFile = kingpin.Flag("pprof.cpu.file", "Enable cpu profiling to this file.").String()

	metricsListenAddress = kingpin.Flag("web.listen-address", "Address on which to expose metrics.").String()
	metricsPath          = kingpin.Flag("web.telemetry-path", "Path under which to expose metrics.").Default("/metrics").String()

	configFile = kingpin.Flag("config", "YAML configuration file. Flags override its values.").Envar("GRADEUPLOAD_CONFIG").ExistingFile()

	backendURL    = kingpin.Flag("backend-url", "Base URL of the grade backend.").Envar("GRADEUPLOAD_BACKEND_URL").String()
	backendAPIKey = kingpin.Flag("api-key", "API key sent to the grade backend.").Envar("GRADEUPLOAD_API_KEY").String()

	provider        = kingpin.Flag("credential-provider", "Who issues upload credentials. ["+config.ProviderBackend+" or "+config.ProviderAWS+"]").Enum(config.ProviderBackend, config.ProviderAWS)
	bucketName      = kingpin.Flag("bucket", "S3 bucket name.").String()
	bucketKeyPrefix = kingpin.Flag("key-prefix", "Set the prefix for files in the bucket").String()
	s3BucketRegion  = kingpin.Flag("s3-region", "S3 bucket region.").Envar("AWS_REGION").String()
	s3Endpoint      = kingpin.Flag("s3-endpoint", "Override the S3 endpoint, for S3 compatible stores.").String()

	recordStore       = kingpin.Flag("record-store", "Where grade records are kept. ["+config.StoreBackend+" or "+config.StoreCassandra+"]").Enum(config.StoreBackend, config.StoreCassandra)
	cassandraHosts    = kingpin.Flag("cassandra-host", "Cassandra contact point. Repeatable.").Strings()
	cassandraKeyspace = kingpin.Flag("cassandra-keyspace", "Keyspace holding grade_records.").String()

	journalFile     = kingpin.Flag("journal-file", "Location of the local liability journal.").String()
	concurrency     = kingpin.Flag("concurrency", "Maximum number of images in flight.").Int()
	reportDirectory = kingpin.Flag("report-dir", "Directory to write batch reports to.").String()
)

func parseOptions() (string, *config.Config) {
	kingpin.UsageTemplate(kingpin.CompactUsageTemplate)
	cmd := kingpin.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		kingpin.Fatalf("%v", err)
	}
	override := func(target *string, value string) {
		if value != "" {
			*target = value
		}
	}
	override(&cfg.BackendURL, *backendURL)
	override(&cfg.BackendAPIKey, *backendAPIKey)
	override(&cfg.Provider, *provider)
	override(&cfg.BucketName, *bucketName)
	override(&cfg.BucketKeyPrefix, *bucketKeyPrefix)
	override(&cfg.BucketRegion, *s3BucketRegion)
	override(&cfg.S3Endpoint, *s3Endpoint)
	override(&cfg.RecordStore, *recordStore)
	override(&cfg.CassandraKeyspace, *cassandraKeyspace)
	override(&cfg.JournalFile, *journalFile)
	override(&cfg.ReportDirectory, *reportDirectory)
	if len(*cassandraHosts) > 0 {
		cfg.CassandraHosts = *cassandraHosts
	}
	if *concurrency > 0 {
		cfg.Concurrency = *concurrency
	}
	if err := cfg.Validate(); err != nil {
		kingpin.Fatalf("%v", err)
	}
	return cmd, cfg
}

func main() {
	cmd, cfg := parseOptions()

	sync := setupLogger()
	defer sync()
	lgr := zap.S()

	ctx, onExit := setupInterruptContext()
	defer onExit()

	stopProfile := setupProfile()
	defer stopProfile()

	metrics.SetupPrometheus(metricsListenAddress, metricsPath)

	var err error
	switch cmd {
	case "upload batch":
		err = upload.DoBatch(ctx, cfg)
	case "upload watch":
		err = upload.DoWatch(ctx, cfg)
	case "recover":
		err = upload.DoRecover(ctx, cfg)
	default:
		lgr.Fatalw("unhandled_command", "cmd", cmd)
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	if err != nil {
		lgr.Fatalw("command_error", "cmd", cmd, "err", err)
	}
}
