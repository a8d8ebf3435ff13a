package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimeprober/internal/config"
	"github.com/hamed0406/uptimeprober/internal/logging"
	"github.com/hamed0406/uptimeprober/internal/probe"
	"github.com/hamed0406/uptimeprober/internal/report"
	"github.com/hamed0406/uptimeprober/internal/scheduler"
	"github.com/hamed0406/uptimeprober/internal/snapshot"
)

const (
	defaultConfigPath = "config.json"
	defaultLogPath    = "log.txt"
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [config.json] [log.txt]\n", os.Args[0])
	}
	flag.Parse()

	s := config.FromEnv()
	logger, err := logging.NewLogger(s.LogDir, "prober.log", s.LogLevel)
	if err != nil {
		log.Print(err)
		return 1
	}
	defer logger.Sync()

	cfgPath, logPath, missing := positional(flag.Args())
	for _, m := range missing {
		logger.Warn("argument_missing", zap.String("arg", m.name), zap.String("default", m.value))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := scheduler.NewPoller(
		logger,
		cfgPath,
		probe.NewHTTPChecker(),
		s.MaxConcurrency,
		report.NewLogFile(logPath),
		report.NewConsoleSink(os.Stdout, !s.NoColor && report.ColorSupported()),
		snapshot.NewWriter(s.SnapshotPath),
	)

	logger.Info("prober_start",
		zap.String("config", cfgPath),
		zap.String("log_file", logPath),
		zap.String("snapshot", s.SnapshotPath),
		zap.Int("max_concurrency", s.MaxConcurrency),
	)
	err = p.Run(ctx)
	logger.Info("prober_stop", zap.Error(err))
	return exitCode(err)
}

type defaulted struct {
	name, value string
}

// positional returns the config and log file paths, falling back to the
// defaults for anything not given.
func positional(args []string) (cfgPath, logPath string, missing []defaulted) {
	cfgPath, logPath = defaultConfigPath, defaultLogPath
	if len(args) > 0 && args[0] != "" {
		cfgPath = args[0]
	} else {
		missing = append(missing, defaulted{"config", defaultConfigPath})
	}
	if len(args) > 1 && args[1] != "" {
		logPath = args[1]
	} else {
		missing = append(missing, defaulted{"log_file", defaultLogPath})
	}
	return cfgPath, logPath, missing
}

func exitCode(err error) int {
	var src *config.SourceError
	var sink *report.SinkError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &src):
		return 2
	case errors.As(err, &sink):
		return 3
	default:
		return 1
	}
}
