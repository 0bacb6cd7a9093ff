// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ik5/splicebox/config"
	"github.com/ik5/splicebox/internal/cli"
	"github.com/ik5/splicebox/metrics"
)

// version is set via ldflags at build time
var version = "dev"

type Globals struct {
	Config    string           `help:"YAML configuration file." short:"c" type:"existingfile"`
	LogLevel  string           `help:"Override the configured log level." enum:",debug,info,warn,error" default:""`
	LogFormat string           `help:"Override the configured log format." enum:",text,json" default:""`
	Metrics   string           `help:"Write session metrics to this file in Prometheus text format." type:"path"`
	Version   kong.VersionFlag `help:"Show version information."`
}

var CLI struct {
	Globals

	Join    joinCmd    `cmd:"" help:"Join audio files into one sample with splice markers at every join."`
	Append  appendCmd  `cmd:"" help:"Append audio files to an existing sample."`
	Stretch stretchCmd `cmd:"" help:"Change the tempo and pitch of a sample, moving its markers along."`
	Cues    cuesCmd    `cmd:"" help:"Show the duration and cue points of audio files."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("splicebox"),
		kong.Description("Prepare samples and splice markers for tape-style hardware samplers."),
		kong.Vars{"version": version},
		kong.UsageOnError(),
	)

	printer := cli.Printer{Out: os.Stdout, Err: os.Stderr}

	cfg, err := loadConfig(CLI.Globals)
	if err != nil {
		printer.Error(err.Error())
		os.Exit(1)
	}

	logger := initLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg := prometheus.NewRegistry()
	env := &environment{
		ctx:     ctx,
		cfg:     cfg,
		logger:  logger,
		printer: printer,
		metrics: metrics.New(reg),
	}

	runErr := kctx.Run(env)
	if CLI.Metrics != "" {
		if err := prometheus.WriteToTextfile(CLI.Metrics, reg); err != nil {
			logger.Warn("failed to write metrics", slog.String("path", CLI.Metrics), slog.Any("error", err))
		}
	}

	if runErr != nil {
		logger.Debug("command failed", slog.String("command", kctx.Command()), slog.Any("error", runErr))
		printer.Error(runErr.Error())
		stop()
		os.Exit(1)
	}
}

func loadConfig(g Globals) (*config.Config, error) {
	cfg := config.Default()
	if g.Config != "" {
		var err error
		if cfg, err = config.Load(g.Config); err != nil {
			return nil, err
		}
	}

	if g.LogLevel != "" {
		cfg.Logging.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Logging.Format = g.LogFormat
	}

	return cfg, nil
}

// initLogger creates the structured logger described by cfg.
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stdout":
		output = os.Stdout
	case "stderr", "":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stderr\n", cfg.Output, err)
			output = os.Stderr
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler).With(
		slog.String("service", "splicebox"),
		slog.String("version", version),
	)
}
