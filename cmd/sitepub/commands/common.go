package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"
	"gopkg.in/natefinch/lumberjack.v2"

	"git.home.luguber.info/inful/sitepub/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepub/internal/logfields"
	"git.home.luguber.info/inful/sitepub/internal/metrics"
	"git.home.luguber.info/inful/sitepub/internal/rewrite"
)

// Global carries state shared by all commands.
type Global struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	logFile io.Closer
}

// Close releases the rotating log file, if one was opened.
func (g *Global) Close() error {
	if g.logFile == nil {
		return nil
	}
	err := g.logFile.Close()
	g.logFile = nil
	return err
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (optional)" default:"sitepub.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	LogFile string           `name:"log-file" help:"Also write logs to this file, rotated by size" placeholder:"PATH"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Publish PublishCmd `cmd:"" default:"withargs" help:"Copy the source tree into the output directory and rewrite cross-site links (default)"`
	Rewrite RewriteCmd `cmd:"" help:"Rewrite links in an already published output directory"`
	Watch   WatchCmd   `cmd:"" help:"Publish, then publish again whenever the source changes"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	if g.Stdout == nil {
		g.Stdout = os.Stdout
	}
	if g.Stderr == nil {
		g.Stderr = os.Stderr
	}

	var w io.Writer = g.Stderr
	if c.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(c.LogFile), 0o750); err != nil {
			return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to create log directory").
				Fatal().
				WithContext("log_file", c.LogFile).
				Build()
		}
		lj := &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		g.logFile = lj
		w = io.MultiWriter(g.Stderr, lj)
	}

	g.Logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	return nil
}

// TargetFlags are the per-run overrides shared by publish, rewrite and watch.
// Non-empty values win over the environment and the config file.
type TargetFlags struct {
	Source      string `help:"Source directory containing the built site" placeholder:"DIR"`
	Output      string `short:"o" help:"Output directory, relative to the source unless absolute" placeholder:"DIR"`
	Mode        string `short:"m" help:"Publish target: mirror or primary" placeholder:"MODE"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics to this file after each run" placeholder:"PATH"`
}

// LoadConfig loads the configuration file and applies the flag overrides.
func (f *TargetFlags) LoadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, loaded, err := config.Load(root.Config)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to load configuration").
			WithContext("file", root.Config).
			Build()
	}
	if loaded.File == "" {
		g.Logger.Debug("No configuration file found, using defaults", logfields.Path(root.Config))
	} else {
		g.Logger.Debug("Loaded configuration", logfields.Path(loaded.File))
	}
	for _, name := range loaded.EnvFiles {
		g.Logger.Debug("Loaded environment file", logfields.File(name))
	}
	for _, name := range loaded.Env {
		g.Logger.Debug("Configuration overridden from environment", logfields.Reason(name))
	}

	if f.Source != "" {
		cfg.Source = f.Source
	}
	if f.Output != "" {
		cfg.Output.Directory = f.Output
	}
	if f.Mode != "" {
		mode, err := rewrite.ParseMode(f.Mode)
		if err != nil {
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "invalid --mode").
				Fatal().
				WithContext("mode", f.Mode).
				Build()
		}
		cfg.Mode = mode
	}
	return cfg, nil
}

// NewRecorder returns the recorder for a run and a flush func that writes the
// collected metrics to MetricsFile. Without MetricsFile both are no-ops.
func (f *TargetFlags) NewRecorder() (metrics.Recorder, func() error) {
	if f.MetricsFile == "" {
		return metrics.NoopRecorder{}, func() error { return nil }
	}
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	return rec, func() error { return metrics.WriteTextfile(f.MetricsFile, reg) }
}

// flushMetrics writes metrics; a failure is logged and never fails the run.
func flushMetrics(g *Global, path string, flush func() error) {
	if err := flush(); err != nil {
		g.Logger.Warn("Failed to write metrics file", logfields.Path(path), logfields.Error(err))
	}
}

func formatDuration(d time.Duration) string {
	return fmt.Sprint(d.Round(time.Millisecond))
}
