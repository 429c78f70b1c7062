package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/sitepub/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepub/internal/publish"
	"git.home.luguber.info/inful/sitepub/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	TargetFlags `embed:""`
	Debounce time.Duration `help:"Quiet period after the last change before publishing (default from config, 500ms)"`
	Interval time.Duration `help:"Also republish on this interval, e.g. 10m"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := w.LoadConfig(g, root)
	if err != nil {
		return err
	}
	if w.Debounce > 0 {
		cfg.Watch.Debounce = w.Debounce
	}
	if w.Interval > 0 {
		cfg.Watch.Interval = w.Interval
	}
	if err := cfg.Validate(); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "invalid configuration").Fatal().Build()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return w.run(ctx, g, cfg)
}

func (w *WatchCmd) run(ctx context.Context, g *Global, cfg *config.Config) error {
	watcher, err := watch.New(watch.Options{
		Root:       cfg.Source,
		Output:     cfg.OutputPath(),
		Exclude:    cfg.ExcludeNames(),
		KeepHidden: cfg.KeepHidden,
		Debounce:   cfg.Watch.Debounce,
		Interval:   cfg.Watch.Interval,
		Logger:     g.Logger,
	})
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "invalid watch paths").Fatal().Build()
	}

	rec, flush := w.NewRecorder()
	pub := publish.New(cfg, publish.WithRecorder(rec), publish.WithLogger(g.Logger))

	fmt.Fprintf(g.Stdout, "Watching %s (debounce %s), press Ctrl+C to stop\n", cfg.Source, formatDuration(cfg.Watch.Debounce))
	err = watcher.Run(ctx, func(ctx context.Context) error {
		report, err := pub.Run(ctx)
		flushMetrics(g, w.MetricsFile, flush)
		if err != nil {
			return err
		}
		report.Summary(g.Stdout)
		return nil
	})
	if err != nil {
		return foundationerrors.RuntimeError("watch failed").WithCause(err).Build()
	}
	return nil
}
