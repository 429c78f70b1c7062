package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitepub/internal/config"
	"git.home.luguber.info/inful/sitepub/internal/copier"
	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepub/internal/logfields"
	"git.home.luguber.info/inful/sitepub/internal/metrics"
	"git.home.luguber.info/inful/sitepub/internal/rewrite"
	"git.home.luguber.info/inful/sitepub/internal/workspace"
)

// Phase names used in logs and metrics.
const (
	PhaseReset   = "reset"
	PhaseCopy    = "copy"
	PhaseRewrite = "rewrite"
)

// Publisher runs publishes for one configuration.
type Publisher struct {
	cfg      *config.Config
	recorder metrics.Recorder
	logger   *slog.Logger
	newID    func() string
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithRecorder sets the metrics recorder. A NoopRecorder is used otherwise.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Publisher) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithLogger sets the logger. slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Publisher. cfg is validated on every run.
func New(cfg *config.Config, opts ...Option) *Publisher {
	p := &Publisher{
		cfg:      cfg,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run publishes the source tree into the output directory: validate, lock,
// reset, copy, rewrite, unlock.
func (p *Publisher) Run(ctx context.Context) (report *Report, err error) {
	start := time.Now()
	report = &Report{RunID: p.newID(), Mode: p.cfg.Mode}
	log := p.logger.With(logfields.RunID(report.RunID))
	defer func() { p.finish(log, report, start, err) }()

	if err := p.cfg.Validate(); err != nil {
		return report, foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "invalid configuration").Fatal().Build()
	}
	report.Mode = p.cfg.Mode

	ws, err := workspace.NewManager(p.cfg.Source, p.cfg.OutputPath(), log)
	if err != nil {
		return report, foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "invalid paths").Fatal().Build()
	}
	report.Source, report.Output = ws.Source(), ws.Output()

	// The source is checked before the reset so a typo never wipes the output.
	if info, statErr := os.Stat(ws.Source()); statErr != nil || !info.IsDir() {
		return report, foundationerrors.NotFoundError("source directory not found").
			WithCause(statErr).
			WithContext("source", ws.Source()).
			Build()
	}

	if err := ws.Lock(); err != nil {
		return report, lockError(err, ws.LockPath())
	}
	defer func() {
		if uerr := ws.Unlock(); uerr != nil {
			log.Warn("Failed to release output lock", logfields.Error(uerr))
		}
	}()

	if rev, revErr := Revision(ws.Source()); revErr != nil {
		log.Debug("Source revision unavailable", logfields.Error(revErr))
	} else {
		report.Revision = rev
	}

	log.Info("Starting publish",
		logfields.Source(ws.Source()),
		logfields.Dest(ws.Output()),
		logfields.Mode(report.Mode.String()),
		logfields.Revision(report.Revision))

	phaseStart := time.Now()
	if err := ws.Reset(ctx); err != nil {
		return report, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to reset output directory").
			Fatal().
			WithContext("output", ws.Output()).
			Build()
	}
	p.recorder.ObservePhaseDuration(PhaseReset, time.Since(phaseStart))

	phaseStart = time.Now()
	cp := copier.New(copier.Options{
		Exclude:    p.cfg.ExcludeNames(),
		KeepHidden: p.cfg.KeepHidden,
		Logger:     log.With(logfields.Phase(PhaseCopy)),
	})
	report.Copy, err = cp.Copy(ctx, ws.Source(), ws.Output())
	p.recorder.ObservePhaseDuration(PhaseCopy, time.Since(phaseStart))
	p.recordCopy(report.Copy)
	if err != nil {
		return report, classifyPhaseError(err, PhaseCopy)
	}
	log.Info("Copied source tree",
		logfields.Count(report.Copy.Copied),
		logfields.Bytes(report.Copy.Bytes))

	report.Rewrite, err = p.rewrite(ctx, log, ws.Output())
	if err != nil {
		return report, classifyPhaseError(err, PhaseRewrite)
	}
	return report, nil
}

// RewriteOnly rewrites the links of an already published output tree in
// place, e.g. to flip it to the other mode. Nothing is copied or reset.
func (p *Publisher) RewriteOnly(ctx context.Context) (report *Report, err error) {
	start := time.Now()
	report = &Report{RunID: p.newID(), Mode: p.cfg.Mode}
	log := p.logger.With(logfields.RunID(report.RunID))
	defer func() { p.finish(log, report, start, err) }()

	if err := p.cfg.Validate(); err != nil {
		return report, foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "invalid configuration").Fatal().Build()
	}
	report.Mode = p.cfg.Mode

	ws, err := workspace.NewManager(p.cfg.Source, p.cfg.OutputPath(), log)
	if err != nil {
		return report, foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "invalid paths").Fatal().Build()
	}
	report.Output = ws.Output()

	if err := ws.Lock(); err != nil {
		return report, lockError(err, ws.LockPath())
	}
	defer func() {
		if uerr := ws.Unlock(); uerr != nil {
			log.Warn("Failed to release output lock", logfields.Error(uerr))
		}
	}()

	log.Info("Starting rewrite", logfields.Path(ws.Output()), logfields.Mode(report.Mode.String()))
	report.Rewrite, err = p.rewrite(ctx, log, ws.Output())
	if err != nil {
		return report, classifyPhaseError(err, PhaseRewrite)
	}
	return report, nil
}

func (p *Publisher) rewrite(ctx context.Context, log *slog.Logger, root string) (*rewrite.Result, error) {
	phaseStart := time.Now()
	rw := rewrite.New(p.cfg.Mode, p.cfg.Domains, p.cfg.Labels,
		rewrite.WithExtensions(p.cfg.HTMLExtensions),
		rewrite.WithLogger(log.With(logfields.Phase(PhaseRewrite))))
	for _, rule := range rw.Rules() {
		log.Debug("Substitution rule", slog.String("from", rule.From), slog.String("to", rule.To))
	}
	res, err := rw.Rewrite(ctx, root)
	p.recorder.ObservePhaseDuration(PhaseRewrite, time.Since(phaseStart))
	if res != nil {
		p.recorder.AddFileResults(PhaseRewrite, metrics.ResultUpdated, res.Updated)
		p.recorder.AddFileResults(PhaseRewrite, metrics.ResultUnchanged, res.Unchanged)
		p.recorder.AddFileResults(PhaseRewrite, metrics.ResultFailed, len(res.Failures))
	}
	return res, err
}

func (p *Publisher) recordCopy(res *copier.Result) {
	if res == nil {
		return
	}
	p.recorder.AddFileResults(PhaseCopy, metrics.ResultCopied, res.Copied)
	p.recorder.AddFileResults(PhaseCopy, metrics.ResultSkipped, res.Skipped)
	p.recorder.AddFileResults(PhaseCopy, metrics.ResultFailed, len(res.Failures))
}

// finish records the duration and outcome of a run and logs its end.
func (p *Publisher) finish(log *slog.Logger, report *Report, start time.Time, err error) {
	report.Duration = time.Since(start)
	p.recorder.ObservePublishDuration(report.Duration)

	ms := float64(report.Duration.Microseconds()) / 1000
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		p.recorder.IncPublishOutcome(metrics.OutcomeCanceled)
		log.Warn("Run canceled", logfields.DurationMS(ms))
	case err != nil:
		p.recorder.IncPublishOutcome(metrics.OutcomeFailed)
		log.Error("Run failed",
			logfields.DurationMS(ms),
			logfields.Reason(string(foundationerrors.GetCategory(err))),
			logfields.Error(err))
	default:
		outcome := report.Outcome()
		p.recorder.IncPublishOutcome(outcome)
		if outcome == metrics.OutcomeWarning {
			log.Warn("Run completed with failures", logfields.Count(report.Failed()), logfields.DurationMS(ms))
			return
		}
		log.Info("Run completed", logfields.DurationMS(ms))
	}
}

func lockError(err error, lockPath string) error {
	if errors.Is(err, workspace.ErrLocked) {
		return foundationerrors.LockError("another run is publishing to this output directory").
			WithCause(err).
			WithContext("lock", lockPath).
			Build()
	}
	return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to lock output directory").
		Fatal().
		WithContext("lock", lockPath).
		Build()
}

// classifyPhaseError keeps cancellation unwrapped so callers can match it.
func classifyPhaseError(err error, phase string) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", phase, err)
	case errors.Is(err, copier.ErrSourceNotFound), errors.Is(err, rewrite.ErrRootNotFound):
		return foundationerrors.WrapError(err, foundationerrors.CategoryNotFound, phase+" root not found").
			Fatal().
			WithContext("phase", phase).
			Build()
	default:
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, phase+" failed").
			Fatal().
			WithContext("phase", phase).
			Build()
	}
}
