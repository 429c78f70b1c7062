package metrics

import "time"

// ResultLabel enumerates per-file result categories for counters.
type ResultLabel string

const (
	ResultCopied    ResultLabel = "copied"
	ResultUpdated   ResultLabel = "updated"
	ResultUnchanged ResultLabel = "unchanged"
	ResultSkipped   ResultLabel = "skipped"
	ResultFailed    ResultLabel = "failed"
)

// OutcomeLabel enumerates final publish outcomes.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeWarning  OutcomeLabel = "warning" // completed with per-file failures
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeCanceled OutcomeLabel = "canceled"
)

// Recorder defines observability hooks for publish runs.
type Recorder interface {
	ObservePhaseDuration(phase string, d time.Duration)
	AddFileResults(phase string, result ResultLabel, n int)
	ObservePublishDuration(d time.Duration)
	IncPublishOutcome(outcome OutcomeLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePhaseDuration(string, time.Duration) {}
func (NoopRecorder) AddFileResults(string, ResultLabel, int)    {}
func (NoopRecorder) ObservePublishDuration(time.Duration)       {}
func (NoopRecorder) IncPublishOutcome(OutcomeLabel)             {}
