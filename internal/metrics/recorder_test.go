package metrics

import (
	"testing"
	"time"
)

var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObservePhaseDuration("copy", time.Second)
	r.AddFileResults("copy", ResultCopied, 10)
	r.ObservePublishDuration(time.Second)
	r.IncPublishOutcome(OutcomeSuccess)
}
