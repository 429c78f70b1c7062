package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	phaseDuration   *prom.HistogramVec
	fileResults     *prom.CounterVec
	publishDuration prom.Histogram
	publishOutcome  *prom.CounterVec
	lastSuccess     prom.Gauge
	now             func() time.Time
}

// NewPrometheusRecorder constructs and registers publish metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		phaseDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitepub",
			Name:      "phase_duration_seconds",
			Help:      "Duration of publish phases",
			Buckets:   prom.DefBuckets,
		}, []string{"phase"}),
		fileResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitepub",
			Name:      "files_total",
			Help:      "Files processed by phase and result",
		}, []string{"phase", "result"}),
		publishDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitepub",
			Name:      "publish_duration_seconds",
			Help:      "Total publish duration",
			Buckets:   prom.DefBuckets,
		}),
		publishOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitepub",
			Name:      "publish_outcomes_total",
			Help:      "Publish outcomes by final status",
		}, []string{"outcome"}),
		lastSuccess: prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitepub",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last publish that finished without per-file failures",
		}),
		now: time.Now,
	}
	reg.MustRegister(pr.phaseDuration, pr.fileResults, pr.publishDuration, pr.publishOutcome, pr.lastSuccess)
	return pr
}

func (p *PrometheusRecorder) ObservePhaseDuration(phase string, d time.Duration) {
	if p == nil {
		return
	}
	p.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

func (p *PrometheusRecorder) AddFileResults(phase string, result ResultLabel, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.fileResults.WithLabelValues(phase, string(result)).Add(float64(n))
}

func (p *PrometheusRecorder) ObservePublishDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.publishDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPublishOutcome(outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.publishOutcome.WithLabelValues(string(outcome)).Inc()
	if outcome == OutcomeSuccess {
		p.lastSuccess.Set(float64(p.now().Unix()))
	}
}

// WriteTextfile writes every metric in g to path in text exposition format.
// The file is written atomically.
func WriteTextfile(path string, g prom.Gatherer) error {
	if err := prom.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
