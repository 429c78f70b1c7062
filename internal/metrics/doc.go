// Package metrics provides observability hooks for publish runs.
//
// Components receive a Recorder and default to NoopRecorder, so metrics cost
// nothing unless enabled. The CLI swaps in a PrometheusRecorder on a private
// registry when --metrics-file is set and writes the registry out in text
// exposition format after the run, for the node_exporter textfile collector:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	// ... run ...
//	err := metrics.WriteTextfile(path, reg)
package metrics
