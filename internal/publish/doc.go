// Package publish runs one end-to-end publish of a static site: it locks and
// resets the output directory, copies the filtered source tree into it, then
// rewrites the cross-site links for the target mode.
//
// Per-file copy and rewrite failures never abort a run; they are collected in
// the Report. Only invalid paths, lock contention, a failed reset, a missing
// source and cancellation are returned as errors.
package publish
