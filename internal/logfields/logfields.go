package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID    = "run_id"
	KeyPhase    = "phase"
	KeyMode     = "mode"
	KeyPath     = "path"
	KeySource   = "source"
	KeyDest     = "dest"
	KeyFile     = "file"
	KeyCount    = "count"
	KeyBytes    = "bytes"
	KeyRevision = "revision"
	KeyReason   = "reason"
	KeyDuration = "duration_ms"
	KeyError    = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Phase(name string) slog.Attr     { return slog.String(KeyPhase, name) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Source(p string) slog.Attr       { return slog.String(KeySource, p) }
func Dest(p string) slog.Attr         { return slog.String(KeyDest, p) }
func File(p string) slog.Attr         { return slog.String(KeyFile, p) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Bytes(n int64) slog.Attr         { return slog.Int64(KeyBytes, n) }
func Revision(r string) slog.Attr     { return slog.String(KeyRevision, r) }
func Reason(r string) slog.Attr       { return slog.String(KeyReason, r) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDuration, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
