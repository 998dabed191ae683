package logfields

import "log/slog"

// Canonical log field names shared by every package.
const (
	KeyRunID    = "run_id"
	KeyTrigger  = "trigger"
	KeyResource = "resource"
	KeyStatus   = "status"
	KeyCount    = "count"
	KeyPage     = "page"
	KeyPath     = "path"
	KeyURL      = "url"
	KeyDuration = "duration_ms"
	KeyError    = "error"
)

func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Trigger(t string) slog.Attr      { return slog.String(KeyTrigger, t) }
func Resource(r string) slog.Attr     { return slog.String(KeyResource, r) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Page(n int) slog.Attr            { return slog.Int(KeyPage, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDuration, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
