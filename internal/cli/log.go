package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flashlight/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Laid out 420 items (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Log-backed hooks
// =============================================================================

// installHooks routes engine, cache, and HTTP events to l at debug level.
func installHooks(l *log.Logger) {
	observability.SetGridHooks(gridLogHooks{l.WithPrefix("grid")})
	observability.SetCacheHooks(cacheLogHooks{l.WithPrefix("cache")})
	observability.SetHTTPHooks(httpLogHooks{l.WithPrefix("http")})
}

type gridLogHooks struct{ l *log.Logger }

func (h gridLogHooks) OnFetchStart(_ context.Context, epoch uint64) {
	h.l.Debug("fetch", "epoch", epoch)
}

func (h gridLogHooks) OnFetchComplete(_ context.Context, epoch uint64, n int, took time.Duration, err error) {
	if err != nil {
		h.l.Debug("fetch failed", "epoch", epoch, "took", took, "err", err)
		return
	}
	h.l.Debug("fetched", "epoch", epoch, "items", n, "took", took)
}

func (h gridLogHooks) OnStale(_ context.Context, epoch, current uint64) {
	h.l.Debug("stale page", "epoch", epoch, "current", current)
}

func (h gridLogHooks) OnVisibility(_ context.Context, section int, shown bool) {
	if shown {
		h.l.Debug("show", "section", section)
		return
	}
	h.l.Debug("hide", "section", section)
}

func (h gridLogHooks) OnCommit(_ context.Context, sections, rows int, height float64) {
	h.l.Debug("commit", "sections", sections, "rows", rows, "height", height)
}

func (h gridLogHooks) OnReflow(_ context.Context, width float64, sections int) {
	h.l.Debug("reflow", "width", width, "sections", sections)
}

func (h gridLogHooks) OnRetile(_ context.Context, items int) {
	h.l.Debug("retile", "items", items)
}

type cacheLogHooks struct{ l *log.Logger }

func (h cacheLogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.l.Debug("hit", "type", keyType)
}

func (h cacheLogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.l.Debug("miss", "type", keyType)
}

func (h cacheLogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.l.Debug("set", "type", keyType, "bytes", size)
}

type httpLogHooks struct{ l *log.Logger }

func (h httpLogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.l.Debug("request", "method", method, "host", host, "path", path)
}

func (h httpLogHooks) OnResponse(_ context.Context, method, host, path string, status int, took time.Duration) {
	h.l.Debug("response", "method", method, "host", host, "path", path, "status", status, "took", took)
}

func (h httpLogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.l.Debug("error", "method", method, "host", host, "path", path, "err", err)
}
