// Package observability carries instrumentation hooks for the grid engine,
// the page cache and the HTTP layers.
//
// Hooks are process-wide. Each category starts as a no-op; a host that
// wants metrics or traces registers its own implementation once, before
// building engines or servers:
//
//	observability.SetGridHooks(metrics.GridHooks{})
//
// Emitters fetch the current hooks at the call site:
//
//	observability.Grid().OnFetchStart(ctx, epoch)
//
// Grid hooks are called on the engine's scheduler goroutine and must not
// block. Cache and HTTP hooks may be called from any goroutine.
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// GridHooks receives engine events.
type GridHooks interface {
	OnFetchStart(ctx context.Context, epoch uint64)
	OnFetchComplete(ctx context.Context, epoch uint64, items int, took time.Duration, err error)

	// OnStale records a page dropped because the engine was reset or
	// detached while it was in flight.
	OnStale(ctx context.Context, epoch, current uint64)

	// OnCommit records sections appended after a fetch or re-tile.
	OnCommit(ctx context.Context, sections, rows int, height float64)

	// OnVisibility records a section being mounted or unmounted.
	OnVisibility(ctx context.Context, section int, shown bool)

	OnReflow(ctx context.Context, width float64, sections int)
	OnRetile(ctx context.Context, items int)
}

// CacheHooks receives page cache events. keyType names the cached entity.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives request events from the remote source and the server.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, status int, took time.Duration)

	// OnError records a request that got no response.
	OnError(ctx context.Context, method, host, path string, err error)
}

// NoopGridHooks ignores every event.
type NoopGridHooks struct{}

func (NoopGridHooks) OnFetchStart(context.Context, uint64)                                {}
func (NoopGridHooks) OnFetchComplete(context.Context, uint64, int, time.Duration, error) {}
func (NoopGridHooks) OnStale(context.Context, uint64, uint64)                             {}
func (NoopGridHooks) OnCommit(context.Context, int, int, float64)                         {}
func (NoopGridHooks) OnVisibility(context.Context, int, bool)                             {}
func (NoopGridHooks) OnReflow(context.Context, float64, int)                              {}
func (NoopGridHooks) OnRetile(context.Context, int)                                       {}

// NoopCacheHooks ignores every event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores every event.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// slot holds one registered hook. An empty slot yields def.
type slot[T any] struct {
	p   atomic.Pointer[T]
	def T
}

func (s *slot[T]) get() T {
	if p := s.p.Load(); p != nil {
		return *p
	}
	return s.def
}

func (s *slot[T]) set(v T) { s.p.Store(&v) }

func (s *slot[T]) clear() { s.p.Store(nil) }

var (
	gridSlot  = slot[GridHooks]{def: NoopGridHooks{}}
	cacheSlot = slot[CacheHooks]{def: NoopCacheHooks{}}
	httpSlot  = slot[HTTPHooks]{def: NoopHTTPHooks{}}
)

// SetGridHooks registers h. A nil h is ignored.
func SetGridHooks(h GridHooks) {
	if h != nil {
		gridSlot.set(h)
	}
}

// SetCacheHooks registers h. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		cacheSlot.set(h)
	}
}

// SetHTTPHooks registers h. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		httpSlot.set(h)
	}
}

// Grid returns the registered grid hooks.
func Grid() GridHooks { return gridSlot.get() }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return cacheSlot.get() }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return httpSlot.get() }

// Reset restores the no-op hooks. Tests that register hooks call it in
// cleanup.
func Reset() {
	gridSlot.clear()
	cacheSlot.clear()
	httpSlot.clear()
}
