package observability

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNoopHooks(t *testing.T) {
	ctx := context.Background()

	g := Grid()
	g.OnFetchStart(ctx, 1)
	g.OnFetchComplete(ctx, 1, 50, time.Millisecond, nil)
	g.OnStale(ctx, 1, 2)
	g.OnCommit(ctx, 2, 40, 1200)
	g.OnVisibility(ctx, 0, true)
	g.OnReflow(ctx, 800, 2)
	g.OnRetile(ctx, 100)

	c := Cache()
	c.OnCacheHit(ctx, "page")
	c.OnCacheMiss(ctx, "page")
	c.OnCacheSet(ctx, "page", 1024)

	h := HTTP()
	h.OnRequest(ctx, "GET", "localhost:8080", "/v1/items")
	h.OnResponse(ctx, "GET", "localhost:8080", "/v1/items", 200, time.Millisecond)
	h.OnError(ctx, "GET", "localhost:8080", "/v1/items", context.Canceled)
}

type countingGrid struct {
	NoopGridHooks
	mu    sync.Mutex
	shown map[int]bool
}

func (g *countingGrid) OnVisibility(_ context.Context, section int, shown bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.shown[section] = shown
}

func TestRegistry(t *testing.T) {
	t.Cleanup(Reset)
	Reset()

	if _, ok := Grid().(NoopGridHooks); !ok {
		t.Errorf("default grid hooks = %T", Grid())
	}

	g := &countingGrid{shown: make(map[int]bool)}
	SetGridHooks(g)
	SetCacheHooks(&struct{ NoopCacheHooks }{})
	SetHTTPHooks(&struct{ NoopHTTPHooks }{})

	Grid().OnVisibility(context.Background(), 3, true)
	if !g.shown[3] {
		t.Error("registered grid hooks did not receive the event")
	}
	if _, ok := Cache().(NoopCacheHooks); ok {
		t.Error("cache hooks were not replaced")
	}
	if _, ok := HTTP().(NoopHTTPHooks); ok {
		t.Error("http hooks were not replaced")
	}

	Reset()
	if _, ok := Grid().(NoopGridHooks); !ok {
		t.Errorf("grid hooks after Reset = %T", Grid())
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("cache hooks after Reset = %T", Cache())
	}
}

func TestSetNilIsIgnored(t *testing.T) {
	t.Cleanup(Reset)

	g := &countingGrid{shown: make(map[int]bool)}
	SetGridHooks(g)
	SetGridHooks(nil)
	if Grid() != GridHooks(g) {
		t.Errorf("Grid() = %T after SetGridHooks(nil)", Grid())
	}
}

func TestConcurrentAccess(t *testing.T) {
	t.Cleanup(Reset)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				SetCacheHooks(NoopCacheHooks{})
				return
			}
			Cache().OnCacheHit(context.Background(), "page")
		}()
	}
	wg.Wait()
}
