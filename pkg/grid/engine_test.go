package grid

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flashlight/pkg/errors"
	"github.com/matzehuels/flashlight/pkg/grid/frame"
	"github.com/matzehuels/flashlight/pkg/grid/headless"
	"github.com/matzehuels/flashlight/pkg/grid/tile"
	"github.com/matzehuels/flashlight/pkg/observability"
)

// =============================================================================
// Test helpers
// =============================================================================

func makeItems(n int, ar func(i int) float64) []tile.Item {
	items := make([]tile.Item, n)
	for i := range items {
		items[i] = tile.Item{ID: fmt.Sprintf("item-%03d", i), AspectRatio: ar(i), Kind: tile.KindImage}
	}
	return items
}

func square(int) float64 { return 1 }

// pager serves items in fixed-size pages keyed by offset.
type pager struct {
	items []tile.Item
	size  int

	mu          sync.Mutex
	keys        []int
	inflight    int
	maxInflight int
	failNext    error
}

func (p *pager) Fetch(_ context.Context, off int) (Page[int], error) {
	p.mu.Lock()
	p.keys = append(p.keys, off)
	p.inflight++
	p.maxInflight = max(p.maxInflight, p.inflight)
	err := p.failNext
	p.failNext = nil
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inflight--
		p.mu.Unlock()
	}()

	if err != nil {
		return Page[int]{}, err
	}
	end := min(off+p.size, len(p.items))
	page := Page[int]{Items: append([]tile.Item(nil), p.items[off:end]...)}
	if end < len(p.items) {
		page.Next = &end
	}
	return page, nil
}

func (p *pager) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

type harness struct {
	t    *testing.T
	q    *frame.Queue
	eng  *Engine[int]
	surf *headless.Surface
	rec  *headless.Recorder
}

func newHarness(t *testing.T, f Fetcher[int], width, height float64, configure func(*Config[int])) *harness {
	t.Helper()
	h := &harness{
		t:    t,
		q:    frame.NewQueue(),
		surf: headless.NewSurface(width, height),
		rec:  headless.NewRecorder(),
	}
	cfg := Config[int]{
		Fetcher:   f,
		Renderer:  h.rec,
		Scheduler: h.q,
		Logger:    log.New(io.Discard),
	}
	if configure != nil {
		configure(&cfg)
	}
	eng, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	h.eng = eng
	if err := eng.Attach(h.surf); err != nil {
		t.Fatalf("Attach() error: %v", err)
	}
	h.settle()
	return h
}

// settle drains the queue until no fetch is in flight.
func (h *harness) settle() {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		h.q.Flush()
		if h.eng.Status() != StatusLoading {
			return
		}
		if err := h.q.Wait(ctx); err != nil {
			h.t.Fatalf("engine did not settle: %v", err)
		}
	}
}

func (h *harness) scrollTo(top float64) {
	h.surf.ScrollTo(top)
	h.settle()
}

func rowIDs(e *Engine[int]) [][]string {
	var out [][]string
	for _, s := range e.Sections() {
		for _, r := range s.Rows() {
			out = append(out, tile.IDs(r.Items))
		}
	}
	return out
}

func committedIDs(e *Engine[int]) []string {
	var out []string
	for _, s := range e.Sections() {
		out = append(out, tile.IDs(s.Items())...)
	}
	return out
}

func rowsPerSection(n int) func(*Config[int]) {
	return func(c *Config[int]) { c.RowsPerSection = n }
}

// =============================================================================
// Construction and lifecycle
// =============================================================================

func TestNewValidatesConfig(t *testing.T) {
	p := &pager{size: 1}
	rec := headless.NewRecorder()
	q := frame.NewQueue()
	bad := Options{RowAspectRatioThreshold: 0, Margin: 3}

	tests := []struct {
		name string
		cfg  Config[int]
		code errors.Code
	}{
		{"missing fetcher", Config[int]{Renderer: rec, Scheduler: q}, errors.ErrCodeInvalidInput},
		{"missing renderer", Config[int]{Fetcher: p, Scheduler: q}, errors.ErrCodeInvalidInput},
		{"missing scheduler", Config[int]{Fetcher: p, Renderer: rec}, errors.ErrCodeInvalidInput},
		{"bad threshold", Config[int]{Fetcher: p, Renderer: rec, Scheduler: q, Options: &bad}, errors.ErrCodeInvalidOptions},
		{"negative rows", Config[int]{Fetcher: p, Renderer: rec, Scheduler: q, RowsPerSection: -1}, errors.ErrCodeInvalidOptions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if !errors.Is(err, tt.code) {
				t.Errorf("New() error = %v, want code %s", err, tt.code)
			}
		})
	}

	eng, err := New(Config[int]{Fetcher: p, Renderer: rec, Scheduler: q})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if got := eng.Options(); got != DefaultOptions() {
		t.Errorf("Options() = %+v, want defaults", got)
	}
	if eng.IsAttached() {
		t.Error("new engine reports attached")
	}
}

func TestAttachFillsViewport(t *testing.T) {
	p := &pager{items: makeItems(100, square), size: 10}
	h := newHarness(t, p, 1000, 600, rowsPerSection(2))

	// Two pages fill 600px; the second section is then visible and close to
	// the end, which asks for one more.
	if got := p.calls(); got != 3 {
		t.Errorf("fetches = %d, want 3", got)
	}
	if got := len(h.eng.Sections()); got != 3 {
		t.Fatalf("sections = %d, want 3", got)
	}
	if got := h.eng.Status(); got != StatusIdle {
		t.Errorf("Status() = %v, want idle", got)
	}
	if got := h.surf.Visible(); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("visible = %v, want [0 1]", got)
	}
	if got := h.rec.Len(); got != 20 {
		t.Errorf("mounted = %d, want 20", got)
	}

	wantHeight := 3 * 2 * ((1000.0-12)/5 + 3)
	if math.Abs(h.eng.Height()-wantHeight) > 1e-9 {
		t.Errorf("Height() = %v, want %v", h.eng.Height(), wantHeight)
	}
	if h.surf.ContentHeight() != h.eng.Height() {
		t.Errorf("content height = %v, want %v", h.surf.ContentHeight(), h.eng.Height())
	}
}

func TestAttachDetach(t *testing.T) {
	p := &pager{items: makeItems(30, square), size: 30}
	h := newHarness(t, p, 1000, 600, nil)

	if err := h.eng.Attach(h.surf); !errors.Is(err, errors.ErrCodeAlreadyAttached) {
		t.Errorf("second Attach() error = %v, want ALREADY_ATTACHED", err)
	}
	if h.rec.Len() == 0 {
		t.Fatal("nothing mounted after attach")
	}

	if err := h.eng.Detach(); err != nil {
		t.Fatalf("Detach() error: %v", err)
	}
	if h.eng.IsAttached() {
		t.Error("IsAttached() = true after Detach")
	}
	if h.rec.Len() != 0 {
		t.Errorf("mounted = %d after Detach, want 0", h.rec.Len())
	}
	if err := h.eng.Detach(); !errors.Is(err, errors.ErrCodeNotAttached) {
		t.Errorf("second Detach() error = %v, want NOT_ATTACHED", err)
	}
	if err := h.eng.Reset(); !errors.Is(err, errors.ErrCodeNotAttached) {
		t.Errorf("Reset() while detached error = %v, want NOT_ATTACHED", err)
	}

	if err := h.eng.Attach(h.surf); err != nil {
		t.Fatalf("re-Attach() error: %v", err)
	}
	h.settle()
	if got := committedIDs(h.eng); !reflect.DeepEqual(got, tile.IDs(p.items)) {
		t.Errorf("after re-attach got %d items, want %d", len(got), len(p.items))
	}
}

// =============================================================================
// Fetch driver
// =============================================================================

func TestFinalPageEmitsUnderfilledRow(t *testing.T) {
	p := &pager{items: makeItems(7, square), size: 7}
	h := newHarness(t, p, 1000, 600, nil)

	if got := h.eng.Status(); got != StatusExhausted {
		t.Fatalf("Status() = %v, want exhausted", got)
	}
	secs := h.eng.Sections()
	if len(secs) != 1 {
		t.Fatalf("sections = %d, want 1", len(secs))
	}
	rows := secs[0].Rows()
	if len(rows) != 2 || len(rows[0].Items) != 5 || len(rows[1].Items) != 2 {
		t.Fatalf("rows = %v, want [5 2]", rowIDs(h.eng))
	}
	if !rows[0].Justified || rows[1].Justified {
		t.Errorf("justified = [%v %v], want [true false]", rows[0].Justified, rows[1].Justified)
	}
	if snap := h.eng.Snapshot(); snap.Pending != 0 || snap.ItemCount != 7 {
		t.Errorf("snapshot pending = %d, items = %d", snap.Pending, snap.ItemCount)
	}
}

func TestFetchesAgainWhenNothingCommitted(t *testing.T) {
	// A zero-height viewport never asks for more on its own.
	p := &pager{items: makeItems(6, square), size: 3}
	h := newHarness(t, p, 1000, 0, nil)

	if got := p.calls(); got != 2 {
		t.Errorf("fetches = %d, want 2", got)
	}
	if got := h.eng.Status(); got != StatusExhausted {
		t.Errorf("Status() = %v, want exhausted", got)
	}
	if got := rowIDs(h.eng); len(got) != 2 || len(got[0]) != 5 || len(got[1]) != 1 {
		t.Errorf("rows = %v, want [5 1]", got)
	}
}

func TestScrollToEndLoadsEverythingOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	items := makeItems(137, func(int) float64 { return 0.5 + 2*rng.Float64() })
	p := &pager{items: items, size: 16}
	h := newHarness(t, p, 1000, 500, rowsPerSection(3))

	for i := 0; h.eng.Status() != StatusExhausted; i++ {
		if i > 500 {
			t.Fatalf("did not exhaust; status %v, err %v", h.eng.Status(), h.eng.Err())
		}
		h.scrollTo(h.surf.ContentHeight())
	}

	if got := committedIDs(h.eng); !reflect.DeepEqual(got, tile.IDs(items)) {
		t.Errorf("committed %d items out of order or with losses, want %d", len(got), len(items))
	}
	if p.maxInflight != 1 {
		t.Errorf("max concurrent fetches = %d, want 1", p.maxInflight)
	}
	for i, k := range p.keys {
		if k != i*16 {
			t.Errorf("fetch %d used key %d, want %d", i, k, i*16)
		}
	}
	if snap := h.eng.Snapshot(); snap.Pending != 0 {
		t.Errorf("pending = %d after exhaustion, want 0", snap.Pending)
	}
}

func TestRepeatedTriggersIssueOneFetch(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var calls int
	f := FetcherFunc[int](func(ctx context.Context, key int) (Page[int], error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return Page[int]{Items: makeItems(10, square)}, nil
	})

	q := frame.NewQueue()
	eng, err := New(Config[int]{Fetcher: f, Renderer: headless.NewRecorder(), Scheduler: q, Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatal(err)
	}
	surf := headless.NewSurface(1000, 600)
	if err := eng.Attach(surf); err != nil {
		t.Fatal(err)
	}
	for range 10 {
		eng.get()
		eng.Retry()
		surf.ScrollBy(10)
		q.Flush()
	}
	if got := eng.Status(); got != StatusLoading {
		t.Errorf("Status() = %v, want loading", got)
	}
	close(release)

	h := &harness{t: t, q: q, eng: eng, surf: surf}
	h.settle()
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("fetches = %d, want 1", calls)
	}
}

func TestFetchFailureIsSurfaced(t *testing.T) {
	p := &pager{items: makeItems(30, square), size: 30, failNext: fmt.Errorf("connection refused")}
	var reported []error
	h := newHarness(t, p, 1000, 600, func(c *Config[int]) {
		c.OnError = func(err error) { reported = append(reported, err) }
	})

	if got := h.eng.Status(); got != StatusFailed {
		t.Fatalf("Status() = %v, want failed", got)
	}
	if !errors.Is(h.eng.Err(), errors.ErrCodeFetchFailed) {
		t.Errorf("Err() = %v, want FETCH_FAILED", h.eng.Err())
	}
	if len(reported) != 1 {
		t.Errorf("OnError calls = %d, want 1", len(reported))
	}

	// Nothing retries on its own.
	h.eng.get()
	h.scrollTo(100)
	if got := p.calls(); got != 1 {
		t.Errorf("fetches after failure = %d, want 1", got)
	}

	h.eng.Retry()
	h.settle()
	if got := h.eng.Status(); got != StatusExhausted {
		t.Errorf("Status() after Retry = %v, want exhausted", got)
	}
	if h.eng.Err() != nil {
		t.Errorf("Err() after Retry = %v", h.eng.Err())
	}
	if got := len(committedIDs(h.eng)); got != 30 {
		t.Errorf("committed = %d, want 30", got)
	}
}

func TestMalformedPageDoesNotAdvance(t *testing.T) {
	var keys []int
	good := makeItems(6, square)
	f := FetcherFunc[int](func(_ context.Context, key int) (Page[int], error) {
		keys = append(keys, key)
		if len(keys) == 1 {
			return Page[int]{Items: []tile.Item{{ID: "bad", AspectRatio: 0}}, Next: new(int)}, nil
		}
		return Page[int]{Items: good}, nil
	})
	h := newHarness(t, f, 1000, 600, nil)

	if !errors.Is(h.eng.Err(), errors.ErrCodeInvalidItem) {
		t.Fatalf("Err() = %v, want INVALID_ITEM", h.eng.Err())
	}
	if len(h.eng.Sections()) != 0 {
		t.Error("malformed page committed sections")
	}

	h.eng.Retry()
	h.settle()
	if !reflect.DeepEqual(keys, []int{0, 0}) {
		t.Errorf("keys = %v, want [0 0]", keys)
	}
	if got := committedIDs(h.eng); !reflect.DeepEqual(got, tile.IDs(good)) {
		t.Errorf("committed = %v", got)
	}
}

func TestItemKindDefaultsToImage(t *testing.T) {
	items := makeItems(5, square)
	for i := range items {
		items[i].Kind = ""
	}
	h := newHarness(t, &pager{items: items, size: 5}, 1000, 600, nil)
	for _, it := range h.eng.Sections()[0].Items() {
		if it.Kind != tile.KindImage {
			t.Errorf("%s kind = %q, want image", it.ID, it.Kind)
		}
	}
}

// =============================================================================
// Reset and stale results
// =============================================================================

func TestResetDropsStaleResults(t *testing.T) {
	started := make(chan struct{})
	canceled := make(chan struct{})
	var mu sync.Mutex
	var calls int
	f := FetcherFunc[int](func(ctx context.Context, key int) (Page[int], error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(started)
			<-ctx.Done()
			close(canceled)
			return Page[int]{}, ctx.Err()
		}
		return Page[int]{Items: makeItems(10, square)}, nil
	})

	q := frame.NewQueue()
	eng, err := New(Config[int]{Fetcher: f, Renderer: headless.NewRecorder(), Scheduler: q, Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatal(err)
	}
	surf := headless.NewSurface(1000, 600)
	if err := eng.Attach(surf); err != nil {
		t.Fatal(err)
	}
	stale := eng.st.epoch
	<-started

	if err := eng.Reset(); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	h := &harness{t: t, q: q, eng: eng, surf: surf}
	h.settle()
	<-canceled

	// The canceled fetch posts its error after returning.
	deadline := time.Now().Add(2 * time.Second)
	for q.Pending() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	q.Flush()

	if eng.Err() != nil {
		t.Errorf("Err() = %v, want stale failure dropped", eng.Err())
	}
	before := committedIDs(eng)
	eng.complete(stale, Page[int]{Items: []tile.Item{{ID: "stale", AspectRatio: 1}}}, nil, 0)
	if got := committedIDs(eng); !reflect.DeepEqual(got, before) {
		t.Errorf("stale page changed layout: %v", got)
	}
	if len(before) != 10 {
		t.Errorf("committed = %d, want 10", len(before))
	}
}

func TestResetReloadsFromInitialKey(t *testing.T) {
	p := &pager{items: makeItems(200, square), size: 50}
	h := newHarness(t, p, 1000, 100, rowsPerSection(2))
	h.scrollTo(1500)
	if err := h.eng.Reset(); err != nil {
		t.Fatal(err)
	}
	h.settle()

	if h.surf.ScrollTop() != 0 {
		t.Errorf("ScrollTop() = %v after Reset, want 0", h.surf.ScrollTop())
	}
	if last := p.keys[len(p.keys)-1]; last != 0 {
		t.Errorf("last key = %d, want 0", last)
	}
	if got := len(committedIDs(h.eng)); got != 50 {
		t.Errorf("committed = %d, want 50", got)
	}
}

// =============================================================================
// Visibility
// =============================================================================

func TestScrollShowsAndHidesSections(t *testing.T) {
	p := &pager{items: makeItems(50, square), size: 50}
	h := newHarness(t, p, 1000, 100, rowsPerSection(2))
	secs := h.eng.Sections()

	if !secs[0].Shown() || secs[1].Shown() {
		t.Fatal("expected only section 0 shown")
	}
	top, _ := secs[2].Bounds()
	h.scrollTo(top + 10)
	if secs[0].Shown() || !secs[2].Shown() {
		t.Errorf("after scroll shown = [%v %v %v]", secs[0].Shown(), secs[1].Shown(), secs[2].Shown())
	}
	for _, it := range secs[0].Items() {
		if h.rec.Mounted(it.ID) {
			t.Errorf("%s still mounted", it.ID)
		}
	}
}

type hookRecorder struct {
	observability.NoopGridHooks
	mu     sync.Mutex
	shown  []int
	hidden []int
	stale  int
}

func (r *hookRecorder) OnVisibility(_ context.Context, section int, shown bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if shown {
		r.shown = append(r.shown, section)
	} else {
		r.hidden = append(r.hidden, section)
	}
}

func (r *hookRecorder) OnStale(context.Context, uint64, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale++
}

func TestVisibilityAndStaleHooks(t *testing.T) {
	rec := &hookRecorder{}
	observability.SetGridHooks(rec)
	t.Cleanup(observability.Reset)

	p := &pager{items: makeItems(50, square), size: 50}
	h := newHarness(t, p, 1000, 100, rowsPerSection(2))
	top, _ := h.eng.Sections()[2].Bounds()
	h.scrollTo(top + 10)

	if !reflect.DeepEqual(rec.shown, []int{0, 2}) {
		t.Errorf("shown = %v, want [0 2]", rec.shown)
	}
	if !reflect.DeepEqual(rec.hidden, []int{0}) {
		t.Errorf("hidden = %v, want [0]", rec.hidden)
	}

	h.eng.complete(h.eng.st.epoch-1, Page[int]{}, nil, 0)
	if rec.stale != 1 {
		t.Errorf("stale = %d, want 1", rec.stale)
	}
}

func TestUpdateItemsRevealsOnce(t *testing.T) {
	p := &pager{items: makeItems(50, square), size: 50}
	h := newHarness(t, p, 1000, 100, rowsPerSection(2))
	secs := h.eng.Sections()

	seen := map[string]int{}
	h.eng.UpdateItems(func(id string) { seen[id]++ })
	h.settle()
	for _, it := range secs[0].Items() {
		if seen[it.ID] != 1 {
			t.Errorf("%s updated %d times, want 1", it.ID, seen[it.ID])
		}
	}

	top2, _ := secs[2].Bounds()
	for range 3 {
		h.scrollTo(top2 + 10)
		h.scrollTo(0)
	}
	for i, s := range secs {
		want := 0
		if i == 0 || i == 2 {
			want = 1
		}
		for _, it := range s.Items() {
			if seen[it.ID] != want {
				t.Errorf("section %d %s updated %d times, want %d", i, it.ID, seen[it.ID], want)
			}
		}
	}
}

func TestUpdaterSurvivesReset(t *testing.T) {
	p := &pager{items: makeItems(50, square), size: 50}
	h := newHarness(t, p, 1000, 100, rowsPerSection(2))

	seen := map[string]int{}
	h.eng.UpdateItems(func(id string) { seen[id]++ })
	h.settle()
	if err := h.eng.Reset(); err != nil {
		t.Fatal(err)
	}
	h.settle()

	secs := h.eng.Sections()
	if len(secs) == 0 || !secs[0].Shown() {
		t.Fatal("first section not shown after reset")
	}
	for _, it := range secs[0].Items() {
		if seen[it.ID] != 2 {
			t.Errorf("%s updated %d times, want 2", it.ID, seen[it.ID])
		}
	}
}

func TestUpdaterRegisteredBeforeAttach(t *testing.T) {
	q := frame.NewQueue()
	surf := headless.NewSurface(1000, 100)
	eng, err := New(Config[int]{
		Fetcher:        &pager{items: makeItems(50, square), size: 50},
		Renderer:       headless.NewRecorder(),
		Scheduler:      q,
		Logger:         log.New(io.Discard),
		RowsPerSection: 2,
	})
	if err != nil {
		t.Fatal(err)
	}

	seen := map[string]int{}
	eng.UpdateItems(func(id string) { seen[id]++ })
	if err := eng.Attach(surf); err != nil {
		t.Fatal(err)
	}
	if err := eng.Detach(); err != nil {
		t.Fatal(err)
	}
	if err := eng.Attach(surf); err != nil {
		t.Fatal(err)
	}
	h := &harness{t: t, q: q, eng: eng, surf: surf}
	h.settle()

	secs := eng.Sections()
	if len(secs) == 0 || !secs[0].Shown() {
		t.Fatal("first section not shown")
	}
	for _, it := range secs[0].Items() {
		if seen[it.ID] != 1 {
			t.Errorf("%s updated %d times, want 1", it.ID, seen[it.ID])
		}
	}
}

func TestRenderFailureKeepsSection(t *testing.T) {
	items := makeItems(10, square)
	p := &pager{items: items, size: 10}
	h := newHarness(t, p, 1000, 600, func(c *Config[int]) {
		rec := headless.NewRecorder()
		rec.Fail = func(it tile.Item) error {
			if it.ID == items[3].ID {
				return fmt.Errorf("decode failed")
			}
			return nil
		}
		c.Renderer = rec
	})

	secs := h.eng.Sections()
	if len(secs) != 1 || !secs[0].Shown() {
		t.Fatal("section not shown")
	}
	if h.eng.Err() != nil {
		t.Errorf("render failure surfaced as fetch error: %v", h.eng.Err())
	}
}

// =============================================================================
// Reflow
// =============================================================================

func TestResizeRescalesAndAnchors(t *testing.T) {
	p := &pager{items: makeItems(200, square), size: 50}
	h := newHarness(t, p, 1000, 100, rowsPerSection(2))
	before := rowIDs(h.eng)

	top, height := h.eng.Sections()[2].Bounds()
	h.scrollTo(top + 0.25*height)
	moves := h.rec.Moves

	h.eng.Resize(1000) // attach-time report
	h.settle()
	if h.rec.Moves != moves {
		t.Fatal("attach-time resize report caused a reflow")
	}

	h.surf.SetSize(800, 100)
	h.eng.Resize(900)
	h.eng.Resize(800)
	h.settle()

	if got := rowIDs(h.eng); !reflect.DeepEqual(got, before) {
		t.Error("row membership changed on resize")
	}
	wantH := (800.0 - 12) / 5
	for _, s := range h.eng.Sections() {
		for _, pl := range s.Placements() {
			if math.Abs(pl.Rect.Width-wantH) > 1e-9 || math.Abs(pl.Rect.Height-wantH) > 1e-9 {
				t.Fatalf("%s rect = %+v, want %vx%v", pl.Item.ID, pl.Rect, wantH, wantH)
			}
		}
	}

	newTop, newHeight := h.eng.Sections()[2].Bounds()
	if want := newTop + 0.25*newHeight; math.Abs(h.surf.ScrollTop()-want) > 1e-9 {
		t.Errorf("ScrollTop() = %v, want %v", h.surf.ScrollTop(), want)
	}
	if got := h.rec.Moves - moves; got != 10 {
		t.Errorf("moved %d visuals, want 10", got)
	}
	if want := 5 * 2 * (wantH + 3); math.Abs(h.surf.ContentHeight()-want) > 1e-9 {
		t.Errorf("content height = %v, want %v", h.surf.ContentHeight(), want)
	}
}

func TestUpdateOptionsRetiles(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	items := makeItems(60, func(int) float64 { return 0.5 + 2*rng.Float64() })
	h := newHarness(t, &pager{items: items, size: 60}, 1000, 600, nil)
	original := rowIDs(h.eng)

	three := 3.0
	if err := h.eng.UpdateOptions(OptionsPatch{RowAspectRatioThreshold: &three}); err != nil {
		t.Fatal(err)
	}
	h.settle()
	if h.eng.Options().RowAspectRatioThreshold != 3 {
		t.Fatalf("threshold = %v, want 3", h.eng.Options().RowAspectRatioThreshold)
	}
	for _, s := range h.eng.Sections() {
		for _, r := range s.Rows() {
			if r.Justified && r.AspectSum() < 3 {
				t.Errorf("row sum %v below new threshold", r.AspectSum())
			}
		}
	}

	five := 5.0
	if err := h.eng.UpdateOptions(OptionsPatch{RowAspectRatioThreshold: &five}); err != nil {
		t.Fatal(err)
	}
	h.settle()
	if got := rowIDs(h.eng); !reflect.DeepEqual(got, original) {
		t.Error("re-tile with original options changed the partition")
	}
	if got := committedIDs(h.eng); !reflect.DeepEqual(got, tile.IDs(items)) {
		t.Error("re-tile lost or reordered items")
	}
}

func TestUpdateOptionsValidation(t *testing.T) {
	h := newHarness(t, &pager{items: makeItems(10, square), size: 10}, 1000, 600, nil)

	neg := -1.0
	if err := h.eng.UpdateOptions(OptionsPatch{Margin: &neg}); !errors.Is(err, errors.ErrCodeInvalidOptions) {
		t.Errorf("UpdateOptions(margin=-1) error = %v, want INVALID_OPTIONS", err)
	}
	same := 3.0
	if err := h.eng.UpdateOptions(OptionsPatch{Margin: &same}); err != nil {
		t.Errorf("UpdateOptions(same) error = %v", err)
	}
	if n := h.q.Pending(); n != 0 {
		t.Errorf("unchanged options queued %d tasks", n)
	}
}

func TestQueuedOptionsSettleOnDetach(t *testing.T) {
	h := newHarness(t, &pager{items: makeItems(40, square), size: 40}, 1000, 600, nil)

	seven, nine := 7.0, 9.0
	if err := h.eng.UpdateOptions(OptionsPatch{RowAspectRatioThreshold: &seven}); err != nil {
		t.Fatal(err)
	}
	if err := h.eng.Detach(); err != nil {
		t.Fatal(err)
	}
	h.q.Flush()
	if got := h.eng.Options().RowAspectRatioThreshold; got != 7 {
		t.Errorf("threshold after detach = %v, want 7", got)
	}

	if err := h.eng.UpdateOptions(OptionsPatch{RowAspectRatioThreshold: &nine}); err != nil {
		t.Fatal(err)
	}
	if err := h.eng.Attach(h.surf); err != nil {
		t.Fatal(err)
	}
	h.settle()
	if got := h.eng.Options().RowAspectRatioThreshold; got != 9 {
		t.Fatalf("threshold after re-attach = %v, want 9", got)
	}
	for _, s := range h.eng.Sections() {
		for _, r := range s.Rows() {
			if r.Justified && r.AspectSum() < 9 {
				t.Errorf("row sum %v below threshold 9", r.AspectSum())
			}
		}
	}
}

func TestQueuedOptionsApplyOnReset(t *testing.T) {
	h := newHarness(t, &pager{items: makeItems(40, square), size: 40}, 1000, 600, nil)

	seven := 7.0
	if err := h.eng.UpdateOptions(OptionsPatch{RowAspectRatioThreshold: &seven}); err != nil {
		t.Fatal(err)
	}
	if err := h.eng.Reset(); err != nil {
		t.Fatal(err)
	}
	h.settle()
	if got := h.eng.Options().RowAspectRatioThreshold; got != 7 {
		t.Errorf("threshold after reset = %v, want 7", got)
	}
	if got := committedIDs(h.eng); len(got) != 40 {
		t.Errorf("committed %d items after reset, want 40", len(got))
	}
}

func TestFailedRetileKeepsLayout(t *testing.T) {
	h := newHarness(t, &pager{items: makeItems(30, square), size: 30}, 1000, 600, nil)
	before := rowIDs(h.eng)
	mounted := h.rec.Len()
	opts := h.eng.Options()

	bad := opts
	bad.RowAspectRatioThreshold = 0
	h.eng.retile(bad)

	if got := rowIDs(h.eng); !reflect.DeepEqual(got, before) {
		t.Error("failed re-tile changed the rows")
	}
	if h.rec.Len() != mounted {
		t.Errorf("mounted = %d after failed re-tile, want %d", h.rec.Len(), mounted)
	}
	if h.eng.Options() != opts {
		t.Errorf("options = %+v after failed re-tile, want %+v", h.eng.Options(), opts)
	}
}

func TestRetileKeepsRemainders(t *testing.T) {
	p := &pager{items: makeItems(30, square), size: 23}
	h := newHarness(t, p, 1000, 0, rowsPerSection(2))

	if got := h.eng.Snapshot().Pending; got != 3 {
		t.Fatalf("pending = %d, want 3", got)
	}
	four := 4.0
	if err := h.eng.UpdateOptions(OptionsPatch{RowAspectRatioThreshold: &four}); err != nil {
		t.Fatal(err)
	}
	h.settle()

	snap := h.eng.Snapshot()
	if snap.ItemCount != 16 || snap.Pending != 7 {
		t.Errorf("items = %d, pending = %d, want 16 and 7", snap.ItemCount, snap.Pending)
	}
	if got := h.eng.Status(); got != StatusIdle {
		t.Errorf("Status() = %v, want idle", got)
	}
}
