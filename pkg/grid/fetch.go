package grid

import (
	"time"

	"github.com/matzehuels/flashlight/pkg/errors"
	"github.com/matzehuels/flashlight/pkg/grid/section"
	"github.com/matzehuels/flashlight/pkg/grid/tile"
	"github.com/matzehuels/flashlight/pkg/observability"
)

// Retry clears a fetch failure and requests the pending page again.
func (e *Engine[K]) Retry() {
	if e.st.err == nil {
		return
	}
	e.st.err = nil
	e.get()
}

// get starts a fetch for the pending key. At most one fetch is in flight.
func (e *Engine[K]) get() {
	st := &e.st
	if e.surface == nil || st.loading || st.key == nil || st.err != nil {
		return
	}
	st.loading = true

	key, epoch, ctx := *st.key, st.epoch, e.ctx
	observability.Grid().OnFetchStart(ctx, epoch)
	e.logger.Debug("fetching page", "epoch", epoch, "sections", len(st.sections))

	start := time.Now()
	go func() {
		page, err := e.fetcher.Fetch(ctx, key)
		e.sched.Post(func() {
			e.complete(epoch, page, err, time.Since(start))
		})
	}()
}

// complete applies a finished fetch. Results from an earlier epoch are
// dropped.
func (e *Engine[K]) complete(epoch uint64, page Page[K], err error, took time.Duration) {
	st := &e.st
	if e.surface == nil || epoch != st.epoch {
		observability.Grid().OnStale(e.ctx, epoch, st.epoch)
		e.logger.Debug("dropping stale page", "epoch", epoch, "current", st.epoch)
		return
	}

	if err == nil {
		err = tile.ValidateItems(page.Items)
	}
	var res tile.Result
	if err == nil {
		items := make([]tile.Item, 0, len(st.itemRem)+len(page.Items))
		items = append(items, st.itemRem...)
		for _, it := range page.Items {
			items = append(items, it.Normalize())
		}
		res, err = tile.Pack(items, st.opts.RowAspectRatioThreshold, page.Next != nil)
	}
	observability.Grid().OnFetchComplete(e.ctx, epoch, len(page.Items), took, err)
	if err != nil {
		e.fail(err)
		return
	}

	st.key = page.Next
	st.itemRem = res.Remainder
	rows := append(st.rowRem, res.Rows...)
	committed := e.commit(rows, st.key != nil)
	st.loading = false

	e.logger.Debug("page committed",
		"items", len(page.Items),
		"sections", committed,
		"height", st.height,
		"more", st.key != nil,
		"took", took)

	e.fill(committed)
}

// fill requests another page while the content is shorter than the
// container, or when a page produced no complete section.
func (e *Engine[K]) fill(committed int) {
	st := &e.st
	if st.height < st.containerHeight || (committed == 0 && st.key != nil) {
		e.get()
	}
}

func (e *Engine[K]) fail(err error) {
	st := &e.st
	st.loading = false
	st.err = errors.Wrap(errors.ErrCodeFetchFailed, err, "fetch page")
	e.logger.Warn("page fetch failed", "epoch", st.epoch, "err", err)
	if e.onError != nil {
		e.onError(st.err)
	}
}

// commit groups rows into sections and appends them below the existing
// content. When more pages exist an incomplete final group is held back as
// the row remainder. It returns the number of sections committed.
func (e *Engine[K]) commit(rows []tile.Row, hasMore bool) int {
	st := &e.st
	groups := section.Group(rows, e.rows)
	st.rowRem = nil
	if n := len(groups); hasMore && n > 0 && len(groups[n-1]) < e.rows {
		st.rowRem = append([]tile.Row(nil), groups[n-1]...)
		groups = groups[:n-1]
	}

	m := st.metrics()
	var added []*section.Section
	var nrows int
	for _, g := range groups {
		s := section.New(len(st.sections), g)
		s.Set(st.height, m)
		st.sections = append(st.sections, s)
		st.height += s.Height()
		added = append(added, s)
		nrows += len(g)
	}
	e.surface.SetContentHeight(st.height)
	for _, s := range added {
		e.observer.Observe(s)
	}

	if len(added) > 0 {
		observability.Grid().OnCommit(e.ctx, len(added), nrows, st.height)
	}
	return len(added)
}
