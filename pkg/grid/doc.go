// Package grid implements a virtualized justified-grid tiling engine.
//
// An [Engine] pulls pages of variable-aspect-ratio items from a [Fetcher],
// packs them into rows that exactly fill the container width, groups rows
// into sections, and mounts only the sections that intersect the viewport.
// When the viewport nears the end of the loaded content the engine fetches
// the next page.
//
// # Pipeline
//
// Each completed page flows through the same steps:
//
//	Fetcher → tile.Pack → section.Group → Section.Set → Observer.Observe
//
// Items that do not close a row while more pages exist are carried into the
// next page as the item remainder. Rows that do not fill a whole section are
// carried as the row remainder. Nothing is dropped: once the data is
// exhausted both remainders are committed.
//
// # Threading
//
// The engine is single-writer. Every state mutation runs as a task on the
// [frame.Scheduler] given in [Config]. Fetches run on their own goroutine
// and post their result back; viewport crossings are posted too. All
// exported methods must be called from the goroutine that drains the
// scheduler.
//
// A typical standalone host:
//
//	q := frame.NewQueue()
//	eng, err := grid.New(grid.Config[int]{
//	    Fetcher:   src,
//	    Renderer:  renderer,
//	    Scheduler: q,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := eng.Attach(surface); err != nil {
//	    return err
//	}
//	return q.Run(ctx, frame.DefaultInterval)
//
// # Lifecycle
//
// [Engine.Attach] measures the [Surface] and issues the first fetch.
// [Engine.Reset] discards the layout and starts again from the initial key;
// pages still in flight from before the reset are ignored.
// [Engine.Detach] releases every mounted visual and the observer.
//
// # Reflow
//
// [Engine.Resize] keeps row membership and recomputes geometry, keeping the
// viewport at the same relative position in the active section.
// [Engine.UpdateOptions] re-packs every loaded item with the new options.
//
// # Failures
//
// A failed or malformed page leaves the engine in [StatusFailed] with the
// error available from [Engine.Err]. Nothing is retried until the host calls
// [Engine.Retry].
package grid
