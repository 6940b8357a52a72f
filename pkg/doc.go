// Package pkg provides the libraries behind flashlight, a virtualized
// justified-grid engine for paginated media catalogues.
//
// # Overview
//
// Flashlight packs items of known aspect ratio into rows of equal height
// that fill the available width, groups rows into sections, and only keeps
// visuals mounted for sections inside the viewport. Pages are fetched on
// demand as the viewport approaches the end of the loaded content.
//
// The pkg directory is organized into three areas:
//
//  1. [grid] - The engine and its building blocks
//  2. [source] - Page sources the engine fetches from
//  3. Infrastructure - [cache], [httputil], [errors], [observability], [buildinfo]
//
// # Architecture
//
// The data flow through one engine:
//
//	Source (memory, SQLite, MongoDB, HTTP)
//	         ↓  source.Fetcher
//	    [grid/tile] (pack items into justified rows)
//	         ↓
//	    [grid/section] (batch rows, compute geometry)
//	         ↓
//	    [grid/viewport] (report sections entering and leaving the view)
//	         ↓
//	    [grid/render] (mount and unmount visuals by kind)
//
// Every state change runs on one goroutine through a [grid/frame] scheduler.
//
// # Quick Start
//
// Lay out a catalogue on an in-memory surface:
//
//	import (
//	    "github.com/matzehuels/flashlight/pkg/grid"
//	    "github.com/matzehuels/flashlight/pkg/grid/frame"
//	    "github.com/matzehuels/flashlight/pkg/grid/headless"
//	    "github.com/matzehuels/flashlight/pkg/source"
//	    "github.com/matzehuels/flashlight/pkg/source/memory"
//	)
//
//	items, _ := source.ImportJSONL("items.jsonl")
//	q := frame.NewQueue()
//	eng, _ := grid.New(grid.Config[string]{
//	    Fetcher:   source.Fetcher(memory.New("demo", items), 50),
//	    Renderer:  headless.NewRecorder(),
//	    Scheduler: q,
//	})
//	_ = eng.Attach(headless.NewSurface(1280, 800))
//	q.Flush()
//
// # Main Packages
//
// ## Grid
//
// [grid] - The engine: fetch driver, section commit, visibility, reflow on
// resize, and re-tiling on option changes.
//
//   - [grid/tile]: Row packing and justified row geometry
//   - [grid/section]: Fixed batches of rows that mount and unmount together
//   - [grid/viewport]: Crossing reports for section bounds against a viewport
//   - [grid/render]: Renderer contract and per-kind dispatch
//   - [grid/frame]: Single-goroutine task queue with frame batching
//   - [grid/headless]: In-memory surface and recording renderer
//
// ## Sources
//
// [source] - The page contract, JSON wire format, JSONL catalogues, and a
// synthetic catalogue generator.
//
//   - [source/memory]: Offset-paginated slice
//   - [source/sqlitesource]: Keyset pagination over SQLite
//   - [source/mongosource]: Keyset pagination over MongoDB
//   - [source/remote]: HTTP client for `flashlight serve`
//   - [source/cached]: Page cache in front of any source
//
// ## Infrastructure
//
// [cache] - Byte caches with TTL: Null, Memory, File, and Redis backends.
//
// [httputil] - Retry with backoff and HTTP status classification.
//
// [errors] - Coded errors and input validation.
//
// [observability] - Hook registry for engine, cache, and HTTP events.
//
// # Testing
//
// Run tests:
//
//	go test ./...                        # All tests
//	go test ./pkg/grid/...               # Engine only
//	go test -tags integration ./pkg/...  # Include Redis and MongoDB tests
//
// Integration tests read FLASHLIGHT_REDIS_ADDR and FLASHLIGHT_MONGO_URI.
package pkg
