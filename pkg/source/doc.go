// Package source defines paginated item sources for the grid engine.
//
// A [Source] serves pages of items addressed by opaque string cursors. The
// empty cursor is the first page; a page with a nil Next is the last one.
// [Fetcher] binds a source and a page size to the engine's fetch contract.
//
// # Implementations
//
//   - memory: a slice, cursor is the offset
//   - sqlitesource: an SQLite table, keyset-paginated on its sequence column
//   - mongosource: a MongoDB collection, keyset-paginated on its seq field
//   - remote: the HTTP API served by the serve command
//   - cached: any source behind a [cache.Cache]
//
// # Wire format
//
// Pages travel as JSON objects:
//
//	{
//	  "items": [
//	    {"id": "a1", "aspect_ratio": 1.5, "kind": "image"},
//	    {"id": "a2", "aspect_ratio": 0.75, "kind": "video", "payload": {"src": "..."}}
//	  ],
//	  "next": "2"
//	}
//
// Item files use JSON Lines, one item object per line. See [ReadJSONL] and
// [WriteJSONL].
//
// [cache.Cache]: github.com/matzehuels/flashlight/pkg/cache.Cache
package source
