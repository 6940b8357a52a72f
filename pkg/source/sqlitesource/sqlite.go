// Package sqlitesource serves pages from an SQLite database.
//
// Items live in one table:
//
//	CREATE TABLE items (
//	    seq          INTEGER PRIMARY KEY AUTOINCREMENT,
//	    id           TEXT NOT NULL UNIQUE,
//	    aspect_ratio REAL NOT NULL,
//	    kind         TEXT NOT NULL,
//	    payload      BLOB
//	)
//
// Pages are keyset-paginated on seq: the cursor is the seq of the last
// item of the previous page, so inserting rows while a client pages through
// never shifts or repeats items it has already seen.
package sqlitesource

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/flashlight/pkg/errors"
	"github.com/matzehuels/flashlight/pkg/grid/tile"
	"github.com/matzehuels/flashlight/pkg/source"
)

const schema = `
CREATE TABLE IF NOT EXISTS items (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL UNIQUE,
	aspect_ratio REAL NOT NULL,
	kind         TEXT NOT NULL,
	payload      BLOB
);
`

// Source is a [source.Source] backed by SQLite.
type Source struct {
	db   *sql.DB
	path string
}

var _ source.Source = (*Source)(nil)

// Open opens or creates the database at path and ensures the schema.
// Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string) (*Source, error) {
	dsn := path
	if path != ":memory:" {
		if err := errors.ValidatePath(path); err != nil {
			return nil, err
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Each connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Source{db: db, path: path}, nil
}

// Name implements [source.Source].
func (s *Source) Name() string { return "sqlite:" + s.path }

// Close closes the database.
func (s *Source) Close() error { return s.db.Close() }

// Seed appends items in one transaction and returns how many were written.
func (s *Source) Seed(ctx context.Context, items []tile.Item) (int, error) {
	if err := tile.ValidateItems(items); err != nil {
		return 0, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO items (id, aspect_ratio, kind, payload) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, it := range items {
		it = it.Normalize()
		var payload []byte
		if len(it.Payload) > 0 {
			payload = it.Payload
		}
		if _, err := stmt.ExecContext(ctx, it.ID, it.AspectRatio, string(it.Kind), payload); err != nil {
			return i, fmt.Errorf("insert %s: %w", it.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(items), nil
}

// Count returns the number of stored items.
func (s *Source) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n)
	return n, err
}

// Page implements [source.Source].
func (s *Source) Page(ctx context.Context, cursor string, limit int) (source.Page, error) {
	limit, err := source.ValidateLimit(limit)
	if err != nil {
		return source.Page{}, err
	}
	after, err := parseSeq(cursor)
	if err != nil {
		return source.Page{}, err
	}

	// One extra row tells whether another page exists.
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, id, aspect_ratio, kind, payload FROM items WHERE seq > ? ORDER BY seq LIMIT ?`,
		after, limit+1)
	if err != nil {
		return source.Page{}, errors.Wrap(errors.ErrCodeFetchFailed, err, "query items")
	}
	defer rows.Close()

	var (
		page source.Page
		seqs []int64
	)
	for rows.Next() {
		var (
			seq     int64
			it      tile.Item
			kind    string
			payload []byte
		)
		if err := rows.Scan(&seq, &it.ID, &it.AspectRatio, &kind, &payload); err != nil {
			return source.Page{}, errors.Wrap(errors.ErrCodeFetchFailed, err, "scan item")
		}
		it.Kind = tile.Kind(kind)
		if len(payload) > 0 {
			it.Payload = payload
		}
		page.Items = append(page.Items, it)
		seqs = append(seqs, seq)
	}
	if err := rows.Err(); err != nil {
		return source.Page{}, errors.Wrap(errors.ErrCodeFetchFailed, err, "read items")
	}

	if len(page.Items) > limit {
		page.Items = page.Items[:limit]
		page.Next = source.Next(strconv.FormatInt(seqs[limit-1], 10))
	}
	return page, nil
}

func parseSeq(cursor string) (int64, error) {
	if cursor == "" {
		return 0, nil
	}
	seq, err := strconv.ParseInt(cursor, 10, 64)
	if err != nil || seq < 0 {
		return 0, errors.New(errors.ErrCodeInvalidCursor, "invalid cursor %q", cursor)
	}
	return seq, nil
}
