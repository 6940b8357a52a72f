package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/matzehuels/flashlight/pkg/errors"
	"github.com/matzehuels/flashlight/pkg/grid/tile"
)

func items(n int) []tile.Item {
	out := make([]tile.Item, n)
	for i := range out {
		out[i] = tile.Item{ID: fmt.Sprintf("m%d", i), AspectRatio: 1, Kind: tile.KindImage}
	}
	return out
}

func TestPagination(t *testing.T) {
	src := New("test", items(7))
	ctx := context.Background()

	var (
		cursor string
		got    []string
		pages  int
	)
	for {
		p, err := src.Page(ctx, cursor, 3)
		if err != nil {
			t.Fatalf("Page(%q) error: %v", cursor, err)
		}
		pages++
		got = append(got, tile.IDs(p.Items)...)
		if p.Next == nil {
			break
		}
		cursor = *p.Next
	}
	if pages != 3 || len(got) != 7 || got[6] != "m6" {
		t.Errorf("pages = %d, ids = %v", pages, got)
	}
}

func TestPageErrors(t *testing.T) {
	src := New("test", items(3))
	tests := []struct {
		name   string
		cursor string
		limit  int
		code   errors.Code
	}{
		{"non-numeric cursor", "abc", 2, errors.ErrCodeInvalidCursor},
		{"negative cursor", "-1", 2, errors.ErrCodeInvalidCursor},
		{"past end", "9", 2, errors.ErrCodeInvalidCursor},
		{"bad limit", "", -5, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := src.Page(context.Background(), tt.cursor, tt.limit)
			if !errors.Is(err, tt.code) {
				t.Errorf("Page() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestEmptyAndCanceled(t *testing.T) {
	src := New("empty", nil)
	p, err := src.Page(context.Background(), "", 10)
	if err != nil || len(p.Items) != 0 || p.Next != nil {
		t.Errorf("Page(empty) = (%+v, %v)", p, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New("x", items(3)).Page(ctx, "", 1); err != context.Canceled {
		t.Errorf("Page(canceled) error = %v", err)
	}
	if got := src.Name(); got != "memory:empty" {
		t.Errorf("Name() = %q", got)
	}
}
