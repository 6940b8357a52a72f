package cache

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = (%q, %v, %v), want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

// exercise runs the behavior every backend shares.
func exercise(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Errorf("Get(missing) = (%v, %v), want miss", hit, err)
	}
	if err := c.Set(ctx, "page:1", []byte(`{"items":[]}`), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "page:1")
	if err != nil || !hit || string(data) != `{"items":[]}` {
		t.Errorf("Get(page:1) = (%q, %v, %v)", data, hit, err)
	}
	if err := c.Set(ctx, "page:1", []byte("v2"), 0); err != nil {
		t.Fatalf("overwrite error: %v", err)
	}
	if data, _, _ := c.Get(ctx, "page:1"); string(data) != "v2" {
		t.Errorf("after overwrite Get = %q, want v2", data)
	}
	if err := c.Delete(ctx, "page:1"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "page:1"); hit {
		t.Error("Get after Delete hit")
	}
	if err := c.Delete(ctx, "page:1"); err != nil {
		t.Errorf("Delete(missing) error: %v", err)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	exercise(t, c)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()
	if err := c.Set(ctx, "ttl", []byte("x"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "ttl"); !hit {
		t.Error("fresh entry missed")
	}
	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "ttl"); hit {
		t.Error("expired entry hit")
	}

	c.Close()
	if _, _, err := c.Get(ctx, "ttl"); err != ErrClosed {
		t.Errorf("Get after Close error = %v, want ErrClosed", err)
	}
}

func TestMemoryCacheCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	buf := []byte("abc")
	_ = c.Set(ctx, "k", buf, 0)
	buf[0] = 'x'
	got, _, _ := c.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("Get = %q, want abc", got)
	}
	got[0] = 'y'
	again, _, _ := c.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value changed through returned slice: %q", again)
	}
}

func TestFileCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pages")
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", c.Dir(), dir)
	}
	exercise(t, c)

	ctx := context.Background()
	if err := c.Set(ctx, "expired", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "expired"); hit {
		t.Error("expired entry hit")
	}

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Errorf("Clear() = (%d, %v), want 3", n, err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	base := k.PageKey("sqlite:items.db", "40", 20)
	if !strings.HasPrefix(base, "page:") {
		t.Errorf("PageKey = %q, want page: prefix", base)
	}
	if base != k.PageKey("sqlite:items.db", "40", 20) {
		t.Error("PageKey should be deterministic")
	}

	tests := []struct {
		name           string
		source, cursor string
		limit          int
	}{
		{"other source", "mongo:items", "40", 20},
		{"other cursor", "sqlite:items.db", "60", 20},
		{"other limit", "sqlite:items.db", "40", 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if k.PageKey(tt.source, tt.cursor, tt.limit) == base {
				t.Error("expected a different key")
			}
		})
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "dataset:birds:")
	key := scoped.PageKey("memory", "", 10)
	want := "dataset:birds:" + NewDefaultKeyer().PageKey("memory", "", 10)
	if key != want {
		t.Errorf("PageKey = %q, want %q", key, want)
	}
}
