package cache

import "strconv"

// Keyer derives cache keys.
type Keyer interface {
	// PageKey identifies one page of a source.
	PageKey(source, cursor string, limit int) string
}

// DefaultKeyer hashes key components so keys are safe for every backend.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// PageKey returns "page:<sha256>" over the source, cursor and limit.
func (DefaultKeyer) PageKey(source, cursor string, limit int) string {
	return hashKey("page", source, cursor, strconv.Itoa(limit))
}

// ScopedKeyer prefixes every key of an inner keyer, so several datasets can
// share one backend without colliding.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, which defaults to [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// PageKey implements [Keyer].
func (k *ScopedKeyer) PageKey(source, cursor string, limit int) string {
	return k.prefix + k.inner.PageKey(source, cursor, limit)
}
