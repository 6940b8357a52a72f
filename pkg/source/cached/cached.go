// Package cached puts a [cache.Cache] in front of any page source.
//
// Concurrent requests for the same page share one upstream load. Only
// complete, successfully decoded pages are stored; failures are never
// cached.
package cached

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/flashlight/pkg/cache"
	"github.com/matzehuels/flashlight/pkg/observability"
	"github.com/matzehuels/flashlight/pkg/source"
)

// DefaultTTL is the lifetime of cached pages.
const DefaultTTL = time.Hour

const keyType = "page"

// Options configures [New].
type Options struct {
	Keyer  cache.Keyer
	TTL    time.Duration
	Logger *log.Logger

	// Refresh skips cache reads but still writes fresh pages.
	Refresh bool
}

// Source wraps an inner source with a cache.
type Source struct {
	inner   source.Source
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	refresh bool
	logger  *log.Logger
	group   singleflight.Group
}

var _ source.Source = (*Source)(nil)

// New returns inner behind c. A nil c disables caching.
func New(inner source.Source, c cache.Cache, opts Options) *Source {
	if c == nil {
		c = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Source{
		inner:   inner,
		cache:   c,
		keyer:   opts.Keyer,
		ttl:     opts.TTL,
		refresh: opts.Refresh,
		logger:  opts.Logger,
	}
}

// Name returns the inner source's name.
func (s *Source) Name() string { return s.inner.Name() }

// Page implements [source.Source].
func (s *Source) Page(ctx context.Context, cursor string, limit int) (source.Page, error) {
	limit, err := source.ValidateLimit(limit)
	if err != nil {
		return source.Page{}, err
	}
	key := s.keyer.PageKey(s.inner.Name(), cursor, limit)
	hooks := observability.Cache()

	if !s.refresh {
		data, hit, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("cache read failed", "key", key, "err", err)
		}
		if hit {
			p, err := source.DecodePage(bytes.NewReader(data))
			if err == nil {
				hooks.OnCacheHit(ctx, keyType)
				return p, nil
			}
			s.logger.Warn("dropping unreadable cache entry", "key", key, "err", err)
			_ = s.cache.Delete(ctx, key)
		}
		hooks.OnCacheMiss(ctx, keyType)
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		p, err := s.inner.Page(ctx, cursor, limit)
		if err != nil {
			return source.Page{}, err
		}
		var buf bytes.Buffer
		if err := source.EncodePage(&buf, p); err == nil {
			if err := s.cache.Set(ctx, key, buf.Bytes(), s.ttl); err != nil {
				s.logger.Warn("cache write failed", "key", key, "err", err)
			} else {
				hooks.OnCacheSet(ctx, keyType, buf.Len())
			}
		}
		return p, nil
	})
	if err != nil {
		return source.Page{}, err
	}
	if shared {
		s.logger.Debug("shared page load", "source", s.inner.Name(), "cursor", cursor)
	}
	return clonePage(v.(source.Page)), nil
}

// clonePage copies the item slice so callers sharing a load do not alias.
func clonePage(p source.Page) source.Page {
	p.Items = append(p.Items[:0:0], p.Items...)
	return p
}
