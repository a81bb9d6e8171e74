package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultCacheTTL     = 10 * time.Minute
	cacheCleanupMinutes = 30
	catalogCacheKey     = "catalog"
)

// Source provides a catalog for a single selection. Implementations never
// fail: unavailable data is reported as an empty catalog.
type Source interface {
	Load(ctx context.Context) *Catalog
}

// FileSource reads the CSV file again on every Load.
type FileSource struct {
	path string
	log  *slog.Logger
}

// NewFileSource returns a source backed by the CSV file at path.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	return &FileSource{path: path, log: logger}
}

// Load reads the file. A missing or unreadable file yields an empty catalog.
func (s *FileSource) Load(_ context.Context) *Catalog {
	return LoadFile(s.path, s.log)
}

// CachedSource memoizes the catalog of another source until the TTL expires
// or Refresh is called.
type CachedSource struct {
	source Source
	cache  *cache.Cache
	log    *slog.Logger
}

// NewCachedSource wraps source. A zero ttl uses DefaultCacheTTL.
func NewCachedSource(source Source, ttl time.Duration, logger *slog.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedSource{
		source: source,
		cache:  cache.New(ttl, cacheCleanupMinutes*time.Minute),
		log:    logger,
	}
}

// Load returns the memoized catalog, loading it from the wrapped source
// when the cache is empty or expired.
func (s *CachedSource) Load(ctx context.Context) *Catalog {
	if cached, found := s.cache.Get(catalogCacheKey); found {
		s.log.Debug("Using cached catalog", "key", catalogCacheKey)
		return cached.(*Catalog)
	}

	c := s.source.Load(ctx)
	s.cache.Set(catalogCacheKey, c, cache.DefaultExpiration)
	return c
}

// Refresh drops the memoized catalog so the next Load reads the source again.
func (s *CachedSource) Refresh() {
	s.cache.Delete(catalogCacheKey)
}
