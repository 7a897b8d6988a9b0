package analyzer

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/typelink/internal/errors"
	"github.com/mvp-joe/typelink/internal/syntax"
)

// parseCache keeps parsed files keyed by path and content hash, so reruns in
// watch mode only reparse files that changed. Cached files are never mutated
// by extraction. A nil *parseCache is a disabled cache.
type parseCache struct {
	files otter.Cache[string, *syntax.File]
}

// newParseCache returns nil when capacity is zero.
func newParseCache(capacity int) (*parseCache, error) {
	if capacity <= 0 {
		return nil, nil
	}
	files, err := otter.MustBuilder[string, *syntax.File](capacity).
		CollectStats().
		Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build parse cache")
	}
	return &parseCache{files: files}, nil
}

func cacheKey(path string, source []byte) string {
	sum := sha256.Sum256(source)
	return path + "@" + hex.EncodeToString(sum[:])
}

func (c *parseCache) get(key string) (*syntax.File, bool) {
	if c == nil {
		return nil, false
	}
	return c.files.Get(key)
}

func (c *parseCache) set(key string, file *syntax.File) {
	if c == nil {
		return
	}
	c.files.Set(key, file)
}

// CacheStats reports parse cache effectiveness.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

func (c *parseCache) stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	s := c.files.Stats()
	return CacheStats{Hits: s.Hits(), Misses: s.Misses()}
}

func (c *parseCache) close() {
	if c != nil {
		c.files.Close()
	}
}
