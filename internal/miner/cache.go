package miner

import (
	"github.com/maypok86/otter"
	"github.com/zeebo/xxh3"

	"github.com/r4phael/exception-miner/internal/syntax"
)

// contentKey identifies a file result by language and content, so identical
// files (vendored copies, forks) are analysed once.
type contentKey struct {
	lang syntax.Language
	hash xxh3.Uint128
}

func keyFor(lang syntax.Language, content []byte) contentKey {
	return contentKey{lang: lang, hash: xxh3.Hash128(content)}
}

// resultCache is a bounded content-addressed cache of file results. A nil
// cache never hits.
type resultCache struct {
	cache otter.Cache[contentKey, *FileResult]
}

func newResultCache(capacity int) (*resultCache, error) {
	if capacity <= 0 {
		return nil, nil
	}
	c, err := otter.MustBuilder[contentKey, *FileResult](capacity).
		CollectStats().
		Build()
	if err != nil {
		return nil, err
	}
	return &resultCache{cache: c}, nil
}

// get returns the cached result for key restamped with file.
func (c *resultCache) get(key contentKey, file string) (*FileResult, bool) {
	if c == nil {
		return nil, false
	}
	res, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	return res.forFile(file), true
}

func (c *resultCache) set(key contentKey, res *FileResult) {
	if c == nil {
		return
	}
	c.cache.Set(key, res)
}

// hits returns the cache hit count.
func (c *resultCache) hits() int64 {
	if c == nil {
		return 0
	}
	return c.cache.Stats().Hits()
}

func (c *resultCache) close() {
	if c != nil {
		c.cache.Close()
	}
}
