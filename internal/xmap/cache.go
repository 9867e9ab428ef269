package xmap

import (
	"bytes"
	"hash/fnv"
	"sync"
)

// Cache keeps parsed files keyed by content hash, so re-uploading the same
// reference genome skips the parse.
type Cache struct {
	mu     sync.RWMutex
	parsed map[uint64][]Record
}

func NewCache() *Cache {
	return &Cache{parsed: make(map[uint64][]Record)}
}

// HashContent hashes raw file bytes with FNV-1a.
func HashContent(content []byte) uint64 {
	h := fnv.New64a()
	h.Write(content)
	return h.Sum64()
}

// GetOrParse returns the cached records for hash, parsing content on a
// miss. Concurrent callers may parse the same content once each; the
// winner's result is kept.
func (c *Cache) GetOrParse(hash uint64, content []byte) ([]Record, error) {
	c.mu.RLock()
	records, ok := c.parsed[hash]
	c.mu.RUnlock()
	if ok {
		return records, nil
	}

	records, err := Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if cached, ok := c.parsed[hash]; ok {
		records = cached
	} else {
		c.parsed[hash] = records
	}
	c.mu.Unlock()
	return records, nil
}

// Len reports how many distinct files are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.parsed)
}
