// Package memcache is the in-process LRU for simplified detail geometries.
// Simplification is pure CPU work on immutable upstream text, so entries
// need no TTL, only the size bound.
package memcache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"naturatlas/internal/model"
)

type DetailCache struct {
	lru *lru.Cache[string, model.AreaDetail]
}

func New(size int) (*DetailCache, error) {
	c, err := lru.New[string, model.AreaDetail](size)
	if err != nil {
		return nil, err
	}
	return &DetailCache{lru: c}, nil
}

func (c *DetailCache) Get(key string) (model.AreaDetail, bool) {
	return c.lru.Get(key)
}

func (c *DetailCache) Add(key string, d model.AreaDetail) {
	c.lru.Add(key, d)
}

// DropArea evicts every tolerance variant of one area. The LRU has no
// prefix scan, so the keys are walked; sizes stay in the hundreds.
func (c *DetailCache) DropArea(prefix string) {
	for _, k := range c.lru.Keys() {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			c.lru.Remove(k)
		}
	}
}

func (c *DetailCache) Len() int { return c.lru.Len() }
