// Package cache keeps loaded tables in memory keyed by the identity of their
// source so repeated selections do not re-read or re-decode the file.
package cache

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/KaramelBytes/rankboard/internal/dataset"
)

// DefaultSize is the number of tables kept when no size is configured.
const DefaultSize = 16

// LoadFunc produces the table for a key on a cache miss.
type LoadFunc func() (*dataset.Table, error)

// Stats reports cache effectiveness.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// Tables is a read-through LRU of loaded tables. Concurrent misses on the same
// key share one load.
type Tables struct {
	lru    *lru.Cache[string, *dataset.Table]
	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

// New returns a cache holding up to size tables.
func New(size int) (*Tables, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[string, *dataset.Table](size)
	if err != nil {
		return nil, fmt.Errorf("create table cache: %w", err)
	}
	return &Tables{lru: c}, nil
}

// Get returns the table stored under key, calling load on a miss. Failed
// loads are not cached.
func (c *Tables) Get(key string, load LoadFunc) (*dataset.Table, error) {
	if t, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return t, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		if t, ok := c.lru.Get(key); ok {
			c.hits.Add(1)
			return t, nil
		}
		c.misses.Add(1)
		t, err := load()
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*dataset.Table), nil
}

// Lookup returns the table under key without loading.
func (c *Tables) Lookup(key string) (*dataset.Table, bool) {
	t, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	}
	return t, ok
}

// Put stores t under key, replacing any previous entry.
func (c *Tables) Put(key string, t *dataset.Table) {
	c.lru.Add(key, t)
}

// Invalidate drops key so the next Get reloads it.
func (c *Tables) Invalidate(key string) bool {
	return c.lru.Remove(key)
}

// Stats returns a snapshot of the counters.
func (c *Tables) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: c.lru.Len()}
}
