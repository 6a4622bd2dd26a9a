package dlog

import (
	"math/big"
	"time"

	"github.com/cloudflare/golibs/lrucache"
)

const tableTTL = time.Hour

// TableCache keeps recently built baby-step tables so that many public
// values under one generator share the precomputation. Safe for concurrent
// use.
type TableCache struct {
	lru   *lrucache.LRUCache
	limit int64
}

func NewTableCache(capacity uint, limit int64) *TableCache {
	if capacity == 0 {
		capacity = 64
	}
	return &TableCache{
		lru:   lrucache.NewLRUCache(capacity),
		limit: limit,
	}
}

func tableKey(g, p, bound *big.Int) string {
	return g.Text(36) + "/" + p.Text(36) + "/" + bound.Text(36)
}

// Get returns the table for (g, p, bound), building it on a miss.
func (c *TableCache) Get(g, p, bound *big.Int) (*BabySteps, error) {
	if c == nil {
		return NewBabySteps(g, p, bound, 0)
	}
	gp := new(big.Int).Mod(g, p)
	key := tableKey(gp, p, bound)
	if v, ok := c.lru.GetNotStale(key); ok {
		return v.(*BabySteps), nil
	}
	bs, err := NewBabySteps(gp, p, bound, c.limit)
	if err != nil {
		return nil, err
	}
	c.lru.Set(key, bs, time.Now().Add(tableTTL))
	return bs, nil
}

func (c *TableCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
