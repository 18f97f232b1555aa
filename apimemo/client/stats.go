package client

import (
	"sync"
	"time"
)

// Stats is a point-in-time copy of dispatcher counters.
type Stats struct {
	Hits            int64
	Misses          int64
	Stores          int64
	TransportErrors int64
	Coalesced       int64 // misses answered by another caller's in-flight call
	Inflight        int64 // callers currently inside a coalesced call
	CacheLen        int
	AvgDispatch     time.Duration // mean transport latency over recorded dispatches
}

// HitRatio returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type statsCollector struct {
	mu sync.Mutex

	hits            int64
	misses          int64
	stores          int64
	transportErrors int64
	coalesced       int64
	inflight        int64

	dispatches    int64
	totalDispatch time.Duration
}

func (c *statsCollector) recordHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

func (c *statsCollector) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}

func (c *statsCollector) recordStore() {
	c.mu.Lock()
	c.stores++
	c.mu.Unlock()
}

func (c *statsCollector) recordCoalesced() {
	c.mu.Lock()
	c.coalesced++
	c.mu.Unlock()
}

func (c *statsCollector) enterInflight() {
	c.mu.Lock()
	c.inflight++
	c.mu.Unlock()
}

func (c *statsCollector) leaveInflight() {
	c.mu.Lock()
	c.inflight--
	c.mu.Unlock()
}

func (c *statsCollector) recordDispatch(d time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dispatches++
	c.totalDispatch += d
	if err != nil {
		c.transportErrors++
	}
}

func (c *statsCollector) snapshot(cacheLen int) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Hits:            c.hits,
		Misses:          c.misses,
		Stores:          c.stores,
		TransportErrors: c.transportErrors,
		Coalesced:       c.coalesced,
		Inflight:        c.inflight,
		CacheLen:        cacheLen,
	}
	if c.dispatches > 0 {
		s.AvgDispatch = c.totalDispatch / time.Duration(c.dispatches)
	}
	return s
}
