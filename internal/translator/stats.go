package translator

import "sync/atomic"

// Stats is a point-in-time snapshot of the orchestrator counters.
// Total counts every Translate call, including cache hits; Errors
// counts failed remote attempts plus replies that never validated;
// Retries counts only the repeat attempts triggered by validation.
type Stats struct {
	Total           uint64
	CacheHits       uint64
	APICalls        uint64
	OfflineRequests uint64
	Errors          uint64
	Retries         uint64
}

// CacheHitRate is the fraction of requests served from cache.
func (s Stats) CacheHitRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(s.Total)
}

type counters struct {
	total           atomic.Uint64
	cacheHits       atomic.Uint64
	apiCalls        atomic.Uint64
	offlineRequests atomic.Uint64
	errors          atomic.Uint64
	retries         atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Total:           c.total.Load(),
		CacheHits:       c.cacheHits.Load(),
		APICalls:        c.apiCalls.Load(),
		OfflineRequests: c.offlineRequests.Load(),
		Errors:          c.errors.Load(),
		Retries:         c.retries.Load(),
	}
}

func (c *counters) reset() {
	c.total.Store(0)
	c.cacheHits.Store(0)
	c.apiCalls.Store(0)
	c.offlineRequests.Store(0)
	c.errors.Store(0)
	c.retries.Store(0)
}
