package langdetect

import (
	"container/list"
	"sync"
)

// verdictCache is a small LRU keyed by input text. Classifier and provider
// verdicts are pure functions of the text, so memoizing them is safe; the
// bound keeps long batch runs from growing memory without limit.
type verdictCache struct {
	mu    sync.Mutex
	cap   int
	order *list.List
	items map[string]*list.Element
}

type verdictEntry struct {
	key string
	v   Verdict
}

func newVerdictCache(capacity int) *verdictCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &verdictCache{
		cap:   capacity,
		order: list.New(),
		items: make(map[string]*list.Element, capacity),
	}
}

func (c *verdictCache) get(key string) (Verdict, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return Verdict{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*verdictEntry).v, true
}

func (c *verdictCache) add(key string, v Verdict) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*verdictEntry).v = v
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&verdictEntry{key: key, v: v})
	for c.order.Len() > c.cap {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*verdictEntry).key)
	}
}

func (c *verdictCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[string]*list.Element, c.cap)
}

func (c *verdictCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
