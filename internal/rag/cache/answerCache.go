package cache

import (
	"sync"

	"github.com/hanrgy/docs-bot/internal/domain/commonModels"
)

type key struct {
	question    string
	fingerprint string
}

// AnswerCache memoizes synthesized answers per (question, corpus
// fingerprint) pair. Any ingest or delete changes the fingerprint, so
// stale entries simply stop being addressable and age out. Eviction is
// least-recently-inserted, lookups do not refresh an entry's position.
type AnswerCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[key]commonModels.AnswerResult
	order    []key
}

func New(capacity int) *AnswerCache {
	if capacity < 0 {
		capacity = 0
	}
	return &AnswerCache{
		capacity: capacity,
		entries:  make(map[key]commonModels.AnswerResult),
	}
}

func (c *AnswerCache) Get(question, fingerprint string) (commonModels.AnswerResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result, ok := c.entries[key{question, fingerprint}]
	return result, ok
}

func (c *AnswerCache) Put(question, fingerprint string, result commonModels.AnswerResult) {
	if c.capacity == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{question, fingerprint}
	if _, exists := c.entries[k]; exists {
		c.entries[k] = result
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[k] = result
	c.order = append(c.order, k)
}

func (c *AnswerCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
