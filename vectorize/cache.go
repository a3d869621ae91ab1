package vectorize

import (
	"context"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultModelCacheSize bounds how many encoders stay loaded at once
const DefaultModelCacheSize = 8

// ModelCache keeps loaded encoders keyed by model id.
//
// Concurrent misses for the same model each load; the first one stored is
// kept and later loaders close their own copy. An encoder leaving the cache
// is closed once every caller holding it has released it. Encoders that
// report themselves dead are dropped on lookup and loaded again.
type ModelCache struct {
	loader Loader

	// mu guards cache and evicted
	mu      sync.Mutex
	cache   *lru.Cache[string, *cacheEntry]
	evicted []*cacheEntry
}

type cacheEntry struct {
	model string
	enc   Encoder

	mu      sync.Mutex
	holders int
	retired bool
}

func (e *cacheEntry) acquire() {
	e.mu.Lock()
	e.holders++
	e.mu.Unlock()
}

func (e *cacheEntry) release() {
	e.mu.Lock()
	e.holders--
	closeNow := e.retired && e.holders == 0
	e.mu.Unlock()
	if closeNow {
		closeEncoder(e.model, e.enc)
	}
}

func (e *cacheEntry) retire() {
	e.mu.Lock()
	e.retired = true
	closeNow := e.holders == 0
	e.mu.Unlock()
	if closeNow {
		closeEncoder(e.model, e.enc)
	}
}

// alive is implemented by encoders backed by a process that can exit
type alive interface {
	Alive() bool
}

func isAlive(enc Encoder) bool {
	a, ok := enc.(alive)
	return !ok || a.Alive()
}

// NewModelCache creates a cache holding up to size encoders
func NewModelCache(loader Loader, size int) (*ModelCache, error) {
	if size <= 0 {
		size = DefaultModelCacheSize
	}
	c := &ModelCache{loader: loader}
	cache, err := lru.NewWithEvict[string, *cacheEntry](size, func(_ string, e *cacheEntry) {
		c.evicted = append(c.evicted, e)
	})
	if err != nil {
		return nil, err
	}
	c.cache = cache
	return c, nil
}

// Get returns the encoder for model, loading it on a miss. The caller must
// call release once it no longer uses the encoder.
func (c *ModelCache) Get(ctx context.Context, model string) (enc Encoder, release func(), err error) {
	if e, ok := c.acquire(model); ok {
		return e.enc, e.release, nil
	}

	slog.Info("loading model", "model", model)
	loaded, err := c.loader.Load(ctx, model)
	if err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	if e, ok := c.lookup(model); ok {
		e.acquire()
		c.unlock()
		slog.Debug("model loaded concurrently, closing duplicate", "model", model)
		closeEncoder(model, loaded)
		return e.enc, e.release, nil
	}
	e := &cacheEntry{model: model, enc: loaded, holders: 1}
	c.cache.Add(model, e)
	c.unlock()
	return loaded, e.release, nil
}

func (c *ModelCache) acquire(model string) (*cacheEntry, bool) {
	c.mu.Lock()
	defer c.unlock()
	e, ok := c.lookup(model)
	if ok {
		e.acquire()
	}
	return e, ok
}

// lookup returns the live entry of model. c.mu must be held.
func (c *ModelCache) lookup(model string) (*cacheEntry, bool) {
	e, ok := c.cache.Get(model)
	if !ok {
		return nil, false
	}
	if !isAlive(e.enc) {
		slog.Warn("dropping encoder that is no longer running", "model", model)
		c.cache.Remove(model)
		return nil, false
	}
	return e, true
}

// unlock releases c.mu and retires what the cache evicted meanwhile, so that
// closing slow encoders never blocks other lookups
func (c *ModelCache) unlock() {
	evicted := c.evicted
	c.evicted = nil
	c.mu.Unlock()
	for _, e := range evicted {
		e.retire()
	}
}

// Len returns the number of loaded encoders
func (c *ModelCache) Len() int {
	return c.cache.Len()
}

// Close drops every cached encoder. Encoders still held are closed on release.
func (c *ModelCache) Close() {
	c.mu.Lock()
	c.cache.Purge()
	c.unlock()
}

func closeEncoder(model string, enc Encoder) {
	if err := enc.Close(); err != nil {
		slog.Warn("failed to close encoder", "model", model, "error", err)
		return
	}
	slog.Debug("closed encoder", "model", model)
}
