package server

import (
	"context"
	"sync"
	"time"

	"github.com/mj1618/iphone-cli/internal/screen"
	"github.com/mj1618/iphone-cli/phone"
)

// treeCache holds the last element read for a short TTL so agents that call
// iphone_elements or iphone_find back to back do not hammer the device.
// Gestures invalidate it, since they are what moves the screen.
type treeCache struct {
	mu  sync.Mutex
	els []screen.Element
	at  time.Time
	ttl time.Duration
}

// newTreeCache creates a cache. A ttl of 0 disables caching.
func newTreeCache(ttl time.Duration) *treeCache {
	return &treeCache{ttl: ttl}
}

// elements returns the cached read if within TTL, otherwise reads fresh.
func (c *treeCache) elements(ctx context.Context, p *phone.Phone) ([]screen.Element, error) {
	if c.ttl == 0 {
		return p.Elements(ctx)
	}

	c.mu.Lock()
	if c.els != nil && time.Since(c.at) < c.ttl {
		els := c.els
		c.mu.Unlock()
		return els, nil
	}
	c.mu.Unlock()

	els, err := p.Elements(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.els = els
	c.at = time.Now()
	c.mu.Unlock()

	return els, nil
}

// invalidate drops the cached read.
func (c *treeCache) invalidate() {
	c.mu.Lock()
	c.els = nil
	c.mu.Unlock()
}
