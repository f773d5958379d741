// Copyright 2026 © The HRBot Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"sync"
	"time"

	"github.com/seritra/hrbot/pkg/hr"
)

// SessionCache keeps resolved principals per chat identity so the
// directory is not hit on every message. Entries expire after the
// configured TTL and are purged lazily.
type SessionCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]sessionEntry
}

type sessionEntry struct {
	emp     *hr.Employee
	expires time.Time
}

// NewSessionCache creates a cache with the given TTL. A zero TTL
// disables caching entirely.
func NewSessionCache(ttl time.Duration) *SessionCache {
	return &SessionCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]sessionEntry),
	}
}

// Get returns the cached principal for a chat identity, loading it
// through the factory on miss or expiry.
func (c *SessionCache) Get(chatID string, load func() (*hr.Employee, error)) (*hr.Employee, error) {
	if c.ttl <= 0 {
		return load()
	}

	c.mu.Lock()
	if entry, ok := c.entries[chatID]; ok && c.now().Before(entry.expires) {
		c.mu.Unlock()
		return entry.emp, nil
	}
	c.mu.Unlock()

	emp, err := load()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.purgeLocked()
	c.entries[chatID] = sessionEntry{emp: emp, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return emp, nil
}

// Evict drops the entry for a chat identity. Used when a chat is
// unlinked so the next message sees the registration flow.
func (c *SessionCache) Evict(chatID string) {
	c.mu.Lock()
	delete(c.entries, chatID)
	c.mu.Unlock()
}

// Len reports the number of live entries.
func (c *SessionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeLocked()
	return len(c.entries)
}

func (c *SessionCache) purgeLocked() {
	now := c.now()
	for id, entry := range c.entries {
		if !now.Before(entry.expires) {
			delete(c.entries, id)
		}
	}
}
