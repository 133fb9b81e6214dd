package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Settings are the operator-tunable purchase settings that can change while
// the process runs.
type Settings struct {
	// MinPayment is the configured minimum purchase in USD; the effective
	// minimum is max of this and the provider's own transaction minimum.
	MinPayment decimal.Decimal
}

type SettingsSource func(ctx context.Context) (Settings, error)

// SettingsCache fronts a SettingsSource with a TTL. It replaces an ambient
// process-wide cache: one instance is owned by the purchase service, and
// Invalidate forces a refetch on the next read.
type SettingsCache struct {
	source SettingsSource
	ttl    time.Duration

	mu        sync.Mutex
	cached    Settings
	fetchedAt time.Time
	valid     bool
}

func NewSettingsCache(source SettingsSource, ttl time.Duration) *SettingsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SettingsCache{source: source, ttl: ttl}
}

// StaticSettings is a source for deployments where the settings come from
// the environment and never change at runtime.
func StaticSettings(settings Settings) SettingsSource {
	return func(context.Context) (Settings, error) {
		return settings, nil
	}
}

func (c *SettingsCache) Get(ctx context.Context) (Settings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && time.Since(c.fetchedAt) < c.ttl {
		return c.cached, nil
	}

	settings, err := c.source(ctx)
	if err != nil {
		// A stale value beats failing a user-facing purchase.
		if c.valid {
			return c.cached, nil
		}
		return Settings{}, err
	}

	c.cached = settings
	c.fetchedAt = time.Now()
	c.valid = true
	return settings, nil
}

func (c *SettingsCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
}
