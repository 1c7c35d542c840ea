package cache

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/rhymednick/inw-radio-log/internal/config"
	"github.com/rhymednick/inw-radio-log/internal/models"
)

// UserCachePrefix is the key prefix of cached users.
const UserCachePrefix = "user-"

// UserCache caches users by id for display name lookups.
type UserCache struct {
	users *PrefixedCache[models.User]
}

// NewUserCache creates a UserCache backed by the configured cache type.
func NewUserCache(cfg *config.CacheConfig) *UserCache {
	if cfg == nil {
		cfg = &config.CacheConfig{Type: config.CacheTypeMemory}
	}
	return &UserCache{
		users: NewPrefixedCache[models.User](
			newCacheInstanceByType(cfg),
			cfg.Type,
			UserCachePrefix,
		),
	}
}

// Get returns the cached user with the given id.
func (c *UserCache) Get(ctx context.Context, id string) (models.User, bool) {
	user, err := c.users.Get(ctx, id)
	if err != nil {
		return models.User{}, false
	}
	return user, true
}

// SetAll caches every user in users.
func (c *UserCache) SetAll(ctx context.Context, users []models.User) {
	for _, u := range users {
		if err := c.users.Set(ctx, u.ID, u); err != nil {
			log.Warn("failed to cache user", "id", u.ID, "error", err)
			return
		}
	}
}

// Clear drops all cached users.
func (c *UserCache) Clear(ctx context.Context) {
	if err := c.users.Clear(ctx); err != nil {
		log.Errorf("failed to clear user cache: %v", err)
	}
}

// Stats describes a cache's hit and miss counters.
type Stats struct {
	*codec.Stats
	CacheName string           `json:"cacheName"`
	CacheType config.CacheType `json:"cacheType"`
}

// GetStats returns the statistics of the user cache.
func (c *UserCache) GetStats() []*Stats {
	return []*Stats{
		{
			Stats:     c.users.GetStats(),
			CacheName: "users",
			CacheType: c.users.GetType(),
		},
	}
}
