package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/nexa-digital/nexus-chat-go/internal/config"
)

// Service defines response cache operations. Responses are keyed by prompt
// and backend id so distinct assistants never share answers.
type Service interface {
	Get(ctx context.Context, prompt, backendID string) (string, bool)
	Set(ctx context.Context, prompt, backendID, answer string) error
	Clear(ctx context.Context) error
}

type entry struct {
	Prompt    string
	Answer    string
	BackendID string
	CreatedAt time.Time
}

// Cache implements the response cache
type Cache struct {
	enabled bool
	cache   *cache.Cache
	logger  *logrus.Logger
	maxSize int
}

// NewCache creates a new cache service
func NewCache(cfg *config.Config, logger *logrus.Logger) Service {
	if !cfg.Cache.Enabled {
		return &Cache{enabled: false}
	}

	return &Cache{
		enabled: true,
		cache:   cache.New(cfg.Cache.TTL, cfg.Cache.TTL*2),
		logger:  logger,
		maxSize: cfg.Cache.MaxSize,
	}
}

// Get retrieves a cached response
func (c *Cache) Get(ctx context.Context, prompt, backendID string) (string, bool) {
	if !c.enabled {
		return "", false
	}

	key := c.generateKey(prompt, backendID)
	if val, found := c.cache.Get(key); found {
		e := val.(*entry)
		c.logger.WithFields(logrus.Fields{
			"backend_id": backendID,
			"age":        time.Since(e.CreatedAt),
		}).Debug("Cache hit")
		return e.Answer, true
	}

	return "", false
}

// Set stores a response in cache
func (c *Cache) Set(ctx context.Context, prompt, backendID, answer string) error {
	if !c.enabled {
		return nil
	}

	if c.cache.ItemCount() >= c.maxSize {
		c.logger.Warn("Cache size limit reached, clearing old entries")
		c.cache.DeleteExpired()
	}

	key := c.generateKey(prompt, backendID)
	c.cache.SetDefault(key, &entry{
		Prompt:    prompt,
		Answer:    answer,
		BackendID: backendID,
		CreatedAt: time.Now(),
	})

	return nil
}

// Clear removes all cached entries
func (c *Cache) Clear(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	c.cache.Flush()
	c.logger.Info("Response cache cleared")
	return nil
}

// generateKey creates a unique cache key
func (c *Cache) generateKey(prompt, backendID string) string {
	data := fmt.Sprintf("%s:%s", backendID, prompt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
