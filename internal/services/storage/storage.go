package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/nexa-digital/nexus-chat-go/internal/config"
	"github.com/nexa-digital/nexus-chat-go/internal/middleware"
	"github.com/nexa-digital/nexus-chat-go/internal/services/chat"
	"github.com/nexa-digital/nexus-chat-go/internal/services/gpt"
)

const (
	chatStateKey = "chat-storage"
	gptStateKey  = "gpt-storage"
)

// Storage interface defines persistence operations. State is written as two
// independently keyed JSON blobs; a missing blob loads as nil with no error.
type Storage interface {
	LoadChatState(ctx context.Context) (*chat.Snapshot, error)
	SaveChatState(ctx context.Context, snap *chat.Snapshot) error
	LoadGPTState(ctx context.Context) (*gpt.Snapshot, error)
	SaveGPTState(ctx context.Context, snap *gpt.Snapshot) error
}

// Manager manages different storage backends
type Manager struct {
	storage Storage
	logger  *logrus.Logger
	metrics *middleware.Metrics
}

// NewManager creates a new storage manager
func NewManager(cfg *config.Config, metrics *middleware.Metrics, logger *logrus.Logger) (*Manager, error) {
	var storage Storage

	switch cfg.Storage.Type {
	case "redis":
		redisStorage, err := NewRedisStorage(cfg, logger)
		if err != nil {
			return nil, err
		}
		storage = redisStorage
	case "memory":
		storage = NewMemoryStorage(logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}

	return &Manager{storage: storage, logger: logger, metrics: metrics}, nil
}

func (m *Manager) LoadChatState(ctx context.Context) (*chat.Snapshot, error) {
	return m.storage.LoadChatState(ctx)
}

// SaveChatState writes the chat blob. Errors are logged and returned, but
// callers treat snapshots as fire-and-forget: persisted state is not
// authoritative for correctness, only for session continuity.
func (m *Manager) SaveChatState(ctx context.Context, snap *chat.Snapshot) error {
	return m.timed("save_chat_state", func() error {
		return m.storage.SaveChatState(ctx, snap)
	})
}

func (m *Manager) LoadGPTState(ctx context.Context) (*gpt.Snapshot, error) {
	return m.storage.LoadGPTState(ctx)
}

func (m *Manager) SaveGPTState(ctx context.Context, snap *gpt.Snapshot) error {
	return m.timed("save_gpt_state", func() error {
		return m.storage.SaveGPTState(ctx, snap)
	})
}

func (m *Manager) timed(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	status := "success"
	if err != nil {
		status = "error"
		m.logger.WithError(err).WithField("operation", op).Error("Storage operation failed")
	}
	if m.metrics != nil {
		m.metrics.RecordStorageOperation(op, status, time.Since(start))
	}
	return err
}

// RedisStorage implements storage using Redis
type RedisStorage struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisStorage(cfg *config.Config, logger *logrus.Logger) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Storage.Redis.Addr,
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStorage{client: client, logger: logger}, nil
}

func (r *RedisStorage) LoadChatState(ctx context.Context) (*chat.Snapshot, error) {
	var snap chat.Snapshot
	ok, err := r.load(ctx, chatStateKey, &snap)
	if err != nil || !ok {
		return nil, err
	}
	return &snap, nil
}

func (r *RedisStorage) SaveChatState(ctx context.Context, snap *chat.Snapshot) error {
	return r.save(ctx, chatStateKey, snap)
}

func (r *RedisStorage) LoadGPTState(ctx context.Context) (*gpt.Snapshot, error) {
	var snap gpt.Snapshot
	ok, err := r.load(ctx, gptStateKey, &snap)
	if err != nil || !ok {
		return nil, err
	}
	return &snap, nil
}

func (r *RedisStorage) SaveGPTState(ctx context.Context, snap *gpt.Snapshot) error {
	return r.save(ctx, gptStateKey, snap)
}

func (r *RedisStorage) load(ctx context.Context, key string, out interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return false, fmt.Errorf("corrupt state blob %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisStorage) save(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	// State blobs never expire; last write wins.
	return r.client.Set(ctx, key, data, 0).Err()
}

// MemoryStorage implements storage using an in-memory cache. It keeps the
// same JSON round-trip as the Redis backend so both exercise the identical
// serialization contract.
type MemoryStorage struct {
	blobs  *cache.Cache
	logger *logrus.Logger
}

func NewMemoryStorage(logger *logrus.Logger) *MemoryStorage {
	return &MemoryStorage{
		blobs:  cache.New(cache.NoExpiration, cache.NoExpiration),
		logger: logger,
	}
}

func (m *MemoryStorage) LoadChatState(ctx context.Context) (*chat.Snapshot, error) {
	var snap chat.Snapshot
	ok, err := m.load(chatStateKey, &snap)
	if err != nil || !ok {
		return nil, err
	}
	return &snap, nil
}

func (m *MemoryStorage) SaveChatState(ctx context.Context, snap *chat.Snapshot) error {
	return m.save(chatStateKey, snap)
}

func (m *MemoryStorage) LoadGPTState(ctx context.Context) (*gpt.Snapshot, error) {
	var snap gpt.Snapshot
	ok, err := m.load(gptStateKey, &snap)
	if err != nil || !ok {
		return nil, err
	}
	return &snap, nil
}

func (m *MemoryStorage) SaveGPTState(ctx context.Context, snap *gpt.Snapshot) error {
	return m.save(gptStateKey, snap)
}

func (m *MemoryStorage) load(key string, out interface{}) (bool, error) {
	val, found := m.blobs.Get(key)
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(val.([]byte), out); err != nil {
		return false, fmt.Errorf("corrupt state blob %s: %w", key, err)
	}
	return true, nil
}

func (m *MemoryStorage) save(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.blobs.Set(key, data, cache.NoExpiration)
	return nil
}
