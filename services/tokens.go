package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"realty/config"
)

const tokenKeyPrefix = "session:"

// TokenStore maps session tokens to usernames with a TTL.
type TokenStore interface {
	Save(ctx context.Context, token, username string, ttl time.Duration) error
	// Lookup returns "" without error for unknown or expired tokens.
	Lookup(ctx context.Context, token string) (string, error)
	Drop(ctx context.Context, token string) error
}

type redisTokenStore struct {
	client *redis.Client
}

// NewRedisTokenStore connects to redis and verifies the connection.
func NewRedisTokenStore(ctx context.Context, conf *config.ConfigSchema) (TokenStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", conf.Redis.Host, conf.Redis.Port),
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &redisTokenStore{client: client}, nil
}

func (s *redisTokenStore) Save(ctx context.Context, token, username string, ttl time.Duration) error {
	return s.client.Set(ctx, tokenKeyPrefix+token, username, ttl).Err()
}

func (s *redisTokenStore) Lookup(ctx context.Context, token string) (string, error) {
	username, err := s.client.Get(ctx, tokenKeyPrefix+token).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return username, nil
}

func (s *redisTokenStore) Drop(ctx context.Context, token string) error {
	return s.client.Del(ctx, tokenKeyPrefix+token).Err()
}

// MemoryTokenStore backs the "memory" driver and tests.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]memoryToken
}

type memoryToken struct {
	username string
	expires  time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]memoryToken)}
}

func (s *MemoryTokenStore) Save(ctx context.Context, token, username string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = memoryToken{username: username, expires: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryTokenStore) Lookup(ctx context.Context, token string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.tokens[token]
	if !ok || time.Now().After(entry.expires) {
		return "", nil
	}
	return entry.username, nil
}

func (s *MemoryTokenStore) Drop(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}
