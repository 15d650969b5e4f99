package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"naskahweb/internal/profile/model"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares resolved profiles between service instances. Keys are
// profile:<owner>:<id> so sessions never read each other's entries.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to redisURL. A ttl of zero keeps entries until evicted by Redis.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, ttl), nil
}

func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "profile:",
		ttl:    ttl,
	}
}

func (s *RedisStore) key(owner, id string) string {
	return s.prefix + owner + ":" + id
}

func (s *RedisStore) Get(ctx context.Context, owner, id string) (model.UserProfile, bool, error) {
	data, err := s.client.Get(ctx, s.key(owner, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.UserProfile{}, false, nil
	}
	if err != nil {
		return model.UserProfile{}, false, fmt.Errorf("get profile: %w", err)
	}

	var p model.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return model.UserProfile{}, false, fmt.Errorf("unmarshal profile: %w", err)
	}
	return p, true, nil
}

func (s *RedisStore) Put(ctx context.Context, owner string, profile model.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := s.client.Set(ctx, s.key(owner, profile.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
