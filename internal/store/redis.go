package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/mcncl/j2j/internal/errors"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces j2j keys in a shared Redis.
const DefaultKeyPrefix = "j2j:doc:"

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Redis stores documents as JSON values with a Redis TTL, so expiry needs
// no cleanup pass.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to Redis and verifies the connection with PING.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewStoreError("failed to connect to redis at "+cfg.Addr, err)
	}
	return NewRedisWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisWithClient wraps an existing client. An empty prefix uses
// DefaultKeyPrefix.
func NewRedisWithClient(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(id string) string {
	return r.prefix + id
}

func (r *Redis) Put(ctx context.Context, doc *Document) error {
	ttl := time.Until(doc.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.NewStoreError("failed to encode document", err)
	}
	if err := r.client.Set(ctx, r.key(doc.ID), data, ttl).Err(); err != nil {
		return errors.NewStoreError("failed to store document", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, id string) (*Document, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.NewStoreError("failed to load document", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewStoreError("failed to decode document", err)
	}
	return &doc, nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return errors.NewStoreError("failed to delete document", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
