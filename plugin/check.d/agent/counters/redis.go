// SPDX-License-Identifier: GPL-3.0-or-later

package counters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/checkmk/checkengine/pkg/valuestore"

	"github.com/redis/go-redis/v9"
)

type redisClient interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisBackend keeps one hash per host, one field per service scope.
type RedisBackend struct {
	rdb       redisClient
	keyPrefix string
}

// NewRedisBackend connects to cfg.Address, a "redis://" URL or a plain host:port.
func NewRedisBackend(ctx context.Context, cfg Config) (*RedisBackend, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return newRedisBackend(rdb, cfg.KeyPrefix), nil
}

func redisOptions(cfg Config) (*redis.Options, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis: 'address' not set")
	}

	opts := &redis.Options{Addr: cfg.Address}
	if strings.Contains(cfg.Address, "://") {
		var err error
		if opts, err = redis.ParseURL(cfg.Address); err != nil {
			return nil, err
		}
	}
	if opts.Password == "" {
		opts.Password = cfg.Password
	}
	if opts.DB == 0 {
		opts.DB = cfg.DB
	}
	opts.PoolSize = 2
	return opts, nil
}

func newRedisBackend(rdb redisClient, keyPrefix string) *RedisBackend {
	if keyPrefix == "" {
		keyPrefix = "checkengine:counters:"
	}
	return &RedisBackend{rdb: rdb, keyPrefix: keyPrefix}
}

func (b *RedisBackend) key(host string) string {
	return b.keyPrefix + host
}

func (b *RedisBackend) Load(ctx context.Context, host string) (*valuestore.HostStore, error) {
	fields, err := b.rdb.HGetAll(ctx, b.key(host)).Result()
	if err != nil {
		return nil, err
	}

	hs := valuestore.NewHostStore()
	for scope, data := range fields {
		var entries map[string][]float64
		if err := json.Unmarshal([]byte(data), &entries); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", b.key(host), scope, err)
		}
		hs.SetScopeEntries(scope, entries)
	}
	return hs, nil
}

// Save replaces the hash of host in one transaction.
func (b *RedisBackend) Save(ctx context.Context, host string, hs *valuestore.HostStore) error {
	values, err := encodeScopes(hs)
	if err != nil {
		return err
	}

	key := b.key(host)
	_, err = b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			args := make([]any, 0, len(values)*2)
			for _, sv := range values {
				args = append(args, sv.scope, sv.data)
			}
			pipe.HSet(ctx, key, args...)
		}
		return nil
	})
	return err
}

func (b *RedisBackend) Close() error { return b.rdb.Close() }

type scopeValue struct {
	scope string
	data  string
}

func encodeScopes(hs *valuestore.HostStore) ([]scopeValue, error) {
	var out []scopeValue
	for _, scope := range hs.Scopes() {
		bs, err := json.Marshal(hs.ScopeEntries(scope))
		if err != nil {
			return nil, fmt.Errorf("encode scope %s: %w", scope, err)
		}
		out = append(out, scopeValue{scope: scope, data: string(bs)})
	}
	return out, nil
}
