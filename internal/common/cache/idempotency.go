// Package cache 提供 Redis 缓存功能
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Idempotency 幂等键管理器
// 通过 SETNX 保证同一幂等键只被消费一次，值为首次请求产生的业务单号，
// 重复请求可据此返回已存在的记录而不是创建新记录。
type Idempotency struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewIdempotency 创建幂等键管理器
func NewIdempotency(client *redis.Client, prefix string, ttl time.Duration) *Idempotency {
	if prefix == "" {
		prefix = "idem:"
	}
	return &Idempotency{client: client, prefix: prefix, ttl: ttl}
}

// Claim 尝试占用幂等键
// 返回 (true, "") 表示首次占用成功；返回 (false, 已有值) 表示键已被占用。
func (i *Idempotency) Claim(ctx context.Context, key, value string) (bool, string, error) {
	full := i.prefix + key
	ok, err := i.client.SetNX(ctx, full, value, i.ttl).Result()
	if err != nil {
		return false, "", fmt.Errorf("claim idempotency key: %w", err)
	}
	if ok {
		return true, "", nil
	}
	existing, err := i.client.Get(ctx, full).Result()
	if err != nil && err != redis.Nil {
		return false, "", fmt.Errorf("read idempotency key: %w", err)
	}
	return false, existing, nil
}

// Release 释放幂等键（创建失败时回滚占用）
func (i *Idempotency) Release(ctx context.Context, key string) error {
	return i.client.Del(ctx, i.prefix+key).Err()
}
