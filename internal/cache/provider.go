// Package cache はwebhookイベントの重複排除に使う小さなKVS。
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("key not found")

type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Provider string
	RedisURL string
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "memory", "":
		return NewMemoryProvider()
	case "redis":
		return NewRedisProvider(cfg.RedisURL)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

// WebhookKey は処理済みイベントIDのキャッシュキー
func WebhookKey(eventID string) string {
	return "webhook:" + eventID
}
