package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// LookupRecorder 缓存查询结果记录
type LookupRecorder interface {
	RecordCacheLookup(cache string, hit bool)
}

// TokenBlacklist 已注销令牌名单，键在令牌过期后自动失效
type TokenBlacklist struct {
	client   redis.Cmdable
	recorder LookupRecorder
}

// NewTokenBlacklist 创建令牌吊销名单
func NewTokenBlacklist(client redis.Cmdable, recorder LookupRecorder) *TokenBlacklist {
	return &TokenBlacklist{client: client, recorder: recorder}
}

// Revoke 吊销令牌直到其过期
func (b *TokenBlacklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" {
		return errors.New("token id is required")
	}
	// 已过期的令牌无需记录
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, BuildKey(KeyPrefixTokenBlacklist, tokenID), 1, ttl).Err()
}

// IsRevoked 判断令牌是否已吊销
func (b *TokenBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	n, err := b.client.Exists(ctx, BuildKey(KeyPrefixTokenBlacklist, tokenID)).Result()
	if err != nil {
		return false, err
	}
	revoked := n > 0
	if b.recorder != nil {
		b.recorder.RecordCacheLookup("token_blacklist", revoked)
	}
	return revoked, nil
}
