package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisTokenCache shares bearer tokens across processes. Keys expire with
// the token itself, so stale entries clean themselves up.
type RedisTokenCache struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

func NewRedisTokenCache(client *redis.Client, log *zap.SugaredLogger) *RedisTokenCache {
	return &RedisTokenCache{client: client, log: log}
}

func tokenKey(shopID string) string {
	return "shop_token:" + shopID
}

func (c *RedisTokenCache) Get(ctx context.Context, shopID string) (*Token, error) {
	data, err := c.client.Get(ctx, tokenKey(shopID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		c.log.Errorw("token cache get", "shop", shopID, "err", err)
		return nil, err
	}
	var token Token
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		c.log.Errorw("token cache unmarshal", "shop", shopID, "err", err)
		return nil, err
	}
	return &token, nil
}

func (c *RedisTokenCache) Set(ctx context.Context, shopID string, token *Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, tokenKey(shopID), data, ttl).Err(); err != nil {
		c.log.Errorw("token cache set", "shop", shopID, "err", err)
		return err
	}
	return nil
}

func (c *RedisTokenCache) Clear(ctx context.Context, shopID string) error {
	if err := c.client.Del(ctx, tokenKey(shopID)).Err(); err != nil {
		c.log.Errorw("token cache clear", "shop", shopID, "err", err)
		return err
	}
	return nil
}
