package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const PageCachePrefix = "page:"

// PageCacheRepository 整页响应缓存，TTL 到期或显式清空后失效
type PageCacheRepository struct {
	TTL time.Duration
}

func NewPageCacheRepository(ttl time.Duration) *PageCacheRepository {
	return &PageCacheRepository{TTL: ttl}
}

func (r *PageCacheRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := Client.Get(ctx, PageCachePrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *PageCacheRepository) Set(ctx context.Context, key string, page []byte) error {
	return Client.Set(ctx, PageCachePrefix+key, page, r.TTL).Err()
}

// Clear 按前缀扫描删除全部页缓存
func (r *PageCacheRepository) Clear(ctx context.Context) error {
	iter := Client.Scan(ctx, 0, PageCachePrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := Client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
