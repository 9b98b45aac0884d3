package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// PageCache 整页响应缓存。应用只依赖三件事：读、写、可清空；
// 过期策略由实现自己负责
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, page []byte) error
	Clear(ctx context.Context) error
}

// Key 以 (路由, 参数) 生成缓存键
func Key(route string, params ...string) string {
	if len(params) == 0 {
		return route
	}
	return route + "?" + strings.Join(params, "&")
}

// MemoryPageCache 进程内实现，测试与单机部署用
type MemoryPageCache struct {
	TTL time.Duration

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	page      []byte
	expiresAt time.Time
}

func NewMemoryPageCache(ttl time.Duration) *MemoryPageCache {
	return &MemoryPageCache{
		TTL:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryPageCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		return nil, false, nil
	}
	return e.page, true, nil
}

func (c *MemoryPageCache) Set(_ context.Context, key string, page []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var exp time.Time
	if c.TTL > 0 {
		exp = time.Now().Add(c.TTL)
	}
	c.entries[key] = memoryEntry{page: page, expiresAt: exp}
	return nil
}

func (c *MemoryPageCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
	return nil
}
