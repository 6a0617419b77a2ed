// Package caching keeps rendered previews in memory.
package caching

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Cache maps string keys to rendered output. Entries expire after the ttl
// given to NewCache and expired entries are swept in the background.
type Cache struct {
	memoryCache *cache.Cache
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{memoryCache: cache.New(ttl, 2*ttl)}
}

func (s *Cache) Get(key string) (string, bool) {
	v, ok := s.memoryCache.Get(key)
	if !ok {
		return "", false
	}
	out, ok := v.(string)
	return out, ok
}

func (s *Cache) Set(key, value string) {
	s.memoryCache.SetDefault(key, value)
}

func (s *Cache) Len() int {
	return s.memoryCache.ItemCount()
}

func (s *Cache) Flush() {
	s.memoryCache.Flush()
}
