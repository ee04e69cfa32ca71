// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/sniper/pkg/log"
	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ErrCacheMiss indicates that the key was not found in cache
var ErrCacheMiss = redis.Nil

// QueryFunc loads the value from the origin when the cache misses.
type QueryFunc[T any] func(ctx context.Context, params ...any) (T, error)

// KeyFunc builds the cache key from the query parameters.
type KeyFunc func(params ...any) string

// CachedQuery is a cache-aside loader. Concurrent misses on the same key
// share a single origin call.
type CachedQuery[T any] struct {
	cache     ICache
	keyFunc   KeyFunc
	queryFunc QueryFunc[T]
	ttl       time.Duration
	logPrefix string
	group     singleflight.Group
}

type CachedQueryOption[T any] func(*CachedQuery[T])

func WithTTL[T any](ttl time.Duration) CachedQueryOption[T] {
	return func(cq *CachedQuery[T]) {
		cq.ttl = ttl
	}
}

func WithLogPrefix[T any](prefix string) CachedQueryOption[T] {
	return func(cq *CachedQuery[T]) {
		cq.logPrefix = prefix
	}
}

func NewCachedQuery[T any](cache ICache, keyFunc KeyFunc, queryFunc QueryFunc[T], opts ...CachedQueryOption[T]) *CachedQuery[T] {
	cq := &CachedQuery[T]{
		cache:     cache,
		keyFunc:   keyFunc,
		queryFunc: queryFunc,
		ttl:       time.Hour,
		logPrefix: "[CachedQuery]",
	}
	for _, opt := range opts {
		opt(cq)
	}
	return cq
}

// Get 先查缓存，未命中时回源并回填
func (cq *CachedQuery[T]) Get(ctx context.Context, params ...any) (T, error) {
	key := cq.keyFunc(params...)
	if v, ok := cq.lookup(ctx, key); ok {
		return v, nil
	}

	res, err, shared := cq.group.Do(key, func() (any, error) {
		// 排队期间可能已被其他调用回填
		if v, ok := cq.lookup(ctx, key); ok {
			return v, nil
		}
		log.Debugw(cq.logPrefix+" cache miss, querying origin", "key", key)
		v, err := cq.queryFunc(ctx, params...)
		if err != nil {
			return v, err
		}
		cq.store(ctx, key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, pkgerrors.Wrapf(err, "cached query %s", key)
	}
	if shared {
		log.Debugw(cq.logPrefix+" shared in-flight query", "key", key)
	}
	return res.(T), nil
}

// Invalidate 删除缓存条目，下次 Get 将回源
func (cq *CachedQuery[T]) Invalidate(ctx context.Context, params ...any) error {
	if cq.cache == nil {
		return nil
	}
	key := cq.keyFunc(params...)
	if err := cq.cache.Del(ctx, key).Err(); err != nil {
		return pkgerrors.Wrapf(err, "invalidate %s", key)
	}
	return nil
}

func (cq *CachedQuery[T]) lookup(ctx context.Context, key string) (T, bool) {
	var result T
	if cq.cache == nil {
		return result, false
	}
	data, err := cq.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			log.Warnw(cq.logPrefix+" cache get error", "key", key, "error", err)
		}
		return result, false
	}
	if data == "" {
		return result, false
	}
	if err := sonic.UnmarshalString(data, &result); err != nil {
		log.Warnw(cq.logPrefix+" failed to unmarshal cached data", "key", key, "error", err)
		return result, false
	}
	return result, true
}

func (cq *CachedQuery[T]) store(ctx context.Context, key string, v T) {
	if cq.cache == nil {
		return
	}
	data, err := sonic.MarshalString(v)
	if err != nil {
		log.Warnw(cq.logPrefix+" failed to marshal result for caching", "key", key, "error", err)
		return
	}
	if err := cq.cache.Set(ctx, key, data, cq.ttl).Err(); err != nil {
		log.Warnw(cq.logPrefix+" failed to cache result", "key", key, "error", err)
	}
}
