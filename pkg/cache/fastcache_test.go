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
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFastCache_SetGet(t *testing.T) {
	c := NewFastCache(FastCacheConfig{MaxBytes: 1024 * 1024})
	defer c.Clear()
	ctx := context.Background()

	require.Equal(t, "OK", c.Set(ctx, "k", "v", time.Hour).Val())
	got, err := c.Get(ctx, "k").Result()
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestFastCache_MissReturnsNil(t *testing.T) {
	c := NewFastCache(FastCacheConfig{})
	_, err := c.Get(context.Background(), "absent").Result()
	assert.ErrorIs(t, err, redis.Nil)
}

func TestFastCache_Expiration(t *testing.T) {
	c := NewFastCache(FastCacheConfig{MaxBytes: 1024 * 1024})
	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Set(ctx, "short", "v", time.Minute)
	c.Set(ctx, "forever", "v", 0)

	now = now.Add(2 * time.Minute)
	_, err := c.Get(ctx, "short").Result()
	assert.ErrorIs(t, err, redis.Nil)

	got, err := c.Get(ctx, "forever").Result()
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestFastCache_Del(t *testing.T) {
	c := NewFastCache(FastCacheConfig{MaxBytes: 1024 * 1024})
	ctx := context.Background()
	c.Set(ctx, "a", []byte("1"), 0)
	c.Set(ctx, "b", "2", 0)

	assert.Equal(t, int64(2), c.Del(ctx, "a", "b", "c").Val())
	_, err := c.Get(ctx, "a").Result()
	assert.ErrorIs(t, err, redis.Nil)
}

func TestFastCache_UnsupportedValue(t *testing.T) {
	c := NewFastCache(FastCacheConfig{})
	assert.Error(t, c.Set(context.Background(), "k", 42, 0).Err())
}

func TestProvideCache_Local(t *testing.T) {
	c, cleanup, err := ProvideCache(Conf{})
	require.NoError(t, err)
	defer cleanup()
	_, ok := c.(*FastCache)
	assert.True(t, ok)
}
