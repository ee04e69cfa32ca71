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
	"encoding/binary"
	"fmt"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/redis/go-redis/v9"
)

const expiryHeaderLen = 8

// FastCacheConfig fastcache 本地缓存配置
type FastCacheConfig struct {
	MaxBytes int
}

// FastCache 进程内缓存，value 前 8 字节存放过期时间（unix 纳秒，0 表示永不过期）。
// 过期条目在读取时惰性删除。
type FastCache struct {
	c   *fastcache.Cache
	now func() time.Time
}

func NewFastCache(cfg FastCacheConfig) *FastCache {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 32 * 1024 * 1024
	}
	return &FastCache{c: fastcache.New(cfg.MaxBytes), now: time.Now}
}

func (f *FastCache) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	raw, ok := f.c.HasGet(nil, []byte(key))
	if !ok || len(raw) < expiryHeaderLen {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	if exp := int64(binary.BigEndian.Uint64(raw[:expiryHeaderLen])); exp != 0 && f.now().UnixNano() >= exp {
		f.c.Del([]byte(key))
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(string(raw[expiryHeaderLen:]))
	return cmd
}

func (f *FastCache) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key, value)
	data, err := toBytes(value)
	if err != nil {
		cmd.SetErr(err)
		return cmd
	}

	var exp int64
	if expiration > 0 {
		exp = f.now().Add(expiration).UnixNano()
	}
	buf := make([]byte, expiryHeaderLen+len(data))
	binary.BigEndian.PutUint64(buf, uint64(exp))
	copy(buf[expiryHeaderLen:], data)
	f.c.Set([]byte(key), buf)

	cmd.SetVal("OK")
	return cmd
}

func (f *FastCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "del")
	var n int64
	for _, k := range keys {
		if f.c.Has([]byte(k)) {
			f.c.Del([]byte(k))
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

// Clear 清空全部条目
func (f *FastCache) Clear() {
	f.c.Reset()
}

// Stats 返回条目数与占用字节
func (f *FastCache) Stats() (entries uint64, bytes uint64) {
	var s fastcache.Stats
	f.c.UpdateStats(&s)
	return s.EntriesCount, s.BytesSize
}

func toBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case fmt.Stringer:
		return []byte(v.String()), nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("fastcache: unsupported value type %T", value)
	}
}
