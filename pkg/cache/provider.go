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
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/google/wire"
)

const defaultLocalMaxBytes = 32 * 1024 * 1024

// Conf 选择缓存后端：local 使用进程内 fastcache，redis 使用外部实例
type Conf struct {
	Mode          string
	LocalMaxBytes int
	Redis         Redis
}

func (c *Conf) SetDefaults() {
	if c.Mode == "" {
		c.Mode = "local"
	}
	if c.LocalMaxBytes <= 0 {
		c.LocalMaxBytes = defaultLocalMaxBytes
	}
}

var ProviderSet = wire.NewSet(ProvideCache)

// ProvideCache 按配置构建 ICache，返回的 cleanup 关闭 redis 连接
func ProvideCache(conf Conf) (ICache, func(), error) {
	conf.SetDefaults()
	if conf.Mode != "redis" {
		log.Infow("using local cache", "maxBytes", conf.LocalMaxBytes)
		return NewFastCache(FastCacheConfig{MaxBytes: conf.LocalMaxBytes}), func() {}, nil
	}

	client, err := NewRedis(conf.Redis)
	if err != nil {
		return nil, nil, err
	}
	return client, func() {
		if err := client.Close(); err != nil {
			log.Warnw("failed to close redis", "error", err)
		}
	}, nil
}
