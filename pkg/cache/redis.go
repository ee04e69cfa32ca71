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
	"crypto/tls"
	"strings"
	"time"

	"github.com/go-arcade/sniper/pkg/log"
	"github.com/go-arcade/sniper/pkg/trace"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type Redis struct {
	Mode             string // single | sentinel
	Address          string
	Password         string
	DB               int
	PoolSize         int
	UseTLS           bool
	MasterName       string
	SentinelUsername string
	SentinelPassword string
	DialTimeout      int // 秒
	ReadTimeout      int
	WriteTimeout     int
}

func seconds(n int, def time.Duration) time.Duration {
	if n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

func NewRedis(cfg Redis) (*redis.Client, error) {
	var tlsConf *tls.Config
	if cfg.UseTLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	var client *redis.Client
	switch cfg.Mode {
	case "", "single":
		client = redis.NewClient(&redis.Options{
			Addr:         cfg.Address,
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			DialTimeout:  seconds(cfg.DialTimeout, 5*time.Second),
			ReadTimeout:  seconds(cfg.ReadTimeout, 3*time.Second),
			WriteTimeout: seconds(cfg.WriteTimeout, 3*time.Second),
			TLSConfig:    tlsConf,
		})
	case "sentinel":
		client = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       cfg.MasterName,
			SentinelAddrs:    strings.Split(cfg.Address, ","),
			Password:         cfg.Password,
			DB:               cfg.DB,
			PoolSize:         cfg.PoolSize,
			SentinelUsername: cfg.SentinelUsername,
			SentinelPassword: cfg.SentinelPassword,
			DialTimeout:      seconds(cfg.DialTimeout, 5*time.Second),
			ReadTimeout:      seconds(cfg.ReadTimeout, 3*time.Second),
			WriteTimeout:     seconds(cfg.WriteTimeout, 3*time.Second),
			TLSConfig:        tlsConf,
		})
	default:
		return nil, errors.Errorf("unsupported redis mode %q", cfg.Mode)
	}

	client.AddHook(trace.RedisHook{})

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}

	log.Infow("redis connected", "mode", cfg.Mode, "address", cfg.Address)
	return client, nil
}
