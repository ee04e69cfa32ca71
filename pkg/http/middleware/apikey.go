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

package middleware

import (
	"crypto/subtle"
	"strconv"
	"strings"
	"time"

	"github.com/go-arcade/sniper/pkg/http"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/gofiber/fiber/v2"
)

// APIKeyMiddleware 校验 X-API-Key，可选校验 X-Request-Time（毫秒时间戳）防重放。
// 挂载在 /api 分组上；OPTIONS 预检与白名单路径直接放行。
func APIKeyMiddleware(auth http.Auth, now func() time.Time) fiber.Handler {
	if now == nil {
		now = time.Now
	}
	window := time.Duration(auth.TimestampWindow) * time.Second
	if window <= 0 {
		window = 5 * time.Minute
	}

	return func(c *fiber.Ctx) error {
		if !auth.Enable || auth.APIKey == "" {
			return c.Next()
		}
		if c.Method() == fiber.MethodOptions || inWhitelist(c.Path(), auth.Whitelist) {
			return c.Next()
		}

		key := c.Get(HeaderAPIKey)
		if key == "" {
			log.Warnw("api request rejected: missing api key", "path", c.Path(), "ip", c.IP())
			return http.WithRepErrStatus(c, fiber.StatusUnauthorized, http.NoAPIKey, "")
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(auth.APIKey)) != 1 {
			log.Warnw("api request rejected: invalid api key", "path", c.Path(), "ip", c.IP())
			return http.WithRepErrStatus(c, fiber.StatusUnauthorized, http.InvalidAPIKey, "")
		}

		if raw := c.Get(HeaderRequestTime); raw != "" {
			// 无法解析的时间戳忽略，不影响请求
			if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
				diff := now().Sub(time.UnixMilli(ms))
				if diff < 0 {
					diff = -diff
				}
				if diff > window {
					log.Warnw("api request rejected: timestamp out of window",
						"path", c.Path(), "diff", diff.String())
					return http.WithRepErrStatus(c, fiber.StatusUnauthorized, http.TimestampExpired, "")
				}
			}
		}

		return c.Next()
	}
}

func inWhitelist(path string, whitelist []string) bool {
	for _, rule := range whitelist {
		if prefix, ok := strings.CutSuffix(rule, "/*"); ok {
			if strings.HasPrefix(path, prefix) {
				return true
			}
			continue
		}
		if path == rule {
			return true
		}
	}
	return false
}
