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
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

var (
	allowMethods = []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodDelete, fiber.MethodOptions}
	allowHeaders = []string{
		"Origin", "X-Requested-With", "Content-Type", "Accept",
		HeaderAPIKey, HeaderRequestTime, HeaderRequestID,
	}
	exposeHeaders = []string{"Content-Length", "Content-Type", HeaderRequestID}
)

// CorsMiddleware 前端与后端分离部署，允许任意来源，鉴权依赖 X-API-Key 而非 cookie
func CorsMiddleware() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  strings.Join(allowMethods, ", "),
		AllowHeaders:  strings.Join(allowHeaders, ", "),
		ExposeHeaders: strings.Join(exposeHeaders, ", "),
	})
}
