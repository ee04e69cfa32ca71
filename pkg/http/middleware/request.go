package middleware

import (
	"github.com/go-arcade/sniper/pkg/id"
	"github.com/gofiber/fiber/v2"
)

const (
	HeaderRequestID   = "X-Request-Id"
	HeaderAPIKey      = "X-API-Key"
	HeaderRequestTime = "X-Request-Time"

	LocalRequestID = "request_id"
)

func RequestMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestId := c.Get(HeaderRequestID)
		if requestId == "" {
			requestId = id.GetUUID()
		}
		c.Request().Header.Set(HeaderRequestID, requestId)
		c.Set(HeaderRequestID, requestId)
		c.Locals(LocalRequestID, requestId)
		return c.Next()
	}
}
