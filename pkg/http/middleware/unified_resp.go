package middleware

import (
	"github.com/go-arcade/sniper/pkg/http"
	"github.com/gofiber/fiber/v2"
)

// handler 通过 Locals 交付结果，由本中间件统一包装
const (
	DETAIL    = "detail"
	OPERATION = "operation"
)

func UnifiedResponseMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}

		// 非 2xx 由 handler 或前置中间件自行写出错误体
		status := c.Response().StatusCode()
		if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
			return nil
		}

		if detail := c.Locals(DETAIL); detail != nil {
			return http.WithRepJSON(c, detail)
		}
		if c.Locals(OPERATION) != nil {
			return http.WithRepNotDetail(c)
		}
		return nil
	}
}
