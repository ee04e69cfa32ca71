package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/go-arcade/sniper/pkg/http"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/gofiber/fiber/v2"
)

// ExceptionMiddleware 捕获 handler panic，统一返回 5000，堆栈只写日志
func ExceptionMiddleware(c *fiber.Ctx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("panic in http handler",
				"path", c.Path(),
				"method", c.Method(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			err = http.WithRepErrStatus(c, fiber.StatusInternalServerError, http.InternalError, errorToString(r))
		}
	}()

	return c.Next()
}

func errorToString(r any) string {
	switch v := r.(type) {
	case http.ResponseErr:
		if errMsg, ok := v.ErrMsg.(string); ok {
			return errMsg
		}
		return http.InternalError.Msg
	case string:
		return v
	default:
		// 不把内部错误细节返回给客户端
		return http.InternalError.Msg
	}
}
