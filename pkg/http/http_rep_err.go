package http

import (
	"github.com/gofiber/fiber/v2"
)

type ResponseErr struct {
	ErrCode int    `json:"code"`
	ErrMsg  any    `json:"errMsg"`
	Path    string `json:"path,omitempty"`
}

// WithRepErr 返回操作结果，返回结构体有path字段
func WithRepErr(c *fiber.Ctx, code int, errMsg string, path string) error {
	return c.JSON(ResponseErr{
		ErrCode: code,
		ErrMsg:  errMsg,
		Path:    path,
	})
}

// WithRepErrStatus 同 WithRepErr，并设置 HTTP 状态码
func WithRepErrStatus(c *fiber.Ctx, status int, rep *Response, errMsg string) error {
	if errMsg == "" {
		errMsg = rep.Msg
	}
	return c.Status(status).JSON(ResponseErr{
		ErrCode: rep.Code,
		ErrMsg:  errMsg,
		Path:    c.Path(),
	})
}
