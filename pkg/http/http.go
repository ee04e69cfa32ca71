package http

import (
	"fmt"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/9/8 15:38
 * @file: http.go
 * @description: http server config
 */

type Http struct {
	Host            string
	Port            int
	AccessLog       bool
	ReadTimeout     int
	WriteTimeout    int
	IdleTimeout     int
	ShutdownTimeout int
	BodyLimit       int
	Auth            Auth
}

// Auth 控制 /api/* 的共享密钥校验
type Auth struct {
	Enable bool
	APIKey string
	// TimestampWindow 单位秒，仅在请求携带 X-Request-Time 时校验
	TimestampWindow int
	Whitelist       []string
}

// SetDefaults 为未配置的字段填充默认值
func (h *Http) SetDefaults() {
	if h.Host == "" {
		h.Host = "0.0.0.0"
	}
	if h.Port == 0 {
		h.Port = 5000
	}
	if h.ReadTimeout <= 0 {
		h.ReadTimeout = 60
	}
	if h.WriteTimeout <= 0 {
		h.WriteTimeout = 60
	}
	if h.IdleTimeout <= 0 {
		h.IdleTimeout = 120
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 30
	}
	if h.BodyLimit <= 0 {
		h.BodyLimit = 4 * 1024 * 1024
	}
	if h.Auth.TimestampWindow <= 0 {
		h.Auth.TimestampWindow = 300
	}
}

// Address returns host:port for the listener.
func (h *Http) Address() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}
