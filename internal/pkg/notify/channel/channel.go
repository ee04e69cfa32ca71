package channel

import (
	"context"
	"fmt"
)

// INotifyChannel defines the interface for notification channels
type INotifyChannel interface {
	// Send sends a plain text message
	Send(ctx context.Context, message string) error
	// Validate validates the channel configuration
	Validate() error
	// Close closes the channel connection
	Close() error
}

// StatusError 远端返回的非 2xx 响应
type StatusError struct {
	Channel    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed with status %d", e.Channel, e.StatusCode)
}

// Temporary 5xx 与 429 值得重试，其余 4xx 属于配置错误
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
