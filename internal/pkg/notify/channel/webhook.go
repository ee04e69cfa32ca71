package channel

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// WebhookChannel 把消息以 {"message": ...} 推送到任意 HTTP 端点
type WebhookChannel struct {
	webhookURL string
	method     string
	client     *resty.Client
}

// NewWebhookChannel creates a new generic webhook notification channel
func NewWebhookChannel(webhookURL, method string, timeout time.Duration) *WebhookChannel {
	if method == "" {
		method = http.MethodPost
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookChannel{
		webhookURL: webhookURL,
		method:     method,
		client:     resty.New().SetTimeout(timeout),
	}
}

func (c *WebhookChannel) Send(ctx context.Context, message string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"message": message}).
		Execute(c.method, c.webhookURL)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return &StatusError{Channel: "webhook", StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

func (c *WebhookChannel) Validate() error {
	if c.webhookURL == "" {
		return fmt.Errorf("webhook URL is required")
	}
	return nil
}

func (c *WebhookChannel) Close() error {
	return nil
}
