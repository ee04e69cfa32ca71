package channel

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/go-resty/resty/v2"
)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramChannel implements Telegram notification channel
type TelegramChannel struct {
	botToken  string
	chatID    string
	parseMode string // optional: "Markdown", "MarkdownV2", "HTML"
	apiBase   string
	client    *resty.Client
}

type TelegramOption func(*TelegramChannel)

// WithParseMode 默认纯文本，消息里的下划线等字符不会被误解析
func WithParseMode(mode string) TelegramOption {
	return func(c *TelegramChannel) { c.parseMode = mode }
}

// WithAPIBase 替换 api.telegram.org，测试或自建代理时使用
func WithAPIBase(base string) TelegramOption {
	return func(c *TelegramChannel) {
		if base != "" {
			c.apiBase = strings.TrimRight(base, "/")
		}
	}
}

func WithTimeout(d time.Duration) TelegramOption {
	return func(c *TelegramChannel) {
		if d > 0 {
			c.client.SetTimeout(d)
		}
	}
}

// NewTelegramChannel creates a new Telegram notification channel
func NewTelegramChannel(botToken, chatID string, opts ...TelegramOption) *TelegramChannel {
	c := &TelegramChannel{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultTelegramAPI,
		client:   resty.New().SetTimeout(10 * time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send sends message to Telegram
func (c *TelegramChannel) Send(ctx context.Context, message string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	payload := map[string]any{
		"chat_id": c.chatID,
		"text":    message,
	}
	if c.parseMode != "" {
		payload["parse_mode"] = c.parseMode
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(fmt.Sprintf("%s/bot%s/sendMessage", c.apiBase, c.botToken))
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		log.Debugw("telegram request failed", "statusCode", resp.StatusCode(), "response", resp.String())
		return &StatusError{Channel: "telegram", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := sonic.Unmarshal(resp.Body(), &result); err != nil {
		return fmt.Errorf("failed to decode telegram response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram API error: %s", result.Description)
	}
	return nil
}

// Validate validates the configuration
func (c *TelegramChannel) Validate() error {
	if c.botToken == "" {
		return fmt.Errorf("telegram bot token is required")
	}
	if c.chatID == "" {
		return fmt.Errorf("telegram chat ID is required")
	}
	return nil
}

func (c *TelegramChannel) Close() error {
	return nil
}
