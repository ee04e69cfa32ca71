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

package notify

// ChannelType represents the notification channel type
type ChannelType string

const (
	ChannelTypeTelegram ChannelType = "telegram"
	ChannelTypeWebhook  ChannelType = "webhook"
)

// Conf 通知配置，Telegram 凭据来自运行时 settings，不在此处
type Conf struct {
	Timeout       int // 秒
	MaxAttempts   int
	MaxElapsed    int // 秒，单条消息在一个通道上重试的总时长
	TelegramAPI   string
	WebhookURL    string
	WebhookMethod string
}

func (c *Conf) SetDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.MaxElapsed <= 0 {
		c.MaxElapsed = 30
	}
}
