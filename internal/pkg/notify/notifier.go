package notify

import (
	"context"
	"errors"
	"time"

	"github.com/go-arcade/sniper/internal/pkg/notify/channel"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/go-arcade/sniper/pkg/metrics"
	"github.com/go-arcade/sniper/pkg/retry"
)

// Notifier 是业务侧唯一的通知入口，Send 从不返回 error
type Notifier struct {
	conf    Conf
	manager *NotifyManager
}

func NewNotifier(conf Conf) *Notifier {
	conf.SetDefaults()
	n := &Notifier{conf: conf, manager: NewNotifyManager()}
	if conf.WebhookURL != "" {
		ch := channel.NewWebhookChannel(conf.WebhookURL, conf.WebhookMethod, n.timeout())
		if err := n.manager.RegisterChannel(ChannelTypeWebhook, ch); err != nil {
			log.Warnw("webhook channel disabled", "error", err)
		}
	}
	return n
}

func (n *Notifier) timeout() time.Duration {
	return time.Duration(n.conf.Timeout) * time.Second
}

// SetTelegram 重建 Telegram 通道；token 或 chatID 为空时移除
func (n *Notifier) SetTelegram(token, chatID string) {
	if token == "" || chatID == "" {
		_ = n.manager.UnregisterChannel(ChannelTypeTelegram)
		return
	}
	ch := channel.NewTelegramChannel(token, chatID,
		channel.WithAPIBase(n.conf.TelegramAPI),
		channel.WithTimeout(n.timeout()),
	)
	if err := n.manager.RegisterChannel(ChannelTypeTelegram, ch); err != nil {
		log.Warnw("telegram channel disabled", "error", err)
	}
}

// Configured reports whether at least one channel is registered.
func (n *Notifier) Configured() bool {
	return len(n.manager.ListChannels()) > 0
}

// Send 投递到所有通道，至少一个成功即返回 true
func (n *Notifier) Send(ctx context.Context, text string) bool {
	if !n.Configured() {
		log.Warnw("notification skipped: no channel configured", "source", "notify")
		metrics.RecordNotification(false)
		return false
	}

	delivered, err := n.manager.Broadcast(ctx, func(ctx context.Context, name ChannelType, ch channel.INotifyChannel) error {
		return retry.Do(ctx, func(ctx context.Context) error {
			if err := ch.Send(ctx, text); err != nil {
				var se *channel.StatusError
				if errors.As(err, &se) && !se.Temporary() {
					return retry.Permanent(err)
				}
				return err
			}
			return nil
		},
			retry.WithMaxAttempts(n.conf.MaxAttempts),
			retry.WithMaxElapsedTime(time.Duration(n.conf.MaxElapsed)*time.Second),
			retry.WithBackoff(retry.Exponential(500*time.Millisecond, 5*time.Second)),
			retry.WithJitter(retry.FullJitter),
		)
	})
	if err != nil {
		log.Errorw("notification delivery failed", "source", "notify", "error", err)
	}

	ok := len(delivered) > 0
	metrics.RecordNotification(ok)
	if ok {
		log.Infow("notification sent", "source", "notify", "channels", delivered)
	}
	return ok
}
