package settings

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-arcade/sniper/internal/pkg/notify"
	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/go-arcade/sniper/internal/sniper/model"
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(
	ProvideService,
	wire.Bind(new(ovh.CredentialSource), new(*Service)),
)

// TelegramSink 由通知模块实现
type TelegramSink interface {
	SetTelegram(token, chatID string)
	Send(ctx context.Context, text string) bool
}

func ProvideService(st *store.Store, conf ovh.Conf, notifier *notify.Notifier) *Service {
	s := New(st, conf, notifier)
	s.Load()
	return s
}

// Service owns the operator settings document.
type Service struct {
	store    *store.Store
	defaults ovh.Conf
	sink     TelegramSink

	mu       sync.RWMutex
	settings model.Settings
}

func New(st *store.Store, conf ovh.Conf, sink TelegramSink) *Service {
	conf.SetDefaults()
	s := &Service{store: st, defaults: conf, sink: sink}
	s.settings = s.withDefaults(model.Settings{})
	return s
}

func (s *Service) withDefaults(in model.Settings) model.Settings {
	if in.Endpoint == "" {
		in.Endpoint = s.defaults.Endpoint
	}
	if in.Zone == "" {
		in.Zone = s.defaults.Zone
	}
	if in.IAM == "" {
		in.IAM = "go-ovh-" + strings.ToLower(in.Zone)
	}
	return in
}

func (s *Service) Load() {
	loaded := s.settings
	if s.store != nil {
		loaded = store.LoadOrDefault(s.store, store.FileSettings, model.Settings{})
	}
	loaded = s.withDefaults(loaded)

	s.mu.Lock()
	s.settings = loaded
	s.mu.Unlock()

	if s.sink != nil {
		s.sink.SetTelegram(loaded.TgToken, loaded.TgChatID)
	}
}

func (s *Service) Get() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *Service) Zone() string {
	return s.Get().Zone
}

// Credentials implements ovh.CredentialSource.
func (s *Service) Credentials() ovh.Credentials {
	cur := s.Get()
	return ovh.Credentials{
		AppKey:      cur.AppKey,
		AppSecret:   cur.AppSecret,
		ConsumerKey: cur.ConsumerKey,
		Endpoint:    cur.Endpoint,
	}
}

// Update 持久化新配置；Telegram 参数变化时发送一条测试消息
func (s *Service) Update(ctx context.Context, in model.Settings) (model.Settings, error) {
	in = s.withDefaults(in)

	s.mu.Lock()
	old := s.settings
	s.settings = in
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Save(store.FileSettings, in); err != nil {
			return in, err
		}
	}
	log.Infow("settings saved", "source", "system", "endpoint", in.Endpoint, "zone", in.Zone)

	tgChanged := old.TgToken != in.TgToken || old.TgChatID != in.TgChatID
	if s.sink != nil && tgChanged {
		s.sink.SetTelegram(in.TgToken, in.TgChatID)
		if in.TgToken != "" && in.TgChatID != "" {
			msg := fmt.Sprintf("OVH Sniper 已连接\nTelegram 通知配置成功\n时间: %s", time.Now().Format("2006-01-02 15:04:05"))
			if !s.sink.Send(ctx, msg) {
				log.Warnw("telegram test message failed", "source", "system")
			}
		}
	}
	return in, nil
}
