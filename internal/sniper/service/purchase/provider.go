package purchase

import (
	"github.com/go-arcade/sniper/internal/pkg/notify"
	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/go-arcade/sniper/internal/sniper/settings"
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideHistory, ProvideService)

func ProvideHistory(st *store.Store) *History {
	h := NewHistory(st)
	h.Load()
	return h
}

func ProvideService(client *ovh.Client, history *History, notifier *notify.Notifier, cfg *settings.Service) *Service {
	return NewService(client, history, notifier, cfg)
}
