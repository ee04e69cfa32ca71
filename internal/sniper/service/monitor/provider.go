package monitor

import (
	"github.com/go-arcade/sniper/internal/pkg/notify"
	"github.com/go-arcade/sniper/internal/sniper/service/catalog"
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideMonitor)

func ProvideMonitor(conf Conf, cat *catalog.Service, notifier *notify.Notifier, st *store.Store) *Monitor {
	m := New(conf, cat, notifier, st)
	m.Load()
	return m
}
