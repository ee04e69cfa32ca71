package vpsmonitor

import (
	"github.com/go-arcade/sniper/internal/pkg/notify"
	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideMonitor)

func ProvideMonitor(conf Conf, client *ovh.Client, notifier *notify.Notifier, st *store.Store) *Monitor {
	m := New(conf, client, notifier, st)
	m.Load()
	return m
}
