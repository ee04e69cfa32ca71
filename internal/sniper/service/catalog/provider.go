package catalog

import (
	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/go-arcade/sniper/internal/sniper/settings"
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/go-arcade/sniper/pkg/cache"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideService)

func ProvideService(conf Conf, client *ovh.Client, st *store.Store, cfg *settings.Service, c cache.ICache) *Service {
	s := NewService(conf, client, st, cfg, c)
	s.Load()
	return s
}
