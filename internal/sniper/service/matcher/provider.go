package matcher

import (
	"github.com/go-arcade/sniper/internal/pkg/notify"
	"github.com/go-arcade/sniper/internal/sniper/service/catalog"
	"github.com/go-arcade/sniper/internal/sniper/service/queue"
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideMatcher)

func ProvideMatcher(conf Conf, cat *catalog.Service, engine *queue.Engine, notifier *notify.Notifier, st *store.Store) *Matcher {
	m := New(conf, cat, engine, notifier, st)
	m.Load()
	return m
}
