package queue

import (
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideEngine)

func ProvideEngine(conf Conf, purchaser Purchaser, st *store.Store) *Engine {
	e := NewEngine(conf, purchaser, st)
	e.Load()
	return e
}
