package control

import (
	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideService)

func ProvideService(client *ovh.Client) *Service {
	return NewService(client)
}
