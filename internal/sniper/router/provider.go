package router

import (
	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/go-arcade/sniper/pkg/http"
	"github.com/go-arcade/sniper/pkg/shutdown"
	"github.com/google/wire"
)

// ProviderSet 提供路由相关的依赖
var ProviderSet = wire.NewSet(
	ProvideRouter,
	wire.Struct(new(Services), "*"),
	wire.Bind(new(AuthVerifier), new(*ovh.Client)),
)

// ProvideRouter 提供路由实例
func ProvideRouter(httpConf *http.Http, services *Services, sm *shutdown.Manager) *Router {
	return NewRouter(httpConf, services, sm)
}
