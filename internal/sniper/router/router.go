package router

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/go-arcade/sniper/internal/sniper/journal"
	"github.com/go-arcade/sniper/internal/sniper/service/catalog"
	"github.com/go-arcade/sniper/internal/sniper/service/control"
	"github.com/go-arcade/sniper/internal/sniper/service/matcher"
	"github.com/go-arcade/sniper/internal/sniper/service/monitor"
	"github.com/go-arcade/sniper/internal/sniper/service/purchase"
	"github.com/go-arcade/sniper/internal/sniper/service/queue"
	"github.com/go-arcade/sniper/internal/sniper/service/vpsmonitor"
	"github.com/go-arcade/sniper/internal/sniper/settings"
	"github.com/go-arcade/sniper/pkg/http"
	"github.com/go-arcade/sniper/pkg/http/middleware"
	"github.com/go-arcade/sniper/pkg/metrics"
	"github.com/go-arcade/sniper/pkg/shutdown"
	"github.com/go-arcade/sniper/pkg/version"
	"github.com/gofiber/fiber/v2"
)

// AuthVerifier 校验当前 OVH 凭据
type AuthVerifier interface {
	Me(ctx context.Context) (*ovh.Me, error)
}

// Services 汇总路由依赖的业务服务
type Services struct {
	Settings *settings.Service
	Verifier AuthVerifier
	Journal  *journal.Journal
	Queue    *queue.Engine
	History  *purchase.History
	Catalog  *catalog.Service
	Monitor  *monitor.Monitor
	Matcher  *matcher.Matcher
	VPS      *vpsmonitor.Monitor
	Control  *control.Service
	Runtime  *metrics.RuntimeSink
}

type Router struct {
	Http     *http.Http
	Services *Services
	Shutdown *shutdown.Manager
	now      func() time.Time
}

func NewRouter(httpConf *http.Http, services *Services, sm *shutdown.Manager) *Router {
	return &Router{
		Http:     httpConf,
		Services: services,
		Shutdown: sm,
		now:      time.Now,
	}
}

func (rt *Router) Router() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "OVH Sniper",
		DisableStartupMessage: true,
		ReadTimeout:           time.Duration(rt.Http.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(rt.Http.WriteTimeout) * time.Second,
		IdleTimeout:           time.Duration(rt.Http.IdleTimeout) * time.Second,
		BodyLimit:             rt.Http.BodyLimit,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
	})

	app.Use(
		middleware.ExceptionMiddleware,
		middleware.RequestMiddleware(),
		middleware.AccessLogMiddleware(rt.Http),
		middleware.CorsMiddleware(),
		middleware.TraceMiddleware(),
		middleware.UnifiedResponseMiddleware(),
	)

	// 健康检查，关闭过程中返回 503 以便负载均衡摘除
	app.Get("/health", func(c *fiber.Ctx) error {
		if rt.Shutdown != nil && rt.Shutdown.IsShuttingDown() {
			return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
		}
		return c.SendString("ok")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(version.GetVersion())
	})

	api := app.Group("/api", middleware.APIKeyMiddleware(rt.Http.Auth, rt.now))
	{
		rt.settingsRouter(api)
		rt.queueRouter(api)
		rt.serverRouter(api)
		rt.monitorRouter(api)
		rt.sniperRouter(api)
		rt.vpsRouter(api)
		rt.controlRouter(api)
	}

	// 找不到路径时的处理，必须在所有路由注册之后
	app.Use(func(c *fiber.Ctx) error {
		return http.WithRepErrStatus(c, fiber.StatusNotFound, http.NotFound, "request path not found")
	})

	return app
}

// detail 把结果交给 UnifiedResponseMiddleware 包装
func detail(c *fiber.Ctx, v any) error {
	c.Locals(middleware.DETAIL, v)
	return nil
}

func badRequest(c *fiber.Ctx, msg string) error {
	return http.WithRepErrStatus(c, fiber.StatusBadRequest, http.BadRequest, msg)
}
