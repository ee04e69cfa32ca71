package router

import (
	"github.com/go-arcade/sniper/internal/sniper/model"
	"github.com/go-arcade/sniper/pkg/http/middleware"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/gofiber/fiber/v2"
)

// settingsRouter registers settings, auth check and journal routes
func (rt *Router) settingsRouter(r fiber.Router) {
	r.Get("/settings", rt.getSettings)
	r.Post("/settings", rt.saveSettings)
	r.Post("/verify-auth", rt.verifyAuth)

	logs := r.Group("/logs")
	{
		logs.Get("/", rt.listLogs)
		logs.Delete("/", rt.clearLogs)
		logs.Post("/flush", rt.flushLogs)
	}
	r.Get("/runtime/metrics", rt.runtimeMetrics)
}

func (rt *Router) getSettings(c *fiber.Ctx) error {
	return detail(c, rt.Services.Settings.Get())
}

func (rt *Router) saveSettings(c *fiber.Ctx) error {
	var in model.Settings
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	saved, err := rt.Services.Settings.Update(c.UserContext(), in)
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, saved)
}

// verifyAuth 调用 GET /me，凭据无效时返回 valid=false 而不是错误
func (rt *Router) verifyAuth(c *fiber.Ctx) error {
	me, err := rt.Services.Verifier.Me(c.UserContext())
	if err != nil {
		log.Warnw("ovh credentials verification failed", "source", "system", "error", err)
		return detail(c, fiber.Map{"valid": false, "error": err.Error()})
	}
	log.Infow("ovh credentials verified", "source", "system", "nichandle", me.Nichandle)
	return detail(c, fiber.Map{"valid": true, "nichandle": me.Nichandle, "email": me.Email})
}

func (rt *Router) listLogs(c *fiber.Ctx) error {
	entries := rt.Services.Journal.Entries()
	if entries == nil {
		entries = []model.LogEntry{}
	}
	return detail(c, entries)
}

func (rt *Router) clearLogs(c *fiber.Ctx) error {
	rt.Services.Journal.Clear()
	c.Locals(middleware.OPERATION, "clear logs")
	return nil
}

func (rt *Router) flushLogs(c *fiber.Ctx) error {
	if err := rt.Services.Journal.Flush(); err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"count": len(rt.Services.Journal.Entries())})
}

func (rt *Router) runtimeMetrics(c *fiber.Ctx) error {
	if rt.Services.Runtime == nil {
		return detail(c, fiber.Map{})
	}
	summary, err := rt.Services.Runtime.Summary()
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, summary)
}
