package router

import (
	"github.com/go-arcade/sniper/internal/sniper/service/monitor"
	"github.com/gofiber/fiber/v2"
)

// monitorRouter registers availability monitor routes
func (rt *Router) monitorRouter(r fiber.Router) {
	m := r.Group("/monitor")
	{
		m.Get("/subscriptions", rt.listSubscriptions)
		m.Post("/subscriptions", rt.addSubscription)
		m.Delete("/subscriptions/clear", rt.clearSubscriptions)
		m.Delete("/subscriptions/:planCode", rt.removeSubscription)
		m.Get("/subscriptions/:planCode/history", rt.subscriptionHistory)
		m.Post("/start", rt.startMonitor)
		m.Post("/stop", rt.stopMonitor)
		m.Get("/status", rt.monitorStatus)
		m.Put("/interval", rt.setMonitorInterval)
		m.Post("/test-notification", rt.testNotification)
	}
}

func (rt *Router) listSubscriptions(c *fiber.Ctx) error {
	return detail(c, rt.Services.Monitor.Subscriptions())
}

// addSubscription 新增订阅后若监控未运行则自动启动
func (rt *Router) addSubscription(c *fiber.Ctx) error {
	var req monitor.SubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	sub, created, err := rt.Services.Monitor.Subscribe(req)
	if err != nil {
		return failWith(c, err)
	}
	started := false
	if !rt.Services.Monitor.Running() {
		started = rt.Services.Monitor.Start()
	}
	return detail(c, fiber.Map{"subscription": sub, "created": created, "monitorStarted": started})
}

func (rt *Router) clearSubscriptions(c *fiber.Ctx) error {
	return detail(c, fiber.Map{"count": rt.Services.Monitor.ClearSubscriptions()})
}

func (rt *Router) removeSubscription(c *fiber.Ctx) error {
	if err := rt.Services.Monitor.Unsubscribe(c.Params("planCode")); err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"planCode": c.Params("planCode")})
}

func (rt *Router) subscriptionHistory(c *fiber.Ctx) error {
	history, err := rt.Services.Monitor.History(c.Params("planCode"))
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"planCode": c.Params("planCode"), "history": history})
}

func (rt *Router) startMonitor(c *fiber.Ctx) error {
	return detail(c, fiber.Map{"started": rt.Services.Monitor.Start()})
}

func (rt *Router) stopMonitor(c *fiber.Ctx) error {
	return detail(c, fiber.Map{"stopped": rt.Services.Monitor.Stop()})
}

func (rt *Router) monitorStatus(c *fiber.Ctx) error {
	return detail(c, rt.Services.Monitor.Status())
}

func (rt *Router) setMonitorInterval(c *fiber.Ctx) error {
	var body struct {
		Interval int `json:"interval"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := rt.Services.Monitor.SetCheckInterval(body.Interval); err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"interval": body.Interval})
}

func (rt *Router) testNotification(c *fiber.Ctx) error {
	return detail(c, fiber.Map{"sent": rt.Services.Monitor.TestNotification(c.UserContext())})
}
