package router

import (
	"github.com/go-arcade/sniper/internal/sniper/service/vpsmonitor"
	"github.com/gofiber/fiber/v2"
)

// vpsRouter registers VPS stock monitor routes
func (rt *Router) vpsRouter(r fiber.Router) {
	v := r.Group("/vps-monitor")
	{
		v.Get("/subscriptions", rt.listVPSSubscriptions)
		v.Post("/subscriptions", rt.addVPSSubscription)
		v.Delete("/subscriptions/clear", rt.clearVPSSubscriptions)
		v.Delete("/subscriptions/:id", rt.removeVPSSubscription)
		v.Get("/subscriptions/:id/history", rt.vpsSubscriptionHistory)
		v.Post("/start", rt.startVPSMonitor)
		v.Post("/stop", rt.stopVPSMonitor)
		v.Get("/status", rt.vpsMonitorStatus)
		v.Put("/interval", rt.setVPSMonitorInterval)
		v.Post("/check/:planCode", rt.checkVPS)
	}
}

func (rt *Router) listVPSSubscriptions(c *fiber.Ctx) error {
	return detail(c, rt.Services.VPS.Subscriptions())
}

func (rt *Router) addVPSSubscription(c *fiber.Ctx) error {
	var req vpsmonitor.SubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	sub, err := rt.Services.VPS.Subscribe(req)
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, sub)
}

func (rt *Router) clearVPSSubscriptions(c *fiber.Ctx) error {
	return detail(c, fiber.Map{"count": rt.Services.VPS.Clear()})
}

func (rt *Router) removeVPSSubscription(c *fiber.Ctx) error {
	if err := rt.Services.VPS.Unsubscribe(c.Params("id")); err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"id": c.Params("id")})
}

func (rt *Router) vpsSubscriptionHistory(c *fiber.Ctx) error {
	planCode, history, err := rt.Services.VPS.History(c.Params("id"))
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"planCode": planCode, "history": history})
}

func (rt *Router) startVPSMonitor(c *fiber.Ctx) error {
	return detail(c, fiber.Map{"started": rt.Services.VPS.Start()})
}

func (rt *Router) stopVPSMonitor(c *fiber.Ctx) error {
	return detail(c, fiber.Map{"stopped": rt.Services.VPS.Stop()})
}

func (rt *Router) vpsMonitorStatus(c *fiber.Ctx) error {
	return detail(c, rt.Services.VPS.Status())
}

func (rt *Router) setVPSMonitorInterval(c *fiber.Ctx) error {
	var body struct {
		Interval int `json:"interval"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := rt.Services.VPS.SetCheckInterval(body.Interval); err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"interval": body.Interval})
}

// checkVPS 手动查询一次机房规则，不影响订阅状态
func (rt *Router) checkVPS(c *fiber.Ctx) error {
	var body struct {
		OvhSubsidiary string `json:"ovhSubsidiary"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	rule, err := rt.Services.VPS.Check(c.UserContext(), c.Params("planCode"), body.OvhSubsidiary)
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, rule)
}
