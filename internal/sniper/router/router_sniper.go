package router

import (
	"github.com/go-arcade/sniper/internal/sniper/service/matcher"
	"github.com/gofiber/fiber/v2"
)

// sniperRouter registers config sniper routes
func (rt *Router) sniperRouter(r fiber.Router) {
	s := r.Group("/config-sniper")
	{
		s.Get("/options/:planCode", rt.sniperOptions)
		s.Get("/tasks", rt.listSniperTasks)
		s.Post("/tasks", rt.createSniperTask)
		s.Delete("/tasks/:id", rt.deleteSniperTask)
		s.Put("/tasks/:id/toggle", rt.toggleSniperTask)
		s.Post("/tasks/:id/check", rt.checkSniperTask)
		s.Post("/quick-order", rt.quickOrder)
	}
}

func (rt *Router) sniperOptions(c *fiber.Ctx) error {
	opts, err := rt.Services.Matcher.ConfigOptions(c.UserContext(), c.Params("planCode"))
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, opts)
}

func (rt *Router) listSniperTasks(c *fiber.Ctx) error {
	tasks := rt.Services.Matcher.List()
	return detail(c, fiber.Map{"tasks": tasks, "total": len(tasks)})
}

func (rt *Router) createSniperTask(c *fiber.Ctx) error {
	var req matcher.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	task, msg, err := rt.Services.Matcher.Create(c.UserContext(), req)
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"task": task, "message": msg})
}

func (rt *Router) deleteSniperTask(c *fiber.Ctx) error {
	if err := rt.Services.Matcher.Delete(c.Params("id")); err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"id": c.Params("id")})
}

func (rt *Router) toggleSniperTask(c *fiber.Ctx) error {
	enabled, err := rt.Services.Matcher.Toggle(c.Params("id"))
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"enabled": enabled})
}

func (rt *Router) checkSniperTask(c *fiber.Ctx) error {
	task, res, err := rt.Services.Matcher.Check(c.UserContext(), c.Params("id"))
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"task": task, "result": res})
}

func (rt *Router) quickOrder(c *fiber.Ctx) error {
	var body struct {
		PlanCode   string `json:"planCode"`
		Datacenter string `json:"datacenter"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	task, err := rt.Services.Matcher.QuickOrder(body.PlanCode, body.Datacenter)
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, task)
}
