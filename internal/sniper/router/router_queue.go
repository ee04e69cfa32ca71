package router

import (
	"github.com/go-arcade/sniper/internal/sniper/model"
	"github.com/go-arcade/sniper/internal/sniper/service/queue"
	"github.com/go-arcade/sniper/internal/sniper/service/stats"
	"github.com/go-arcade/sniper/pkg/http/middleware"
	"github.com/gofiber/fiber/v2"
)

// queueRouter registers purchase queue and history routes
func (rt *Router) queueRouter(r fiber.Router) {
	q := r.Group("/queue")
	{
		q.Get("/", rt.listQueue)
		q.Post("/", rt.addQueue)
		q.Delete("/clear", rt.clearQueue) // 必须在 /:id 之前
		q.Delete("/:id", rt.deleteQueue)
		q.Put("/:id/status", rt.updateQueueStatus)
	}

	r.Get("/purchase-history", rt.listHistory)
	r.Delete("/purchase-history", rt.clearHistory)
	r.Get("/stats", rt.getStats)
}

func (rt *Router) listQueue(c *fiber.Ctx) error {
	return detail(c, rt.Services.Queue.List())
}

func (rt *Router) addQueue(c *fiber.Ctx) error {
	var req queue.Request
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	task, err := rt.Services.Queue.Add(req)
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, task)
}

func (rt *Router) clearQueue(c *fiber.Ctx) error {
	return detail(c, fiber.Map{"count": rt.Services.Queue.Clear()})
}

func (rt *Router) deleteQueue(c *fiber.Ctx) error {
	if err := rt.Services.Queue.Delete(c.Params("id")); err != nil {
		return failWith(c, err)
	}
	c.Locals(middleware.OPERATION, "delete queue task")
	return nil
}

func (rt *Router) updateQueueStatus(c *fiber.Ctx) error {
	var body struct {
		Status model.TaskStatus `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	task, err := rt.Services.Queue.SetStatus(c.Params("id"), body.Status)
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, task)
}

func (rt *Router) listHistory(c *fiber.Ctx) error {
	return detail(c, rt.Services.History.List())
}

func (rt *Router) clearHistory(c *fiber.Ctx) error {
	return detail(c, fiber.Map{"count": rt.Services.History.Clear()})
}

func (rt *Router) getStats(c *fiber.Ctx) error {
	return detail(c, stats.Compute(
		rt.Services.Queue.List(),
		rt.Services.History.List(),
		rt.Services.Catalog.Snapshot(),
	))
}
