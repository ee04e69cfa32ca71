package router

import (
	"github.com/go-arcade/sniper/internal/sniper/service/catalog"
	"github.com/gofiber/fiber/v2"
)

// serverRouter registers server list, availability and cache routes
func (rt *Router) serverRouter(r fiber.Router) {
	r.Get("/servers", rt.listServers)
	r.Get("/availability/:planCode", rt.getAvailability)
	r.Get("/cache/info", rt.cacheInfo)
	r.Post("/cache/clear", rt.clearCache)
}

func (rt *Router) listServers(c *fiber.Ctx) error {
	list := rt.Services.Catalog.Servers(c.UserContext(), catalog.ListOptions{
		ForceRefresh:   c.QueryBool("forceRefresh"),
		ShowAPIServers: c.QueryBool("showApiServers"),
	})
	return detail(c, list)
}

func (rt *Router) getAvailability(c *fiber.Ctx) error {
	var families []string
	if f := c.Query("addonFamily"); f != "" {
		families = append(families, f)
	}
	avail, err := rt.Services.Catalog.Availability(c.UserContext(), c.Params("planCode"), families...)
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, avail)
}

func (rt *Router) cacheInfo(c *fiber.Ctx) error {
	return detail(c, rt.Services.Catalog.CacheInfo())
}

func (rt *Router) clearCache(c *fiber.Ctx) error {
	var body struct {
		Type catalog.ClearType `json:"type"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	if body.Type == "" {
		body.Type = catalog.ClearAll
	}
	cleared, err := rt.Services.Catalog.ClearCache(c.UserContext(), body.Type)
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"cleared": cleared})
}
