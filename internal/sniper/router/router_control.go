package router

import (
	"strconv"

	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/gofiber/fiber/v2"
)

// controlRouter registers routes that operate servers already delivered to the account
func (rt *Router) controlRouter(r fiber.Router) {
	s := r.Group("/server-control")
	{
		s.Get("/list", rt.listControlServers)
		s.Get("/partition-schemes", rt.partitionSchemes)
		s.Post("/:serviceName/reboot", rt.rebootServer)
		s.Get("/:serviceName/templates", rt.serverTemplates)
		s.Post("/:serviceName/install", rt.installServer)
		s.Get("/:serviceName/tasks", rt.serverTasks)
		s.Get("/:serviceName/boot", rt.serverBoot)
		s.Put("/:serviceName/boot/:bootId", rt.setServerBoot)
		s.Get("/:serviceName/monitoring", rt.serverMonitoring)
		s.Put("/:serviceName/monitoring", rt.setServerMonitoring)
		s.Get("/:serviceName/hardware", rt.serverHardware)
		s.Get("/:serviceName/ips", rt.serverIPs)
		s.Get("/:serviceName/reverse", rt.serverReverses)
		s.Post("/:serviceName/reverse", rt.setServerReverse)
		s.Get("/:serviceName/serviceinfo", rt.serverServiceInfo)
	}
}

func (rt *Router) listControlServers(c *fiber.Ctx) error {
	servers, err := rt.Services.Control.List(c.UserContext())
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"servers": servers, "total": len(servers)})
}

func (rt *Router) rebootServer(c *fiber.Ctx) error {
	task, err := rt.Services.Control.Reboot(c.UserContext(), c.Params("serviceName"))
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"serviceName": c.Params("serviceName"), "task": task})
}

func (rt *Router) serverTemplates(c *fiber.Ctx) error {
	templates, err := rt.Services.Control.Templates(c.UserContext(), c.Params("serviceName"))
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"templates": templates, "total": len(templates)})
}

func (rt *Router) installServer(c *fiber.Ctx) error {
	var req ovh.InstallRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	task, err := rt.Services.Control.Install(c.UserContext(), c.Params("serviceName"), req)
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"serviceName": c.Params("serviceName"), "task": task})
}

func (rt *Router) serverTasks(c *fiber.Ctx) error {
	tasks, err := rt.Services.Control.Tasks(c.UserContext(), c.Params("serviceName"))
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"tasks": tasks})
}

func (rt *Router) serverBoot(c *fiber.Ctx) error {
	cfg, err := rt.Services.Control.BootConfig(c.UserContext(), c.Params("serviceName"))
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, cfg)
}

func (rt *Router) setServerBoot(c *fiber.Ctx) error {
	bootID, err := strconv.ParseInt(c.Params("bootId"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid bootId")
	}
	if err := rt.Services.Control.SetBoot(c.UserContext(), c.Params("serviceName"), bootID); err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"serviceName": c.Params("serviceName"), "bootId": bootID})
}

func (rt *Router) serverMonitoring(c *fiber.Ctx) error {
	enabled, err := rt.Services.Control.Monitoring(c.UserContext(), c.Params("serviceName"))
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"monitoring": enabled})
}

func (rt *Router) setServerMonitoring(c *fiber.Ctx) error {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := rt.Services.Control.SetMonitoring(c.UserContext(), c.Params("serviceName"), body.Enabled); err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"monitoring": body.Enabled})
}

func (rt *Router) serverHardware(c *fiber.Ctx) error {
	hw, err := rt.Services.Control.Hardware(c.UserContext(), c.Params("serviceName"))
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, hw)
}

func (rt *Router) serverIPs(c *fiber.Ctx) error {
	ips, err := rt.Services.Control.IPs(c.UserContext(), c.Params("serviceName"))
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"ips": ips})
}

func (rt *Router) serverReverses(c *fiber.Ctx) error {
	reverses, err := rt.Services.Control.Reverses(c.UserContext(), c.Params("serviceName"))
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"reverses": reverses})
}

func (rt *Router) setServerReverse(c *fiber.Ctx) error {
	var body struct {
		IP      string `json:"ip"`
		Reverse string `json:"reverse"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := rt.Services.Control.SetReverse(c.UserContext(), c.Params("serviceName"), body.IP, body.Reverse); err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"ip": body.IP, "reverse": body.Reverse})
}

func (rt *Router) serverServiceInfo(c *fiber.Ctx) error {
	info, err := rt.Services.Control.ServiceInfo(c.UserContext(), c.Params("serviceName"))
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, info)
}

func (rt *Router) partitionSchemes(c *fiber.Ctx) error {
	schemes, err := rt.Services.Control.PartitionSchemes(c.UserContext(), c.Query("templateName"))
	if err != nil {
		return failWith(c, err)
	}
	return detail(c, fiber.Map{"schemes": schemes})
}
