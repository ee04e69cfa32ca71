package router

import (
	"errors"

	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/go-arcade/sniper/internal/sniper/service/catalog"
	"github.com/go-arcade/sniper/internal/sniper/service/control"
	"github.com/go-arcade/sniper/internal/sniper/service/matcher"
	"github.com/go-arcade/sniper/internal/sniper/service/monitor"
	"github.com/go-arcade/sniper/internal/sniper/service/queue"
	"github.com/go-arcade/sniper/internal/sniper/service/vpsmonitor"
	"github.com/go-arcade/sniper/pkg/http"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/go-arcade/sniper/pkg/statemachine"
	"github.com/gofiber/fiber/v2"
)

// failWith maps service errors to HTTP status and response code.
func failWith(c *fiber.Ctx, err error) error {
	var apiErr *ovh.APIError
	switch {
	case errors.Is(err, ovh.ErrNotConfigured):
		return http.WithRepErrStatus(c, fiber.StatusBadRequest, http.VendorNotConfigured, "")
	case errors.As(err, &apiErr):
		return http.WithRepErrStatus(c, fiber.StatusBadGateway, http.VendorRequestFailed, apiErr.Error())
	case errors.Is(err, queue.ErrTaskNotFound),
		errors.Is(err, matcher.ErrTaskNotFound),
		errors.Is(err, matcher.ErrPlanNotFound),
		errors.Is(err, monitor.ErrSubscriptionNotFound),
		errors.Is(err, vpsmonitor.ErrSubscriptionNotFound):
		return http.WithRepErrStatus(c, fiber.StatusNotFound, http.NotFound, err.Error())
	case errors.Is(err, statemachine.ErrInvalidTransition):
		return http.WithRepErrStatus(c, fiber.StatusConflict, http.InvalidStatusChange, err.Error())
	case errors.Is(err, monitor.ErrIntervalTooShort):
		return http.WithRepErrStatus(c, fiber.StatusBadRequest, http.IntervalTooShort, "")
	case errors.Is(err, queue.ErrInvalidTask),
		errors.Is(err, queue.ErrInvalidStatus),
		errors.Is(err, matcher.ErrInvalidTask),
		errors.Is(err, matcher.ErrInvalidMode),
		errors.Is(err, matcher.ErrInvalidTarget),
		errors.Is(err, monitor.ErrEmptyPlanCode),
		errors.Is(err, catalog.ErrInvalidClearType),
		errors.Is(err, vpsmonitor.ErrDuplicate),
		errors.Is(err, control.ErrTemplateRequired),
		errors.Is(err, control.ErrReverseRequired):
		return http.WithRepErrStatus(c, fiber.StatusBadRequest, http.BadRequest, err.Error())
	}
	log.Errorw("request failed", "path", c.Path(), "error", err)
	return http.WithRepErrStatus(c, fiber.StatusInternalServerError, http.InternalError, err.Error())
}
