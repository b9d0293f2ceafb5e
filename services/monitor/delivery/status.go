package delivery

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"somplus/domain"
)

type monitorHandler struct {
	muc      domain.MonitorUseCase
	opsToken string
	trigger  chan<- struct{}
}

// NewMonitorDelivery mounts the operational endpoints. A send on trigger
// asks the run loop for an out-of-band cycle.
func NewMonitorDelivery(app *fiber.App, uc domain.MonitorUseCase, opsToken string, trigger chan<- struct{}) {
	handler := &monitorHandler{
		muc:      uc,
		opsToken: opsToken,
		trigger:  trigger,
	}

	app.Get("/health", handler.deliveryHealth)
	app.Get("/status", handler.deliveryStatus)
	app.Post("/run", handler.tokenRequired, handler.deliveryRun)
}

func (mh *monitorHandler) tokenRequired(c *fiber.Ctx) error {
	token := strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
	if mh.opsToken == "" || token != mh.opsToken {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid or missing token",
		})
	}
	return c.Next()
}

func (mh *monitorHandler) deliveryHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "OK",
	})
}

func (mh *monitorHandler) deliveryStatus(c *fiber.Ctx) error {
	statuses := mh.muc.Statuses()

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Statuses retrieved successfully",
		"data":    statuses,
	})
}

func (mh *monitorHandler) deliveryRun(c *fiber.Ctx) error {
	select {
	case mh.trigger <- struct{}{}:
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"success": true,
			"message": "Cycle triggered",
		})
	default:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "A cycle is already pending",
		})
	}
}
