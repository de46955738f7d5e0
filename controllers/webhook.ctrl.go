package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kassolightning/kassohub/lib/responses"
	"github.com/kassolightning/kassohub/lib/service"
)

// SettlementWebhookController : Settlement event ingestion controller struct
type SettlementWebhookController struct {
	svc *service.KassohubService
}

func NewSettlementWebhookController(svc *service.KassohubService) *SettlementWebhookController {
	return &SettlementWebhookController{svc: svc}
}

// HandleSettlement accepts a settlement notification from the node
// operator's infrastructure. The reconciler is idempotent, so redelivery
// of the same event is safe.
func (controller *SettlementWebhookController) HandleSettlement(c echo.Context) error {
	var event service.SettlementEvent

	if err := c.Bind(&event); err != nil {
		c.Logger().Errorf("Failed to load settlement event body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&event); err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := controller.svc.ProcessSettlementEvent(c.Request().Context(), &event); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
