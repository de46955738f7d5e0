package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kassolightning/kassohub/lib/responses"
	"github.com/kassolightning/kassohub/lib/service"
)

// AddInvoiceController : Add invoice controller struct
type AddInvoiceController struct {
	svc *service.KassohubService
}

func NewAddInvoiceController(svc *service.KassohubService) *AddInvoiceController {
	return &AddInvoiceController{svc: svc}
}

type AddInvoiceRequestBody struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Memo   string `json:"memo"`
}

func (controller *AddInvoiceController) AddInvoice(c echo.Context) error {
	var body AddInvoiceRequestBody

	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load create invoice request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.InvalidAmountError)
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, responses.InvalidAmountError)
	}

	invoice, err := controller.svc.CreateInvoice(c.Request().Context(), body.Amount, body.Memo)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			return c.JSON(http.StatusBadRequest, responses.InvalidAmountError)
		case errors.Is(err, service.ErrGatewayTimeout):
			return c.JSON(http.StatusGatewayTimeout, responses.GatewayTimeoutError)
		case errors.Is(err, service.ErrGatewayUnavailable):
			return c.JSON(http.StatusBadGateway, responses.GatewayUnavailableError)
		}
		return err
	}

	return c.JSON(http.StatusOK, &invoice)
}
