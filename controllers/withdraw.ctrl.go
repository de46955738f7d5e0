package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kassolightning/kassohub/lib/responses"
	"github.com/kassolightning/kassohub/lib/service"
)

// WithdrawController : Withdraw controller struct
type WithdrawController struct {
	svc *service.KassohubService
}

func NewWithdrawController(svc *service.KassohubService) *WithdrawController {
	return &WithdrawController{svc: svc}
}

type WithdrawRequestBody struct {
	PaymentRequest string `json:"paymentRequest" validate:"required"`
}

func (controller *WithdrawController) Withdraw(c echo.Context) error {
	var body WithdrawRequestBody

	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load withdraw request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	entry, err := controller.svc.PayWithdrawal(c.Request().Context(), body.PaymentRequest)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPaymentRequest), errors.Is(err, service.ErrInvalidAmount):
			return c.JSON(http.StatusBadRequest, responses.InvalidDestinationError)
		case errors.Is(err, service.ErrGatewayTimeout):
			return c.JSON(http.StatusGatewayTimeout, responses.GatewayTimeoutError)
		case errors.Is(err, service.ErrGatewayUnavailable), errors.Is(err, service.ErrPaymentFailed):
			return c.JSON(http.StatusBadGateway, responses.GatewayUnavailableError)
		}
		return err
	}

	return c.JSON(http.StatusOK, &entry)
}
