package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kassolightning/kassohub/lib/service"
)

// TransactionsController : Ledger listing controller struct
type TransactionsController struct {
	svc *service.KassohubService
}

func NewTransactionsController(svc *service.KassohubService) *TransactionsController {
	return &TransactionsController{svc: svc}
}

func (controller *TransactionsController) GetTransactions(c echo.Context) error {
	entries, err := controller.svc.ListTransactions(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &entries)
}
