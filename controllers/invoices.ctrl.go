package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/kassolightning/kassohub/db"
	"github.com/kassolightning/kassohub/lib/responses"
	"github.com/kassolightning/kassohub/lib/service"
)

// InvoiceController : Invoice lookup controller struct
type InvoiceController struct {
	svc *service.KassohubService
}

func NewInvoiceController(svc *service.KassohubService) *InvoiceController {
	return &InvoiceController{svc: svc}
}

func (controller *InvoiceController) GetInvoices(c echo.Context) error {
	invoices, err := controller.svc.ListInvoices(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &invoices)
}

func (controller *InvoiceController) GetInvoice(c echo.Context) error {
	invoice, err := controller.svc.GetInvoice(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrInvoiceNotFound) {
			return c.JSON(http.StatusNotFound, responses.NotFoundError)
		}
		return err
	}
	return c.JSON(http.StatusOK, &invoice)
}

// GetInvoiceQR renders the payment request as a QR code PNG for display
// at the point of sale.
func (controller *InvoiceController) GetInvoiceQR(c echo.Context) error {
	invoice, err := controller.svc.GetInvoice(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrInvoiceNotFound) {
			return c.JSON(http.StatusNotFound, responses.NotFoundError)
		}
		return err
	}
	png, err := qrcode.Encode(invoice.PaymentRequest, qrcode.Medium, 256)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "image/png", png)
}
