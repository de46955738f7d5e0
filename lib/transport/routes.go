package transport

import (
	"github.com/labstack/echo/v4"

	"github.com/kassolightning/kassohub/controllers"
	"github.com/kassolightning/kassohub/lib/service"
)

func RegisterEndpoints(svc *service.KassohubService, e *echo.Echo, strictRateLimitMiddleware echo.MiddlewareFunc, logMw echo.MiddlewareFunc) {
	e.POST("/invoices", controllers.NewAddInvoiceController(svc).AddInvoice, logMw)
	invoiceCtrl := controllers.NewInvoiceController(svc)
	e.GET("/invoices", invoiceCtrl.GetInvoices, logMw)
	e.GET("/invoices/:id", invoiceCtrl.GetInvoice, logMw)
	e.GET("/invoices/:id/qr", invoiceCtrl.GetInvoiceQR, logMw)
	e.GET("/transactions", controllers.NewTransactionsController(svc).GetTransactions, logMw)
	e.GET("/stats", controllers.NewStatsController(svc).GetStats, logMw)
	e.POST("/settlements/webhook", controllers.NewSettlementWebhookController(svc).HandleSettlement, logMw)
	// sending money out is the one surface worth a stricter limit
	e.POST("/withdraw", controllers.NewWithdrawController(svc).Withdraw, strictRateLimitMiddleware, logMw)
	e.GET("/stream", controllers.NewInvoiceStreamController(svc).StreamEvents)
}
