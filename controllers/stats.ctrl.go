package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kassolightning/kassohub/lib/service"
)

// StatsController : Dashboard stats controller struct
type StatsController struct {
	svc *service.KassohubService
}

func NewStatsController(svc *service.KassohubService) *StatsController {
	return &StatsController{svc: svc}
}

func (controller *StatsController) GetStats(c echo.Context) error {
	stats, err := controller.svc.ComputeStats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
