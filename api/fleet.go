package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fairwayfleet/fleet-backend/fleet"
	"github.com/fairwayfleet/fleet-backend/internal/middleware"
)

func (a *API) fleetHealthHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	h, ok := a.currentHost(c)
	if !ok {
		return
	}

	carts, err := a.cr.GetByHost(c, h.ID)
	if err != nil {
		logger.ErrorContext(c, "failed to list carts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	rentals, err := a.rr.GetByHost(c, h.ID)
	if err != nil {
		logger.ErrorContext(c, "failed to list rentals", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, fleet.ClassifyFleet(carts, rentals, time.Now()))
}

type financialsResponse struct {
	Totals fleet.Totals        `json:"totals"`
	Series []fleet.SeriesPoint `json:"series"`
	Window fleet.Window        `json:"window"`
}

func (a *API) fleetFinancialsHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	h, ok := a.currentHost(c)
	if !ok {
		return
	}

	window := fleet.Window(c.DefaultQuery("window", string(fleet.Trailing30)))
	switch window {
	case fleet.Trailing30, fleet.Trailing90, fleet.YearToDate:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid window"})
		return
	}

	rentals, err := a.rr.GetByHost(c, h.ID)
	if err != nil {
		logger.ErrorContext(c, "failed to list rentals", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	logs, err := a.slr.GetByHost(c, h.ID)
	if err != nil {
		logger.ErrorContext(c, "failed to list service logs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, financialsResponse{
		Totals: fleet.ComputeTotals(rentals, logs),
		Series: fleet.ComputeSeries(rentals, logs, now, window),
		Window: window,
	})
}
