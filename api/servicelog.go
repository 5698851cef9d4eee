package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fairwayfleet/fleet-backend/internal/middleware"
	"github.com/fairwayfleet/fleet-backend/servicelog"
)

type serviceLogResponse struct {
	ID          uuid.UUID `json:"id"`
	CartID      uuid.UUID `json:"cartId"`
	ServicedOn  string    `json:"servicedOn"`
	ServiceType string    `json:"serviceType"`
	CostCents   int64     `json:"costCents"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toServiceLogResponse(l servicelog.ServiceLog) serviceLogResponse {
	return serviceLogResponse{
		ID:          l.ID,
		CartID:      l.CartID,
		ServicedOn:  l.ServicedOn.Format("2006-01-02"),
		ServiceType: l.ServiceType,
		CostCents:   l.CostCents,
		Notes:       l.Notes,
		CreatedAt:   l.CreatedAt,
	}
}

type createServiceLogRequest struct {
	ServicedOn  string `json:"servicedOn" binding:"required"`
	ServiceType string `json:"serviceType" binding:"required"`
	CostCents   int64  `json:"costCents"`
	Notes       string `json:"notes"`
}

func (a *API) getServiceLogsHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	h, ok := a.currentHost(c)
	if !ok {
		return
	}

	cartID, err := uuid.Parse(c.Param("cartId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid cartId"})
		return
	}

	logs, err := a.slr.GetByCart(c, cartID, h.ID)
	if err != nil {
		logger.ErrorContext(c, "failed to list service logs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	responses := make([]serviceLogResponse, 0, len(logs))
	for _, l := range logs {
		responses = append(responses, toServiceLogResponse(l))
	}
	c.JSON(http.StatusOK, responses)
}

func (a *API) createServiceLogHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	h, ok := a.currentHost(c)
	if !ok {
		return
	}

	cartID, err := uuid.Parse(c.Param("cartId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid cartId"})
		return
	}

	var req createServiceLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	servicedOn, err := time.Parse("2006-01-02", req.ServicedOn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid servicedOn date"})
		return
	}

	l := servicelog.ServiceLog{
		ID:          uuid.New(),
		CartID:      cartID,
		HostID:      h.ID,
		ServicedOn:  servicedOn,
		ServiceType: req.ServiceType,
		CostCents:   req.CostCents,
		Notes:       req.Notes,
	}

	if err := a.slr.Create(c, &l); err != nil {
		if errors.Is(err, servicelog.ErrNegativeCost) {
			c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_COST", "message": err.Error()})
			return
		}
		if errors.Is(err, servicelog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "CART_NOT_FOUND", "message": "Cart not found"})
			return
		}
		logger.ErrorContext(c, "failed to create service log", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, toServiceLogResponse(l))
}

type updateCostRequest struct {
	CostCents int64 `json:"costCents"`
}

func (a *API) updateServiceLogCostHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	h, ok := a.currentHost(c)
	if !ok {
		return
	}

	logID, err := uuid.Parse(c.Param("logId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid logId"})
		return
	}

	var req updateCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	l, err := a.slr.UpdateCost(c, logID, h.ID, req.CostCents)
	if err != nil {
		if errors.Is(err, servicelog.ErrNegativeCost) {
			c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_COST", "message": err.Error()})
			return
		}
		if errors.Is(err, servicelog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "LOG_NOT_FOUND", "message": "Service log not found"})
			return
		}
		logger.ErrorContext(c, "failed to update service log cost", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toServiceLogResponse(l))
}
