package api

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fairwayfleet/fleet-backend/cart"
	"github.com/fairwayfleet/fleet-backend/internal/middleware"
)

type cartResponse struct {
	ID               uuid.UUID        `json:"id"`
	Name             string           `json:"name"`
	KeyCode          string           `json:"keyCode"`
	Type             cart.VehicleType `json:"type"`
	AccessType       cart.AccessType  `json:"accessType"`
	UpsellPriceCents *int64           `json:"upsellPriceCents,omitempty"`
	UpsellUnit       *string          `json:"upsellUnit,omitempty"`
	AccessCode       *string          `json:"accessCode,omitempty"`
	RequireLockPhoto bool             `json:"requireLockPhoto"`
	DepositCents     int64            `json:"depositCents"`
	LastServicedAt   *time.Time       `json:"lastServicedAt,omitempty"`
	Active           bool             `json:"active"`
	CreatedAt        time.Time        `json:"createdAt"`
}

func toCartResponse(c cart.Cart) cartResponse {
	resp := cartResponse{
		ID:               c.ID,
		Name:             c.Name,
		KeyCode:          c.KeyCode,
		Type:             c.Type,
		AccessType:       c.AccessType,
		RequireLockPhoto: c.RequireLockPhoto,
		DepositCents:     c.DepositCents,
		Active:           c.Active,
		CreatedAt:        c.CreatedAt,
	}
	if c.UpsellPriceCents.Valid {
		resp.UpsellPriceCents = &c.UpsellPriceCents.Int64
	}
	if c.UpsellUnit.Valid {
		resp.UpsellUnit = &c.UpsellUnit.String
	}
	if c.AccessCode.Valid {
		resp.AccessCode = &c.AccessCode.String
	}
	if c.LastServicedAt.Valid {
		resp.LastServicedAt = &c.LastServicedAt.Time
	}
	return resp
}

type cartRequest struct {
	Name             string           `json:"name" binding:"required"`
	KeyCode          string           `json:"keyCode"`
	Type             cart.VehicleType `json:"type"`
	AccessType       cart.AccessType  `json:"accessType" binding:"required"`
	UpsellPriceCents *int64           `json:"upsellPriceCents"`
	UpsellUnit       *string          `json:"upsellUnit"`
	AccessCode       *string          `json:"accessCode"`
	RequireLockPhoto bool             `json:"requireLockPhoto"`
	DepositCents     int64            `json:"depositCents"`
	Active           *bool            `json:"active"`
}

func (req cartRequest) apply(c *cart.Cart) {
	c.Name = req.Name
	c.KeyCode = req.KeyCode
	c.Type = req.Type
	c.AccessType = req.AccessType
	c.UpsellPriceCents = sql.NullInt64{}
	if req.UpsellPriceCents != nil {
		c.UpsellPriceCents = sql.NullInt64{Int64: *req.UpsellPriceCents, Valid: true}
	}
	c.UpsellUnit = sql.NullString{}
	if req.UpsellUnit != nil {
		c.UpsellUnit = sql.NullString{String: *req.UpsellUnit, Valid: true}
	}
	c.AccessCode = sql.NullString{}
	if req.AccessCode != nil {
		c.AccessCode = sql.NullString{String: *req.AccessCode, Valid: true}
	}
	c.RequireLockPhoto = req.RequireLockPhoto
	c.DepositCents = req.DepositCents
	c.Active = true
	if req.Active != nil {
		c.Active = *req.Active
	}
}

func (a *API) getCartsHandler(c *gin.Context) {
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

	responses := make([]cartResponse, 0, len(carts))
	for _, ct := range carts {
		responses = append(responses, toCartResponse(ct))
	}
	c.JSON(http.StatusOK, responses)
}

func (a *API) getCartHandler(c *gin.Context) {
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

	ct, err := a.cr.Get(c, cartID, h.ID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "CART_NOT_FOUND", "message": "Cart not found"})
			return
		}
		logger.ErrorContext(c, "failed to get cart", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toCartResponse(ct))
}

func (a *API) createCartHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	h, ok := a.currentHost(c)
	if !ok {
		return
	}

	var req cartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	ct := cart.Cart{ID: uuid.New(), HostID: h.ID}
	req.apply(&ct)

	if err := a.cr.Create(c, &ct); err != nil {
		if errors.Is(err, cart.ErrInvalidAccessPolicy) {
			c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_ACCESS_POLICY", "message": err.Error()})
			return
		}
		logger.ErrorContext(c, "failed to create cart", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, toCartResponse(ct))
}

func (a *API) updateCartHandler(c *gin.Context) {
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

	var req cartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	ct := cart.Cart{ID: cartID, HostID: h.ID}
	req.apply(&ct)

	if err := a.cr.Update(c, &ct); err != nil {
		if errors.Is(err, cart.ErrInvalidAccessPolicy) {
			c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_ACCESS_POLICY", "message": err.Error()})
			return
		}
		if errors.Is(err, cart.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "CART_NOT_FOUND", "message": "Cart not found"})
			return
		}
		logger.ErrorContext(c, "failed to update cart", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toCartResponse(ct))
}

func (a *API) deleteCartHandler(c *gin.Context) {
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

	if err := a.cr.Delete(c, cartID, h.ID); err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "CART_NOT_FOUND", "message": "Cart not found"})
			return
		}
		logger.ErrorContext(c, "failed to delete cart", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.Status(http.StatusNoContent)
}
