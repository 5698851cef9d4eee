package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/refund"

	"github.com/fairwayfleet/fleet-backend/cart"
	"github.com/fairwayfleet/fleet-backend/internal/middleware"
	"github.com/fairwayfleet/fleet-backend/rental"
)

type rentalResponse struct {
	ID             uuid.UUID            `json:"id"`
	CartID         uuid.UUID            `json:"cartId"`
	GuestName      string               `json:"guestName"`
	GuestPhone     string               `json:"guestPhone"`
	Photos         []string             `json:"photos"`
	Status         rental.Status        `json:"status"`
	WaiverAgreed   bool                 `json:"waiverAgreed"`
	WaiverSignedAt *time.Time           `json:"waiverSignedAt,omitempty"`
	RevenueCents   *int64               `json:"revenueCents,omitempty"`
	DepositStatus  rental.DepositStatus `json:"depositStatus"`
	CreatedAt      time.Time            `json:"createdAt"`
	CompletedAt    *time.Time           `json:"completedAt,omitempty"`
}

func toRentalResponse(rt rental.Rental) rentalResponse {
	resp := rentalResponse{
		ID:            rt.ID,
		CartID:        rt.CartID,
		GuestName:     rt.GuestName,
		GuestPhone:    rt.GuestPhone,
		Photos:        rt.Photos,
		Status:        rt.Status,
		WaiverAgreed:  rt.WaiverAgreed,
		DepositStatus: rt.DepositStatus,
		CreatedAt:     rt.CreatedAt,
	}
	if resp.Photos == nil {
		resp.Photos = []string{}
	}
	if rt.WaiverSignedAt.Valid {
		resp.WaiverSignedAt = &rt.WaiverSignedAt.Time
	}
	if rt.RevenueCents.Valid {
		resp.RevenueCents = &rt.RevenueCents.Int64
	}
	if rt.CompletedAt.Valid {
		resp.CompletedAt = &rt.CompletedAt.Time
	}
	return resp
}

func (a *API) getRentalsHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	h, ok := a.currentHost(c)
	if !ok {
		return
	}

	rentals, err := a.rr.GetByHost(c, h.ID)
	if err != nil {
		logger.ErrorContext(c, "failed to list rentals", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	responses := make([]rentalResponse, 0, len(rentals))
	for _, rt := range rentals {
		responses = append(responses, toRentalResponse(rt))
	}
	c.JSON(http.StatusOK, responses)
}

func (a *API) getRentalHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	h, ok := a.currentHost(c)
	if !ok {
		return
	}

	rentalID, err := uuid.Parse(c.Param("rentalId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid rentalId"})
		return
	}

	rt, err := a.rr.GetForHost(c, rentalID, h.ID)
	if err != nil {
		if errors.Is(err, rental.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "RENTAL_NOT_FOUND", "message": "Rental not found"})
			return
		}
		logger.ErrorContext(c, "failed to get rental", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toRentalResponse(rt))
}

type updateRevenueRequest struct {
	RevenueCents int64 `json:"revenueCents"`
}

func (a *API) updateRevenueHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	h, ok := a.currentHost(c)
	if !ok {
		return
	}

	rentalID, err := uuid.Parse(c.Param("rentalId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid rentalId"})
		return
	}

	var req updateRevenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}
	if req.RevenueCents < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Revenue must not be negative"})
		return
	}

	rt, err := a.rr.UpdateRevenue(c, rentalID, h.ID, req.RevenueCents)
	if err != nil {
		if errors.Is(err, rental.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "RENTAL_NOT_FOUND", "message": "Rental not found"})
			return
		}
		logger.ErrorContext(c, "failed to update revenue", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toRentalResponse(rt))
}

type updateDepositRequest struct {
	Status rental.DepositStatus `json:"status" binding:"required"`
}

func (a *API) updateDepositHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	h, ok := a.currentHost(c)
	if !ok {
		return
	}

	rentalID, err := uuid.Parse(c.Param("rentalId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid rentalId"})
		return
	}

	var req updateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}
	switch req.Status {
	case rental.DepositPending, rental.DepositCollected, rental.DepositRefunded, rental.DepositWithheld:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid deposit status"})
		return
	}

	rt, err := a.rr.UpdateDeposit(c, rentalID, h.ID, req.Status, nil)
	if err != nil {
		if errors.Is(err, rental.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "RENTAL_NOT_FOUND", "message": "Rental not found"})
			return
		}
		logger.ErrorContext(c, "failed to update deposit status", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toRentalResponse(rt))
}

// depositIntentParams builds the payment intent for a rental's deposit.
// Capture is manual: the intent only authorizes the card, and the host
// marks the deposit collected once the guest has confirmed payment.
func depositIntentParams(rt rental.Rental, ct cart.Cart) *stripe.PaymentIntentParams {
	return &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(ct.DepositCents),
		Currency:      stripe.String(string(stripe.CurrencyUSD)),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Metadata: map[string]string{
			"rental_id": rt.ID.String(),
			"cart_id":   ct.ID.String(),
		},
	}
}

// collectDepositHandler creates a Stripe payment intent for the cart's
// deposit amount and moves the deposit to pending. It stays pending until
// the host confirms the guest's payment through the deposit status endpoint.
func (a *API) collectDepositHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	h, ok := a.currentHost(c)
	if !ok {
		return
	}

	rentalID, err := uuid.Parse(c.Param("rentalId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid rentalId"})
		return
	}

	rt, err := a.rr.GetForHost(c, rentalID, h.ID)
	if err != nil {
		if errors.Is(err, rental.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "RENTAL_NOT_FOUND", "message": "Rental not found"})
			return
		}
		logger.ErrorContext(c, "failed to get rental", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	ct, err := a.cr.Get(c, rt.CartID, h.ID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "CART_NOT_FOUND", "message": "Cart not found"})
			return
		}
		logger.ErrorContext(c, "failed to get cart", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if ct.DepositCents <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": "NO_DEPOSIT", "message": "Cart has no deposit configured"})
		return
	}

	pi, err := paymentintent.New(depositIntentParams(rt, ct))
	if err != nil {
		logger.ErrorContext(c, "failed to create payment intent", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider error"})
		return
	}

	rt, err = a.rr.UpdateDeposit(c, rentalID, h.ID, rental.DepositPending, &pi.ID)
	if err != nil {
		logger.ErrorContext(c, "failed to record deposit intent", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, struct {
		Rental       rentalResponse `json:"rental"`
		ClientSecret string         `json:"clientSecret"`
	}{
		Rental:       toRentalResponse(rt),
		ClientSecret: pi.ClientSecret,
	})
}

func (a *API) refundDepositHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	h, ok := a.currentHost(c)
	if !ok {
		return
	}

	rentalID, err := uuid.Parse(c.Param("rentalId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid rentalId"})
		return
	}

	rt, err := a.rr.GetForHost(c, rentalID, h.ID)
	if err != nil {
		if errors.Is(err, rental.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "RENTAL_NOT_FOUND", "message": "Rental not found"})
			return
		}
		logger.ErrorContext(c, "failed to get rental", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if rt.DepositStatus != rental.DepositCollected || !rt.StripePaymentIntentID.Valid {
		c.JSON(http.StatusBadRequest, gin.H{"code": "DEPOSIT_NOT_COLLECTED", "message": "No collected deposit to refund"})
		return
	}

	_, err = refund.New(&stripe.RefundParams{
		PaymentIntent: stripe.String(rt.StripePaymentIntentID.String),
	})
	if err != nil {
		logger.ErrorContext(c, "failed to refund deposit", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider error"})
		return
	}

	rt, err = a.rr.UpdateDeposit(c, rentalID, h.ID, rental.DepositRefunded, nil)
	if err != nil {
		logger.ErrorContext(c, "failed to record deposit refund", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toRentalResponse(rt))
}
