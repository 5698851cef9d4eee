package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fairwayfleet/fleet-backend/host"
	"github.com/fairwayfleet/fleet-backend/internal/middleware"
)

type profileResponse struct {
	Email               string `json:"email"`
	Name                string `json:"name"`
	Phone               string `json:"phone"`
	DefaultDepositCents int64  `json:"defaultDepositCents"`
	WelcomeMessage      string `json:"welcomeMessage"`
	SMSNotifications    bool   `json:"smsNotifications"`
	ShowFinancialTiles  bool   `json:"showFinancialTiles"`
	GuestTextSupport    bool   `json:"guestTextSupport"`
	BillingAddress      string `json:"billingAddress"`
}

func toProfileResponse(h *host.Host) profileResponse {
	return profileResponse{
		Email:               h.Email.String,
		Name:                h.Name.String,
		Phone:               h.Phone.String,
		DefaultDepositCents: h.DefaultDepositCents,
		WelcomeMessage:      h.WelcomeMessage,
		SMSNotifications:    h.SMSNotifications,
		ShowFinancialTiles:  h.ShowFinancialTiles,
		GuestTextSupport:    h.GuestTextSupport,
		BillingAddress:      h.BillingAddress.String,
	}
}

func (a *API) getProfileHandler(c *gin.Context) {
	h, ok := a.currentHost(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toProfileResponse(h))
}

type updateProfileRequest struct {
	Email               string `json:"email"`
	Name                string `json:"name"`
	Phone               string `json:"phone"`
	DefaultDepositCents int64  `json:"defaultDepositCents"`
	WelcomeMessage      string `json:"welcomeMessage"`
	SMSNotifications    bool   `json:"smsNotifications"`
	ShowFinancialTiles  bool   `json:"showFinancialTiles"`
	GuestTextSupport    bool   `json:"guestTextSupport"`
	BillingAddress      string `json:"billingAddress"`
}

func (a *API) updateProfileHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	h, ok := a.currentHost(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	h.Email = sql.NullString{String: req.Email, Valid: req.Email != ""}
	h.Name = sql.NullString{String: req.Name, Valid: req.Name != ""}
	h.Phone = sql.NullString{String: req.Phone, Valid: req.Phone != ""}
	h.DefaultDepositCents = req.DefaultDepositCents
	h.WelcomeMessage = req.WelcomeMessage
	h.SMSNotifications = req.SMSNotifications
	h.ShowFinancialTiles = req.ShowFinancialTiles
	h.GuestTextSupport = req.GuestTextSupport
	h.BillingAddress = sql.NullString{String: req.BillingAddress, Valid: req.BillingAddress != ""}

	if err := a.hr.Update(c, h); err != nil {
		if errors.Is(err, host.ErrWelcomeMessageLong) {
			c.JSON(http.StatusBadRequest, gin.H{"code": "WELCOME_MESSAGE_TOO_LONG", "message": err.Error()})
			return
		}
		logger.ErrorContext(c, "failed to update profile", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toProfileResponse(h))
}
