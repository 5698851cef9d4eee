package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fairwayfleet/fleet-backend/internal/middleware"
)

// departureRemindersHandler is hit by an external cron trigger. It scans
// rentals that started today on SMS-enabled hosts' carts and texts each guest
// a reminder. Send failures are logged and skipped; the scan always finishes.
func (a *API) departureRemindersHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	rentals, err := a.rr.CreatedToday(c, time.Now())
	if err != nil {
		logger.ErrorContext(c, "failed to scan departures", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	sent := 0
	for _, rt := range rentals {
		if rt.GuestPhone == "" {
			continue
		}
		body := fmt.Sprintf("Hi %s! A reminder about your cart rental today. Reply to this number if you need anything.", rt.GuestName)
		if _, err := a.notifier.Send(c, rt.GuestPhone, body); err != nil {
			logger.ErrorContext(c, "failed to send departure reminder", "error", err, "rental_id", rt.ID)
			continue
		}
		sent++
	}

	c.JSON(http.StatusOK, gin.H{"scanned": len(rentals), "sent": sent})
}
