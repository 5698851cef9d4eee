// Package fleet derives per-cart maintenance health and fleet-wide financial
// metrics from raw rental and service-log collections. Everything here is a
// pure function of its inputs and a reference clock.
package fleet

import (
	"fmt"
	"time"

	"github.com/fairwayfleet/fleet-backend/cart"
	"github.com/fairwayfleet/fleet-backend/rental"
)

type HealthStatus string

const (
	StatusOverdue HealthStatus = "overdue"
	StatusDueSoon HealthStatus = "dueSoon"
	StatusHealthy HealthStatus = "healthy"
)

// Service thresholds. A cart is overdue at the hard limits and due soon when
// it approaches them.
const (
	overdueTrips = 30
	overdueDays  = 365
	dueSoonTrips = 20
	dueSoonDays  = 330
)

type Health struct {
	CartID            string       `json:"cartId"`
	CartName          string       `json:"cartName"`
	Status            HealthStatus `json:"status"`
	DaysSinceService  *int         `json:"daysSinceService"`
	TripsSinceService int          `json:"tripsSinceService"`
	Reason            string       `json:"reason"`
}

// Classify derives the health of a single cart. rentals may be the host's full
// rental collection; entries for other carts are ignored, so classification is
// independent per cart and order-independent across the fleet.
func Classify(c cart.Cart, rentals []rental.Rental, now time.Time) Health {
	h := Health{
		CartID:   c.ID.String(),
		CartName: c.Name,
	}

	var serviced *time.Time
	if c.LastServicedAt.Valid {
		t := c.LastServicedAt.Time
		serviced = &t
	}

	trips := 0
	for _, r := range rentals {
		if r.CartID != c.ID {
			continue
		}
		if serviced == nil || r.CreatedAt.After(*serviced) {
			trips++
		}
	}
	h.TripsSinceService = trips

	var days int
	if serviced != nil {
		days = int(now.Sub(*serviced).Hours() / 24)
		if days < 0 {
			days = 0
		}
		h.DaysSinceService = &days
	}

	// Severity first, then pick the metric: trip count wins when both
	// thresholds in the chosen bucket fire.
	switch {
	case serviced == nil:
		h.Status = StatusOverdue
		h.Reason = "never serviced"
	case trips >= overdueTrips:
		h.Status = StatusOverdue
		h.Reason = fmt.Sprintf("%d trips since last service", trips)
	case days >= overdueDays:
		h.Status = StatusOverdue
		h.Reason = fmt.Sprintf("%d days since last service", days)
	case trips >= dueSoonTrips:
		h.Status = StatusDueSoon
		h.Reason = fmt.Sprintf("%d trips since last service", trips)
	case days >= dueSoonDays:
		h.Status = StatusDueSoon
		h.Reason = fmt.Sprintf("%d days since last service", days)
	case trips > 0:
		h.Status = StatusHealthy
		h.Reason = fmt.Sprintf("%d trips since last service", trips)
	default:
		h.Status = StatusHealthy
		h.Reason = fmt.Sprintf("%d days since last service", days)
	}

	return h
}

// ClassifyFleet classifies every cart in the collection.
func ClassifyFleet(carts []cart.Cart, rentals []rental.Rental, now time.Time) []Health {
	healths := make([]Health, 0, len(carts))
	for _, c := range carts {
		healths = append(healths, Classify(c, rentals, now))
	}
	return healths
}
