package fleet

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fairwayfleet/fleet-backend/cart"
	"github.com/fairwayfleet/fleet-backend/rental"
)

var now = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func testCart(servicedDaysAgo *int) cart.Cart {
	c := cart.Cart{ID: uuid.New(), Name: "Cart 1"}
	if servicedDaysAgo != nil {
		c.LastServicedAt = sql.NullTime{
			Time:  now.AddDate(0, 0, -*servicedDaysAgo),
			Valid: true,
		}
	}
	return c
}

func tripsFor(c cart.Cart, n int, daysAgo int) []rental.Rental {
	rentals := make([]rental.Rental, n)
	for i := range rentals {
		rentals[i] = rental.Rental{
			ID:        uuid.New(),
			CartID:    c.ID,
			CreatedAt: now.AddDate(0, 0, -daysAgo),
		}
	}
	return rentals
}

func days(n int) *int { return &n }

func TestClassify_NeverServicedIsAlwaysOverdue(t *testing.T) {
	for _, trips := range []int{0, 1, 50} {
		c := testCart(nil)
		h := Classify(c, tripsFor(c, trips, 1), now)
		if h.Status != StatusOverdue {
			t.Errorf("never-serviced cart with %d trips: expected overdue, got %s", trips, h.Status)
		}
		if h.Reason != "never serviced" {
			t.Errorf("expected reason %q, got %q", "never serviced", h.Reason)
		}
		if h.DaysSinceService != nil {
			t.Errorf("expected nil daysSinceService, got %d", *h.DaysSinceService)
		}
	}
}

func TestClassify_TripThresholdOverridesRecentService(t *testing.T) {
	// 30 trips forces overdue even when the service is recent.
	c := testCart(days(10))
	h := Classify(c, tripsFor(c, 30, 1), now)
	if h.Status != StatusOverdue {
		t.Errorf("expected overdue, got %s", h.Status)
	}
	if h.Reason != "30 trips since last service" {
		t.Errorf("unexpected reason %q", h.Reason)
	}
}

func TestClassify_DueSoonBand(t *testing.T) {
	for _, trips := range []int{20, 25, 29} {
		c := testCart(days(10))
		h := Classify(c, tripsFor(c, trips, 1), now)
		if h.Status != StatusDueSoon {
			t.Errorf("%d trips, 10 days: expected dueSoon, got %s", trips, h.Status)
		}
	}
}

func TestClassify_DayThresholds(t *testing.T) {
	tests := []struct {
		daysAgo int
		want    HealthStatus
	}{
		{10, StatusHealthy},
		{329, StatusHealthy},
		{330, StatusDueSoon},
		{364, StatusDueSoon},
		{365, StatusOverdue},
		{400, StatusOverdue},
	}
	for _, tt := range tests {
		c := testCart(days(tt.daysAgo))
		h := Classify(c, nil, now)
		if h.Status != tt.want {
			t.Errorf("%d days since service: expected %s, got %s", tt.daysAgo, tt.want, h.Status)
		}
	}
}

func TestClassify_TripsCountedStrictlyAfterService(t *testing.T) {
	c := testCart(days(30))
	// 25 trips before the service, 5 after.
	rentals := append(tripsFor(c, 25, 60), tripsFor(c, 5, 10)...)
	h := Classify(c, rentals, now)
	if h.TripsSinceService != 5 {
		t.Errorf("expected 5 trips since service, got %d", h.TripsSinceService)
	}
	if h.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s", h.Status)
	}
}

func TestClassify_ReasonPrefersTripsWhenBothFire(t *testing.T) {
	// Both overdue thresholds fire; the trip metric is reported.
	c := testCart(days(400))
	h := Classify(c, tripsFor(c, 35, 10), now)
	if h.Status != StatusOverdue {
		t.Fatalf("expected overdue, got %s", h.Status)
	}
	if h.Reason != "35 trips since last service" {
		t.Errorf("expected trip-based reason, got %q", h.Reason)
	}
}

func TestClassify_HealthyReasonFallsBackToDays(t *testing.T) {
	c := testCart(days(42))
	h := Classify(c, nil, now)
	if h.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %s", h.Status)
	}
	if h.Reason != "42 days since last service" {
		t.Errorf("unexpected reason %q", h.Reason)
	}
}

func TestClassify_IgnoresOtherCartsRentals(t *testing.T) {
	c := testCart(days(5))
	other := testCart(days(5))
	h := Classify(c, tripsFor(other, 40, 1), now)
	if h.TripsSinceService != 0 {
		t.Errorf("expected 0 trips, got %d", h.TripsSinceService)
	}
	if h.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s", h.Status)
	}
}

func TestClassifyFleet_OrderIndependent(t *testing.T) {
	a := testCart(nil)
	b := testCart(days(10))
	rentals := tripsFor(b, 3, 2)

	forward := ClassifyFleet([]cart.Cart{a, b}, rentals, now)
	reverse := ClassifyFleet([]cart.Cart{b, a}, rentals, now)

	if forward[0].Status != reverse[1].Status || forward[1].Status != reverse[0].Status {
		t.Errorf("classification depends on cart order: %v vs %v", forward, reverse)
	}
}
