package fleet

import (
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fairwayfleet/fleet-backend/rental"
	"github.com/fairwayfleet/fleet-backend/servicelog"
)

func revenueRental(cents int64, at time.Time) rental.Rental {
	return rental.Rental{
		ID:           uuid.New(),
		RevenueCents: sql.NullInt64{Int64: cents, Valid: true},
		CreatedAt:    at,
	}
}

func TestComputeTotals_Empty(t *testing.T) {
	totals := ComputeTotals(nil, nil)
	if totals.RevenueCents != 0 || totals.ExpenseCents != 0 || totals.NetCents != 0 {
		t.Errorf("expected zero totals, got %+v", totals)
	}
	if totals.AvgPerRideCents != 0 {
		t.Errorf("expected zero average with no rides, got %d", totals.AvgPerRideCents)
	}
}

func TestComputeTotals_SkipsNullRevenue(t *testing.T) {
	rentals := []rental.Rental{
		revenueRental(5000, now),
		{ID: uuid.New(), CreatedAt: now}, // revenue not yet entered
		revenueRental(3000, now),
	}
	logs := []servicelog.ServiceLog{
		{ID: uuid.New(), CostCents: 1500, ServicedOn: now},
	}

	totals := ComputeTotals(rentals, logs)
	if totals.RevenueCents != 8000 {
		t.Errorf("expected revenue 8000, got %d", totals.RevenueCents)
	}
	if totals.ExpenseCents != 1500 {
		t.Errorf("expected expenses 1500, got %d", totals.ExpenseCents)
	}
	if totals.NetCents != 6500 {
		t.Errorf("expected net 6500, got %d", totals.NetCents)
	}
	if totals.RideCount != 3 {
		t.Errorf("expected 3 rides, got %d", totals.RideCount)
	}
	// Average divides by all rides, including null-revenue ones.
	if totals.AvgPerRideCents != 2666 {
		t.Errorf("expected average 2666, got %d", totals.AvgPerRideCents)
	}
}

func TestComputeSeries_DailySortedAscending(t *testing.T) {
	// Input deliberately out of order.
	rentals := []rental.Rental{
		revenueRental(100, now.AddDate(0, 0, -1)),
		revenueRental(200, now.AddDate(0, 0, -20)),
		revenueRental(300, now.AddDate(0, 0, -5)),
	}

	points := ComputeSeries(rentals, nil, now, Trailing30)
	if len(points) != 30 {
		t.Fatalf("expected 30 daily buckets, got %d", len(points))
	}
	if !sort.SliceIsSorted(points, func(i, j int) bool { return points[i].Label < points[j].Label }) {
		t.Errorf("daily series not sorted ascending")
	}

	var sum int64
	for _, p := range points {
		sum += p.RevenueCents
	}
	if sum != 600 {
		t.Errorf("expected bucketed revenue 600, got %d", sum)
	}
}

func TestComputeSeries_DailyExcludesOutsideWindow(t *testing.T) {
	rentals := []rental.Rental{
		revenueRental(100, now.AddDate(0, 0, -31)),
		revenueRental(200, now.Add(time.Hour)),
		revenueRental(300, now.AddDate(0, 0, -2)),
	}

	points := ComputeSeries(rentals, nil, now, Trailing30)
	var sum int64
	for _, p := range points {
		sum += p.RevenueCents
	}
	if sum != 300 {
		t.Errorf("expected only in-window revenue 300, got %d", sum)
	}
}

func TestComputeSeries_MonthlyGrouping(t *testing.T) {
	rentals := []rental.Rental{
		revenueRental(100, now.AddDate(0, 0, -80)),
		revenueRental(200, now.AddDate(0, 0, -10)),
	}
	logs := []servicelog.ServiceLog{
		{ID: uuid.New(), CostCents: 50, ServicedOn: now.AddDate(0, 0, -10)},
	}

	points := ComputeSeries(rentals, logs, now, Trailing90)
	if len(points) < 3 || len(points) > 4 {
		t.Fatalf("expected 3-4 monthly buckets for 90 days, got %d", len(points))
	}

	last := points[len(points)-1]
	if last.Label != now.Format("Jan 2006") {
		t.Errorf("expected last bucket %q, got %q", now.Format("Jan 2006"), last.Label)
	}
	if last.RevenueCents != 200 || last.ExpenseCents != 50 {
		t.Errorf("unexpected last bucket %+v", last)
	}
}

func TestComputeSeries_YearToDateStartsInJanuary(t *testing.T) {
	rentals := []rental.Rental{
		revenueRental(700, time.Date(now.Year(), time.February, 3, 0, 0, 0, 0, time.UTC)),
		// Previous year is out of the window.
		revenueRental(900, time.Date(now.Year()-1, time.December, 20, 0, 0, 0, 0, time.UTC)),
	}

	points := ComputeSeries(rentals, nil, now, YearToDate)
	if len(points) != 6 {
		t.Fatalf("expected 6 buckets for mid-June YTD, got %d", len(points))
	}
	if points[0].Label != time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006") {
		t.Errorf("expected first bucket January, got %q", points[0].Label)
	}

	var sum int64
	for _, p := range points {
		sum += p.RevenueCents
	}
	if sum != 700 {
		t.Errorf("expected 700 in-window revenue, got %d", sum)
	}
}
