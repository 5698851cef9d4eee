package fleet

import (
	"time"

	"github.com/fairwayfleet/fleet-backend/rental"
	"github.com/fairwayfleet/fleet-backend/servicelog"
)

type Totals struct {
	RevenueCents    int64 `json:"revenueCents"`
	ExpenseCents    int64 `json:"expenseCents"`
	NetCents        int64 `json:"netCents"`
	RideCount       int   `json:"rideCount"`
	AvgPerRideCents int64 `json:"avgPerRideCents"`
}

// ComputeTotals sums non-null revenue and service costs across the host's
// history. Average revenue per ride is zero when there are no rides.
func ComputeTotals(rentals []rental.Rental, logs []servicelog.ServiceLog) Totals {
	var t Totals
	t.RideCount = len(rentals)
	for _, r := range rentals {
		if r.RevenueCents.Valid {
			t.RevenueCents += r.RevenueCents.Int64
		}
	}
	for _, l := range logs {
		t.ExpenseCents += l.CostCents
	}
	t.NetCents = t.RevenueCents - t.ExpenseCents
	if t.RideCount > 0 {
		t.AvgPerRideCents = t.RevenueCents / int64(t.RideCount)
	}
	return t
}

type SeriesPoint struct {
	Label        string `json:"label"`
	RevenueCents int64  `json:"revenueCents"`
	ExpenseCents int64  `json:"expenseCents"`
}

type Window string

const (
	Trailing30 Window = "30d"
	Trailing90 Window = "90d"
	YearToDate Window = "ytd"
)

// ComputeSeries buckets revenue and expenses for charting. The 30-day window
// groups by calendar day; the 90-day and year-to-date windows group by
// calendar month. The window is half-open: (start, now]. Buckets are
// contiguous and sorted ascending regardless of input order.
func ComputeSeries(rentals []rental.Rental, logs []servicelog.ServiceLog, now time.Time, w Window) []SeriesPoint {
	byDay := w == Trailing30

	var start time.Time
	switch w {
	case Trailing30:
		start = now.AddDate(0, 0, -30)
	case Trailing90:
		start = now.AddDate(0, 0, -90)
	default:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()).Add(-time.Nanosecond)
	}

	key := func(t time.Time) string {
		if byDay {
			return t.Format("2006-01-02")
		}
		return t.Format("Jan 2006")
	}

	revenue := map[string]int64{}
	expense := map[string]int64{}
	for _, r := range rentals {
		if !r.CreatedAt.After(start) || r.CreatedAt.After(now) {
			continue
		}
		if r.RevenueCents.Valid {
			revenue[key(r.CreatedAt)] += r.RevenueCents.Int64
		}
	}
	for _, l := range logs {
		if !l.ServicedOn.After(start) || l.ServicedOn.After(now) {
			continue
		}
		expense[key(l.ServicedOn)] += l.CostCents
	}

	var points []SeriesPoint
	if byDay {
		for d := start.AddDate(0, 0, 1); !d.After(now); d = d.AddDate(0, 0, 1) {
			k := key(d)
			points = append(points, SeriesPoint{Label: k, RevenueCents: revenue[k], ExpenseCents: expense[k]})
		}
		return points
	}

	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, now.Location())
	if w == YearToDate {
		first = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	}
	for m := first; !m.After(now); m = m.AddDate(0, 1, 0) {
		k := key(m)
		points = append(points, SeriesPoint{Label: k, RevenueCents: revenue[k], ExpenseCents: expense[k]})
	}
	return points
}
