// Package servicelog tracks maintenance performed on a cart.
package servicelog

import (
	"time"

	"github.com/google/uuid"
)

type ServiceLog struct {
	ID     uuid.UUID `db:"id"`
	CartID uuid.UUID `db:"cart_id"`
	HostID uuid.UUID `db:"host_id"`
	// ServicedOn is the day the work was done, not when it was logged.
	ServicedOn  time.Time `db:"serviced_on"`
	ServiceType string    `db:"service_type"`
	CostCents   int64     `db:"cost_cents"`
	Notes       string    `db:"notes"`
	CreatedAt   time.Time `db:"created_at"`
}
