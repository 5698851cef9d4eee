// Package cart holds the fleet vehicle model and its persistence.
package cart

import (
	"database/sql"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type VehicleType int

const (
	Electric VehicleType = iota
	Gas
	Bike
)

func (t VehicleType) String() string {
	return [...]string{"electric", "gas", "bike"}[t]
}

func (t VehicleType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *VehicleType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return t.set(s)
}

func (t *VehicleType) Scan(i any) error {
	switch v := i.(type) {
	case string:
		return t.set(v)
	case []byte:
		return t.set(string(v))
	}
	return errors.New("invalid vehicle type scan source")
}

func (t *VehicleType) set(s string) error {
	switch s {
	case "electric":
		*t = Electric
	case "gas":
		*t = Gas
	case "bike":
		*t = Bike
	default:
		return errors.New("unknown vehicle type: " + s)
	}
	return nil
}

type AccessType string

const (
	AccessIncluded AccessType = "included"
	AccessUpsell   AccessType = "upsell"
)

// Cart represents a single rentable vehicle in a host's fleet.
type Cart struct {
	ID     uuid.UUID `db:"id"`
	HostID uuid.UUID `db:"host_id"`
	// Name is the guest-facing display name (e.g. "Blue Cart #2").
	Name    string      `db:"name"`
	KeyCode string      `db:"key_code"`
	Type    VehicleType `db:"vehicle_type"`

	AccessType AccessType `db:"access_type"`
	// Upsell fields are set iff AccessType is "upsell".
	UpsellPriceCents sql.NullInt64  `db:"upsell_price_cents"`
	UpsellUnit       sql.NullString `db:"upsell_unit"`
	AccessCode       sql.NullString `db:"access_code"`

	RequireLockPhoto bool  `db:"require_lock_photo"`
	DepositCents     int64 `db:"deposit_cents"`

	LastServicedAt sql.NullTime `db:"last_serviced_at"`
	Active         bool         `db:"active"`
	CreatedAt      time.Time    `db:"created_at"`
}

var ErrInvalidAccessPolicy = errors.New("upsell carts require a price, unit and access code; included carts must not set them")

// ValidateAccessPolicy enforces the included/upsell exclusivity rule. Called
// before any write reaches the database.
func (c Cart) ValidateAccessPolicy() error {
	switch c.AccessType {
	case AccessUpsell:
		if !c.UpsellPriceCents.Valid || !c.UpsellUnit.Valid || !c.AccessCode.Valid {
			return ErrInvalidAccessPolicy
		}
	case AccessIncluded:
		if c.UpsellPriceCents.Valid || c.UpsellUnit.Valid || c.AccessCode.Valid {
			return ErrInvalidAccessPolicy
		}
	default:
		return ErrInvalidAccessPolicy
	}
	return nil
}
