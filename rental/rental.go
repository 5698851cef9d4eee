package rental

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

type DepositStatus string

const (
	DepositPending   DepositStatus = "pending"
	DepositCollected DepositStatus = "collected"
	DepositRefunded  DepositStatus = "refunded"
	DepositWithheld  DepositStatus = "withheld"
)

// PhotoList is an ordered list of evidence photo URLs stored as jsonb. Order
// is significant: the leading entries are the pre-ride photos and the final
// entry, once present, is the checkout photo.
type PhotoList []string

func (p PhotoList) Value() (driver.Value, error) {
	if p == nil {
		p = PhotoList{}
	}
	return json.Marshal(p)
}

func (p *PhotoList) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	}
	return errors.New("invalid photo list scan source")
}

type Rental struct {
	ID         uuid.UUID `db:"id"`
	CartID     uuid.UUID `db:"cart_id"`
	GuestName  string    `db:"guest_name"`
	GuestPhone string    `db:"guest_phone"`
	Photos     PhotoList `db:"photos"`
	Status     Status    `db:"status"`

	WaiverAgreed   bool         `db:"waiver_agreed"`
	WaiverSignedAt sql.NullTime `db:"waiver_signed_at"`

	RevenueCents          sql.NullInt64  `db:"revenue_cents"`
	DepositStatus         DepositStatus  `db:"deposit_status"`
	StripePaymentIntentID sql.NullString `db:"stripe_payment_intent_id"`

	CreatedAt   time.Time    `db:"created_at"`
	CompletedAt sql.NullTime `db:"completed_at"`
}
