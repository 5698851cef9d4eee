package host

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// MaxWelcomeMessageLen caps the guest-visible welcome message.
const MaxWelcomeMessageLen = 500

// Host is the profile row backing an authenticated host account, keyed
// one-to-one by the identity provider's subject claim.
type Host struct {
	ID      uuid.UUID `db:"id"`
	Auth0ID string    `db:"auth0_id"`

	Email sql.NullString `db:"email"`
	Name  sql.NullString `db:"name"`
	Phone sql.NullString `db:"phone"`

	DefaultDepositCents int64  `db:"default_deposit_cents"`
	WelcomeMessage      string `db:"welcome_message"`

	SMSNotifications   bool `db:"sms_notifications"`
	ShowFinancialTiles bool `db:"show_financial_tiles"`
	GuestTextSupport   bool `db:"guest_text_support"`

	BillingAddress sql.NullString `db:"billing_address"`

	CreatedAt time.Time `db:"created_at"`
}
