package host

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound           = errors.New("host not found")
	ErrWelcomeMessageLong = errors.New("welcome message too long")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByAuth0ID(ctx context.Context, auth0ID string) (*Host, error) {
	var h Host
	err := r.db.GetContext(ctx, &h, getByAuth0ID, auth0ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

const getByAuth0ID = `SELECT * FROM hosts WHERE auth0_id = $1`

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Host, error) {
	var h Host
	err := r.db.GetContext(ctx, &h, getByID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

const getByID = `SELECT * FROM hosts WHERE id = $1`

// Create inserts a bare profile row on a host's first authenticated touch.
func (r *Repository) Create(ctx context.Context, auth0ID string) (*Host, error) {
	var h Host
	err := r.db.GetContext(ctx, &h, create, uuid.New(), auth0ID)
	return &h, err
}

const create = `
INSERT INTO hosts (id, auth0_id, welcome_message, created_at)
VALUES ($1, $2, '', now())
RETURNING *
`

func (r *Repository) Update(ctx context.Context, h *Host) error {
	if len(h.WelcomeMessage) > MaxWelcomeMessageLen {
		return ErrWelcomeMessageLong
	}
	err := r.db.GetContext(ctx, h, update,
		h.Email, h.Name, h.Phone, h.DefaultDepositCents, h.WelcomeMessage,
		h.SMSNotifications, h.ShowFinancialTiles, h.GuestTextSupport,
		h.BillingAddress, h.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

const update = `
UPDATE hosts SET email = $1, name = $2, phone = $3,
                 default_deposit_cents = $4, welcome_message = $5,
                 sms_notifications = $6, show_financial_tiles = $7,
                 guest_text_support = $8, billing_address = $9
WHERE id = $10
RETURNING *
`
