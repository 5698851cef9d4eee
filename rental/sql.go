package rental

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound         = errors.New("rental not found")
	ErrAlreadyCompleted = errors.New("rental already completed")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the rental produced by the terminal inspection step.
func (r *Repository) Create(ctx context.Context, rt *Rental) error {
	return r.db.GetContext(ctx, rt, create,
		rt.ID, rt.CartID, rt.GuestName, rt.GuestPhone, rt.Photos,
		rt.WaiverAgreed, rt.WaiverSignedAt, rt.DepositStatus)
}

const create = `
INSERT INTO rentals (id, cart_id, guest_name, guest_phone, photos, status,
                     waiver_agreed, waiver_signed_at, deposit_status, created_at)
VALUES ($1, $2, $3, $4, $5, 'active', $6, $7, $8, now())
RETURNING *
`

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Rental, error) {
	var rt Rental
	err := r.db.GetContext(ctx, &rt, get, id)
	if errors.Is(err, sql.ErrNoRows) {
		return rt, ErrNotFound
	}
	return rt, err
}

const get = `SELECT * FROM rentals WHERE id = $1`

// GetForHost fetches a rental through the cart ownership chain. Rentals on
// another host's carts look identical to missing rows.
func (r *Repository) GetForHost(ctx context.Context, id, hostID uuid.UUID) (Rental, error) {
	var rt Rental
	err := r.db.GetContext(ctx, &rt, getForHost, id, hostID)
	if errors.Is(err, sql.ErrNoRows) {
		return rt, ErrNotFound
	}
	return rt, err
}

const getForHost = `
SELECT r.* FROM rentals r
JOIN carts c ON r.cart_id = c.id
WHERE r.id = $1 AND c.host_id = $2
`

// GetByHost lists every rental on the host's fleet, newest first.
func (r *Repository) GetByHost(ctx context.Context, hostID uuid.UUID) ([]Rental, error) {
	var rentals []Rental
	err := r.db.SelectContext(ctx, &rentals, getByHost, hostID)
	return rentals, err
}

const getByHost = `
SELECT r.* FROM rentals r
JOIN carts c ON r.cart_id = c.id
WHERE c.host_id = $1
ORDER BY r.created_at DESC
`

// CountByCartSince counts trips on a cart created strictly after a point in
// time; a nil since counts every trip.
func (r *Repository) CountByCartSince(ctx context.Context, cartID uuid.UUID, since *time.Time) (int, error) {
	var n int
	var err error
	if since != nil {
		err = r.db.GetContext(ctx, &n, countByCartSince, cartID, *since)
	} else {
		err = r.db.GetContext(ctx, &n, countByCart, cartID)
	}
	return n, err
}

const countByCartSince = `SELECT count(*) FROM rentals WHERE cart_id = $1 AND created_at > $2`
const countByCart = `SELECT count(*) FROM rentals WHERE cart_id = $1`

// Complete appends the checkout photo and flips the rental to completed in a
// single statement. The rental must be on the given cart; rentals on any other
// cart look identical to missing rows. Completing twice is rejected.
func (r *Repository) Complete(ctx context.Context, id, cartID uuid.UUID, checkoutPhotoURL string) (Rental, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Rental{}, err
	}
	defer tx.Rollback()

	var rt Rental
	err = tx.GetContext(ctx, &rt, getForUpdate, id, cartID)
	if errors.Is(err, sql.ErrNoRows) {
		return Rental{}, ErrNotFound
	}
	if err != nil {
		return Rental{}, err
	}
	if rt.Status == StatusCompleted {
		return Rental{}, ErrAlreadyCompleted
	}

	rt.Photos = append(rt.Photos, checkoutPhotoURL)
	err = tx.GetContext(ctx, &rt, complete, rt.Photos, id)
	if err != nil {
		return Rental{}, err
	}

	return rt, tx.Commit()
}

const getForUpdate = `SELECT * FROM rentals WHERE id = $1 AND cart_id = $2 FOR UPDATE`

const complete = `
UPDATE rentals SET photos = $1, status = 'completed', completed_at = now()
WHERE id = $2
RETURNING *
`

// UpdateRevenue sets the revenue on a rental, ownership-checked through the
// cart join. Last write wins under concurrent host edits.
func (r *Repository) UpdateRevenue(ctx context.Context, id, hostID uuid.UUID, revenueCents int64) (Rental, error) {
	var rt Rental
	err := r.db.GetContext(ctx, &rt, updateRevenue, revenueCents, id, hostID)
	if errors.Is(err, sql.ErrNoRows) {
		return rt, ErrNotFound
	}
	return rt, err
}

const updateRevenue = `
UPDATE rentals SET revenue_cents = $1
WHERE id = $2
  AND cart_id IN (SELECT id FROM carts WHERE host_id = $3)
RETURNING *
`

func (r *Repository) UpdateDeposit(ctx context.Context, id, hostID uuid.UUID, status DepositStatus, paymentIntentID *string) (Rental, error) {
	var rt Rental
	err := r.db.GetContext(ctx, &rt, updateDeposit, status, paymentIntentID, id, hostID)
	if errors.Is(err, sql.ErrNoRows) {
		return rt, ErrNotFound
	}
	return rt, err
}

const updateDeposit = `
UPDATE rentals SET deposit_status = $1,
                   stripe_payment_intent_id = COALESCE($2, stripe_payment_intent_id)
WHERE id = $3
  AND cart_id IN (SELECT id FROM carts WHERE host_id = $4)
RETURNING *
`

// CreatedToday lists rentals created on the given calendar day for hosts with
// SMS notifications enabled. Feeds the departure reminder job. The day's
// bounds come from day's own location, so the cutoff does not depend on the
// database session timezone.
func (r *Repository) CreatedToday(ctx context.Context, day time.Time) ([]Rental, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	var rentals []Rental
	err := r.db.SelectContext(ctx, &rentals, createdToday, start, start.AddDate(0, 0, 1))
	return rentals, err
}

const createdToday = `
SELECT r.* FROM rentals r
JOIN carts c ON r.cart_id = c.id
JOIN hosts h ON c.host_id = h.id
WHERE r.created_at >= $1 AND r.created_at < $2
  AND h.sms_notifications
`
