package servicelog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound     = errors.New("service log not found")
	ErrNegativeCost = errors.New("service cost must not be negative")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the log entry and bumps the cart's last_serviced_at in the
// same transaction. The cart update is ownership-checked; logging service on
// another host's cart matches no rows.
func (r *Repository) Create(ctx context.Context, l *ServiceLog) error {
	if l.CostCents < 0 {
		return ErrNegativeCost
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, touchCart, l.ServicedOn, l.CartID, l.HostID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	err = tx.GetContext(ctx, l, create,
		l.ID, l.CartID, l.HostID, l.ServicedOn, l.ServiceType, l.CostCents, l.Notes)
	if err != nil {
		return err
	}

	return tx.Commit()
}

const touchCart = `
UPDATE carts SET last_serviced_at = GREATEST(COALESCE(last_serviced_at, $1), $1)
WHERE id = $2 AND host_id = $3
`

const create = `
INSERT INTO service_logs (id, cart_id, host_id, serviced_on, service_type, cost_cents, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
RETURNING *
`

func (r *Repository) GetByCart(ctx context.Context, cartID, hostID uuid.UUID) ([]ServiceLog, error) {
	var logs []ServiceLog
	err := r.db.SelectContext(ctx, &logs, getByCart, cartID, hostID)
	return logs, err
}

const getByCart = `
SELECT * FROM service_logs
WHERE cart_id = $1 AND host_id = $2
ORDER BY serviced_on DESC
`

func (r *Repository) GetByHost(ctx context.Context, hostID uuid.UUID) ([]ServiceLog, error) {
	var logs []ServiceLog
	err := r.db.SelectContext(ctx, &logs, getByHost, hostID)
	return logs, err
}

const getByHost = `SELECT * FROM service_logs WHERE host_id = $1 ORDER BY serviced_on DESC`

// UpdateCost corrects a logged cost after the fact.
func (r *Repository) UpdateCost(ctx context.Context, id, hostID uuid.UUID, costCents int64) (ServiceLog, error) {
	var l ServiceLog
	if costCents < 0 {
		return l, ErrNegativeCost
	}
	err := r.db.GetContext(ctx, &l, updateCost, costCents, id, hostID)
	if errors.Is(err, sql.ErrNoRows) {
		return l, ErrNotFound
	}
	return l, err
}

const updateCost = `
UPDATE service_logs SET cost_cents = $1
WHERE id = $2 AND host_id = $3
RETURNING *
`
