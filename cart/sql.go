package cart

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound = errors.New("cart not found")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetByHost lists a host's fleet, newest first.
func (r *Repository) GetByHost(ctx context.Context, hostID uuid.UUID) ([]Cart, error) {
	var carts []Cart
	err := r.db.SelectContext(ctx, &carts, getByHost, hostID)
	return carts, err
}

const getByHost = `SELECT * FROM carts WHERE host_id = $1 ORDER BY created_at DESC`

// Get fetches a cart scoped to the owning host. A cart owned by another host
// is reported as not found, not as forbidden.
func (r *Repository) Get(ctx context.Context, id, hostID uuid.UUID) (Cart, error) {
	var c Cart
	err := r.db.GetContext(ctx, &c, get, id, hostID)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

const get = `SELECT * FROM carts WHERE id = $1 AND host_id = $2`

// GetForGuest fetches a cart by id alone for the guest flows, which carry no
// host identity.
func (r *Repository) GetForGuest(ctx context.Context, id uuid.UUID) (Cart, error) {
	var c Cart
	err := r.db.GetContext(ctx, &c, getForGuest, id)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

const getForGuest = `SELECT * FROM carts WHERE id = $1 AND active`

func (r *Repository) Create(ctx context.Context, c *Cart) error {
	if err := c.ValidateAccessPolicy(); err != nil {
		return err
	}
	return r.db.GetContext(ctx, c, create,
		c.ID, c.HostID, c.Name, c.KeyCode, c.Type.String(), c.AccessType,
		c.UpsellPriceCents, c.UpsellUnit, c.AccessCode,
		c.RequireLockPhoto, c.DepositCents, c.Active)
}

const create = `
INSERT INTO carts (id, host_id, name, key_code, vehicle_type, access_type,
                   upsell_price_cents, upsell_unit, access_code,
                   require_lock_photo, deposit_cents, active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
RETURNING *
`

func (r *Repository) Update(ctx context.Context, c *Cart) error {
	if err := c.ValidateAccessPolicy(); err != nil {
		return err
	}
	err := r.db.GetContext(ctx, c, update,
		c.Name, c.KeyCode, c.Type.String(), c.AccessType,
		c.UpsellPriceCents, c.UpsellUnit, c.AccessCode,
		c.RequireLockPhoto, c.DepositCents, c.Active,
		c.ID, c.HostID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

const update = `
UPDATE carts SET name = $1, key_code = $2, vehicle_type = $3, access_type = $4,
                 upsell_price_cents = $5, upsell_unit = $6, access_code = $7,
                 require_lock_photo = $8, deposit_cents = $9, active = $10
WHERE id = $11 AND host_id = $12
RETURNING *
`

// Delete removes a cart; only the owning host's rows match.
func (r *Repository) Delete(ctx context.Context, id, hostID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, del, id, hostID)
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
	return nil
}

const del = `DELETE FROM carts WHERE id = $1 AND host_id = $2`
