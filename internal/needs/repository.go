package needs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errNotFound = errors.New("need not found")

const dbTimeout = 3 * time.Second

// Need is an assistance request posted by a resident. OwnerDesaID is the
// owner's village joined in for the guard; it is not a column of the needs
// table and never serialized.
type Need struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	ItemName    string     `json:"item_name"`
	Quantity    float64    `json:"quantity"`
	Unit        string     `json:"unit"`
	Description *string    `json:"description,omitempty"`
	IsUrgent    bool       `json:"is_urgent"`
	IsVerified  bool       `json:"is_verified"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	OwnerDesaID *uuid.UUID `json:"-"`
}

// Repository provides access to the needs table.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const needColumns = `n.id, n.user_id, n.item_name, n.quantity, n.unit, n.description, n.is_urgent, n.is_verified, n.created_at, n.updated_at, u.desa_id`

func scanNeed(row pgx.Row) (Need, error) {
	var n Need
	err := row.Scan(&n.ID, &n.UserID, &n.ItemName, &n.Quantity, &n.Unit, &n.Description, &n.IsUrgent, &n.IsVerified, &n.CreatedAt, &n.UpdatedAt, &n.OwnerDesaID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Need{}, errNotFound
	}
	return n, err
}

func scanNeeds(rows pgx.Rows) ([]Need, error) {
	defer rows.Close()

	var needs []Need
	for rows.Next() {
		var n Need
		if err := rows.Scan(&n.ID, &n.UserID, &n.ItemName, &n.Quantity, &n.Unit, &n.Description, &n.IsUrgent, &n.IsVerified, &n.CreatedAt, &n.UpdatedAt, &n.OwnerDesaID); err != nil {
			return nil, err
		}
		needs = append(needs, n)
	}
	return needs, rows.Err()
}

func (r *Repository) Insert(ctx context.Context, ownerID uuid.UUID, n Need) (Need, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanNeed(r.db.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO needs (user_id, item_name, quantity, unit, description, is_urgent)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING *
		)
		SELECT `+needColumns+`
		FROM inserted n JOIN users u ON u.id = n.user_id
	`, ownerID, n.ItemName, n.Quantity, n.Unit, n.Description, n.IsUrgent))
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Need, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanNeed(r.db.QueryRow(ctx, `
		SELECT `+needColumns+`
		FROM needs n JOIN users u ON u.id = n.user_id
		WHERE n.id = $1
	`, id))
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Need, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+needColumns+`
		FROM needs n JOIN users u ON u.id = n.user_id
		WHERE n.user_id = $1
		ORDER BY n.created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	return scanNeeds(rows)
}

// ListAll returns every need, optionally filtered by verification state.
func (r *Repository) ListAll(ctx context.Context, verified *bool) ([]Need, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+needColumns+`
		FROM needs n JOIN users u ON u.id = n.user_id
		WHERE ($1::boolean IS NULL OR n.is_verified = $1)
		ORDER BY n.is_urgent DESC, n.created_at DESC
	`, verified)
	if err != nil {
		return nil, err
	}
	return scanNeeds(rows)
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, n Need) (Need, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanNeed(r.db.QueryRow(ctx, `
		WITH updated AS (
			UPDATE needs
			SET item_name = $2, quantity = $3, unit = $4, description = $5,
			    is_urgent = $6, is_verified = $7, updated_at = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT `+needColumns+`
		FROM updated n JOIN users u ON u.id = n.user_id
	`, id, n.ItemName, n.Quantity, n.Unit, n.Description, n.IsUrgent, n.IsVerified))
}

func (r *Repository) SetVerified(ctx context.Context, id uuid.UUID) (Need, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanNeed(r.db.QueryRow(ctx, `
		WITH updated AS (
			UPDATE needs SET is_verified = TRUE, updated_at = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT `+needColumns+`
		FROM updated n JOIN users u ON u.id = n.user_id
	`, id))
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM needs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}
