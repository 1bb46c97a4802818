package donations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errNotFound = errors.New("donation not found")

const dbTimeout = 3 * time.Second

// Donation is a resident's offer of goods, optionally tied to a need.
type Donation struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	NeedID      *uuid.UUID `json:"need_id,omitempty"`
	ItemName    string     `json:"item_name"`
	Quantity    float64    `json:"quantity"`
	Unit        string     `json:"unit"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	OwnerDesaID *uuid.UUID `json:"-"`
}

// Repository provides access to the donations table.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const donationColumns = `d.id, d.user_id, d.need_id, d.item_name, d.quantity, d.unit, d.status, d.created_at, d.updated_at, u.desa_id`

func scanDonation(row pgx.Row) (Donation, error) {
	var d Donation
	err := row.Scan(&d.ID, &d.UserID, &d.NeedID, &d.ItemName, &d.Quantity, &d.Unit, &d.Status, &d.CreatedAt, &d.UpdatedAt, &d.OwnerDesaID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Donation{}, errNotFound
	}
	return d, err
}

func (r *Repository) Insert(ctx context.Context, ownerID uuid.UUID, d Donation) (Donation, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanDonation(r.db.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO donations (user_id, need_id, item_name, quantity, unit, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING *
		)
		SELECT `+donationColumns+`
		FROM inserted d JOIN users u ON u.id = d.user_id
	`, ownerID, d.NeedID, d.ItemName, d.Quantity, d.Unit, d.Status))
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Donation, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanDonation(r.db.QueryRow(ctx, `
		SELECT `+donationColumns+`
		FROM donations d JOIN users u ON u.id = d.user_id
		WHERE d.id = $1
	`, id))
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Donation, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+donationColumns+`
		FROM donations d JOIN users u ON u.id = d.user_id
		WHERE d.user_id = $1
		ORDER BY d.created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Donation
	for rows.Next() {
		var d Donation
		if err := rows.Scan(&d.ID, &d.UserID, &d.NeedID, &d.ItemName, &d.Quantity, &d.Unit, &d.Status, &d.CreatedAt, &d.UpdatedAt, &d.OwnerDesaID); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, d Donation) (Donation, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanDonation(r.db.QueryRow(ctx, `
		WITH updated AS (
			UPDATE donations
			SET need_id = $2, item_name = $3, quantity = $4, unit = $5, status = $6, updated_at = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT `+donationColumns+`
		FROM updated d JOIN users u ON u.id = d.user_id
	`, id, d.NeedID, d.ItemName, d.Quantity, d.Unit, d.Status))
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM donations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}
