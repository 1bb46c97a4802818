package stock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errNotFound = errors.New("stock item not found")

const dbTimeout = 3 * time.Second

// Item is a household's tracked food/goods inventory row. DesaID mirrors the
// owner's village at creation time so the guard never needs a join.
type Item struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	DesaID     *uuid.UUID `json:"desa_id"`
	ItemName   string     `json:"item_name"`
	Quantity   float64    `json:"quantity"`
	Unit       string     `json:"unit"`
	Category   *string    `json:"category,omitempty"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	PhotoURL   *string    `json:"photo_url,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Repository provides access to the stock table.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const itemColumns = `id, user_id, desa_id, item_name, quantity, unit, category, expiry_date, photo_url, created_at, updated_at`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.UserID, &it.DesaID, &it.ItemName, &it.Quantity, &it.Unit, &it.Category, &it.ExpiryDate, &it.PhotoURL, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, errNotFound
	}
	return it, err
}

func scanItems(rows pgx.Rows) ([]Item, error) {
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.UserID, &it.DesaID, &it.ItemName, &it.Quantity, &it.Unit, &it.Category, &it.ExpiryDate, &it.PhotoURL, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Insert creates a row owned by ownerID, copying the owner's current village.
func (r *Repository) Insert(ctx context.Context, ownerID uuid.UUID, it Item) (Item, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanItem(r.db.QueryRow(ctx, `
		INSERT INTO stock (user_id, desa_id, item_name, quantity, unit, category, expiry_date)
		VALUES ($1, (SELECT desa_id FROM users WHERE id = $1), $2, $3, $4, $5, $6)
		RETURNING `+itemColumns+`
	`, ownerID, it.ItemName, it.Quantity, it.Unit, it.Category, it.ExpiryDate))
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Item, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanItem(r.db.QueryRow(ctx, `
		SELECT `+itemColumns+` FROM stock WHERE id = $1
	`, id))
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+itemColumns+` FROM stock WHERE user_id = $1 ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

func (r *Repository) ListByDesa(ctx context.Context, desaID uuid.UUID) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+itemColumns+` FROM stock WHERE desa_id = $1 ORDER BY created_at DESC
	`, desaID)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

func (r *Repository) ListAll(ctx context.Context) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+itemColumns+` FROM stock ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, it Item) (Item, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanItem(r.db.QueryRow(ctx, `
		UPDATE stock
		SET item_name = $2, quantity = $3, unit = $4, category = $5, expiry_date = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+itemColumns+`
	`, id, it.ItemName, it.Quantity, it.Unit, it.Category, it.ExpiryDate))
}

func (r *Repository) SetPhotoURL(ctx context.Context, id uuid.UUID, url string) (Item, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanItem(r.db.QueryRow(ctx, `
		UPDATE stock SET photo_url = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+itemColumns+`
	`, id, url))
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM stock WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}
