package desa

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errNotFound = errors.New("desa not found")

const dbTimeout = 3 * time.Second

// Desa is the village row, the tenancy unit for elevated roles.
// Immutable once created; there is no update or delete path.
type Desa struct {
	ID        uuid.UUID `json:"id"`
	NamaDesa  string    `json:"nama_desa"`
	Kecamatan *string   `json:"kecamatan,omitempty"`
	Provinsi  *string   `json:"provinsi,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository provides access to the desa table.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, nama string, kecamatan, provinsi *string) (Desa, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var d Desa
	err := r.db.QueryRow(ctx, `
		INSERT INTO desa (nama_desa, kecamatan, provinsi)
		VALUES ($1, $2, $3)
		RETURNING id, nama_desa, kecamatan, provinsi, created_at
	`, nama, kecamatan, provinsi).Scan(&d.ID, &d.NamaDesa, &d.Kecamatan, &d.Provinsi, &d.CreatedAt)
	return d, err
}

func (r *Repository) List(ctx context.Context) ([]Desa, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, nama_desa, kecamatan, provinsi, created_at
		FROM desa
		ORDER BY nama_desa
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var desas []Desa
	for rows.Next() {
		var d Desa
		if err := rows.Scan(&d.ID, &d.NamaDesa, &d.Kecamatan, &d.Provinsi, &d.CreatedAt); err != nil {
			return nil, err
		}
		desas = append(desas, d)
	}
	return desas, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Desa, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var d Desa
	err := r.db.QueryRow(ctx, `
		SELECT id, nama_desa, kecamatan, provinsi, created_at
		FROM desa WHERE id = $1
	`, id).Scan(&d.ID, &d.NamaDesa, &d.Kecamatan, &d.Provinsi, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Desa{}, errNotFound
	}
	return d, err
}

// Exists satisfies profile.DesaChecker for the onboarding workflow.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM desa WHERE id = $1)
	`, id).Scan(&exists)
	return exists, err
}
