package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when the identity has no profile row yet.
	// Downstream this drives onboarding, not a hard failure.
	ErrNotFound = errors.New("profile not found")
)

const dbTimeout = 3 * time.Second

// Profile is the users-table row holding role and village state.
type Profile struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	Nama            string     `json:"nama"`
	Role            *string    `json:"role"`
	DesaID          *uuid.UUID `json:"desa_id"`
	IsRoleConfirmed bool       `json:"is_role_confirmed"`
	PoinKomunitas   int        `json:"poin_komunitas"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Repository provides access to the users table.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const profileColumns = `id, email, nama, role, desa_id, is_role_confirmed, poin_komunitas, created_at, updated_at`

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Email, &p.Nama, &p.Role, &p.DesaID, &p.IsRoleConfirmed, &p.PoinKomunitas, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	return p, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanProfile(r.db.QueryRow(ctx, `
		SELECT `+profileColumns+` FROM users WHERE id = $1
	`, id))
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanProfile(r.db.QueryRow(ctx, `
		SELECT `+profileColumns+` FROM users WHERE lower(email) = lower($1)
	`, email))
}

// CredentialsByEmail returns the id and password hash for login.
func (r *Repository) CredentialsByEmail(ctx context.Context, email string) (uuid.UUID, string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var id uuid.UUID
	var hash string
	err := r.db.QueryRow(ctx, `
		SELECT id, password_hash FROM users WHERE lower(email) = lower($1)
	`, email).Scan(&id, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, "", ErrNotFound
	}
	return id, hash, err
}

// Create inserts a fresh profile with no role assigned yet.
func (r *Repository) Create(ctx context.Context, email, nama, passwordHash string) (Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanProfile(r.db.QueryRow(ctx, `
		INSERT INTO users (email, nama, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+profileColumns+`
	`, email, nama, passwordHash))
}

// ConfirmRole atomically sets role, village and the confirmation flag.
// The WHERE clause refuses rows already confirmed so a concurrent second
// call cannot overwrite the first.
func (r *Repository) ConfirmRole(ctx context.Context, userID uuid.UUID, role string, desaID uuid.UUID) (Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanProfile(r.db.QueryRow(ctx, `
		UPDATE users
		SET role = $2, desa_id = $3, is_role_confirmed = TRUE, updated_at = now()
		WHERE id = $1 AND is_role_confirmed = FALSE
		RETURNING `+profileColumns+`
	`, userID, role, desaID))
}

// UpdateNama performs the partial profile update.
func (r *Repository) UpdateNama(ctx context.Context, userID uuid.UUID, nama string) (Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanProfile(r.db.QueryRow(ctx, `
		UPDATE users SET nama = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+profileColumns+`
	`, userID, nama))
}

// AddPoints increments poin_komunitas, clamped at zero.
func (r *Repository) AddPoints(ctx context.Context, userID uuid.UUID, delta int) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET poin_komunitas = GREATEST(poin_komunitas + $2, 0), updated_at = now()
		WHERE id = $1
	`, userID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
