package habits

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errNotFound = errors.New("eco habit not found")

const dbTimeout = 3 * time.Second

// Habit is a resident's sustainability habit. Completing it awards Points
// to the owner's poin_komunitas, once.
type Habit struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	HabitName   string     `json:"habit_name"`
	Description *string    `json:"description,omitempty"`
	Points      int        `json:"points"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	OwnerDesaID *uuid.UUID `json:"-"`
}

// Repository provides access to the eco_habits table.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const habitColumns = `h.id, h.user_id, h.habit_name, h.description, h.points, h.completed_at, h.created_at, h.updated_at, u.desa_id`

func scanHabit(row pgx.Row) (Habit, error) {
	var h Habit
	err := row.Scan(&h.ID, &h.UserID, &h.HabitName, &h.Description, &h.Points, &h.CompletedAt, &h.CreatedAt, &h.UpdatedAt, &h.OwnerDesaID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Habit{}, errNotFound
	}
	return h, err
}

func (r *Repository) Insert(ctx context.Context, ownerID uuid.UUID, h Habit) (Habit, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanHabit(r.db.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO eco_habits (user_id, habit_name, description, points)
			VALUES ($1, $2, $3, $4)
			RETURNING *
		)
		SELECT `+habitColumns+`
		FROM inserted h JOIN users u ON u.id = h.user_id
	`, ownerID, h.HabitName, h.Description, h.Points))
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Habit, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanHabit(r.db.QueryRow(ctx, `
		SELECT `+habitColumns+`
		FROM eco_habits h JOIN users u ON u.id = h.user_id
		WHERE h.id = $1
	`, id))
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Habit, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+habitColumns+`
		FROM eco_habits h JOIN users u ON u.id = h.user_id
		WHERE h.user_id = $1
		ORDER BY h.created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Habit
	for rows.Next() {
		var h Habit
		if err := rows.Scan(&h.ID, &h.UserID, &h.HabitName, &h.Description, &h.Points, &h.CompletedAt, &h.CreatedAt, &h.UpdatedAt, &h.OwnerDesaID); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, h Habit) (Habit, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanHabit(r.db.QueryRow(ctx, `
		WITH updated AS (
			UPDATE eco_habits
			SET habit_name = $2, description = $3, points = $4, updated_at = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT `+habitColumns+`
		FROM updated h JOIN users u ON u.id = h.user_id
	`, id, h.HabitName, h.Description, h.Points))
}

// MarkCompleted stamps completed_at; matches nothing when already completed
// so the points award stays one-shot.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID) (Habit, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanHabit(r.db.QueryRow(ctx, `
		WITH updated AS (
			UPDATE eco_habits SET completed_at = now(), updated_at = now()
			WHERE id = $1 AND completed_at IS NULL
			RETURNING *
		)
		SELECT `+habitColumns+`
		FROM updated h JOIN users u ON u.id = h.user_id
	`, id))
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM eco_habits WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}
