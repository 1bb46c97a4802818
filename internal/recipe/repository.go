package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errNotFound = errors.New("recipe not found")

const dbTimeout = 3 * time.Second

// Saved is a recipe a user stored to their collection.
type Saved struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Ingredients []string  `json:"ingredients"`
	CookTime    string    `json:"cook_time"`
	Difficulty  string    `json:"difficulty"`
	Nutrition   Nutrition `json:"nutrition"`
	Steps       []string  `json:"steps"`
	CreatedAt   time.Time `json:"created_at"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const savedColumns = `id, user_id, title, description, ingredients, cook_time, difficulty, nutrition, steps, created_at`

func (r *Repository) Create(ctx context.Context, s *Saved) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	ingredients, err := json.Marshal(s.Ingredients)
	if err != nil {
		return err
	}
	nutrition, err := json.Marshal(s.Nutrition)
	if err != nil {
		return err
	}
	steps, err := json.Marshal(s.Steps)
	if err != nil {
		return err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO resep (user_id, title, description, ingredients, cook_time, difficulty, nutrition, steps)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+savedColumns,
		s.UserID, s.Title, s.Description, ingredients, s.CookTime, s.Difficulty, nutrition, steps,
	)
	return scanSaved(row, s)
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Saved, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT `+savedColumns+`
		FROM resep
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Saved, 0)
	for rows.Next() {
		var s Saved
		if err := scanSaved(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM resep WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

func scanSaved(row pgx.Row, s *Saved) error {
	var ingredients, nutrition, steps []byte
	err := row.Scan(
		&s.ID, &s.UserID, &s.Title, &s.Description, &ingredients,
		&s.CookTime, &s.Difficulty, &nutrition, &steps, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errNotFound
		}
		return err
	}
	if err := json.Unmarshal(ingredients, &s.Ingredients); err != nil {
		return err
	}
	if err := json.Unmarshal(nutrition, &s.Nutrition); err != nil {
		return err
	}
	return json.Unmarshal(steps, &s.Steps)
}
