package recipe

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrValidation marks a request payload problem.
var ErrValidation = errors.New("invalid recipe payload")

// Generator produces a recipe suggestion from a list of ingredients.
type Generator interface {
	Generate(ctx context.Context, ingredients []string) (Generated, error)
}

// Store persists saved recipes.
type Store interface {
	Create(ctx context.Context, s *Saved) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Saved, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type Service struct {
	generator Generator
	store     Store
}

func NewService(generator Generator, store Store) *Service {
	return &Service{generator: generator, store: store}
}

const maxIngredients = 20

func (s *Service) Generate(ctx context.Context, ingredients []string) (Generated, error) {
	cleaned := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		ing = strings.TrimSpace(ing)
		if ing != "" {
			cleaned = append(cleaned, ing)
		}
	}
	if len(cleaned) == 0 {
		return Generated{}, ErrValidation
	}
	if len(cleaned) > maxIngredients {
		cleaned = cleaned[:maxIngredients]
	}
	return s.generator.Generate(ctx, cleaned)
}

func (s *Service) Save(ctx context.Context, userID uuid.UUID, g Generated) (Saved, error) {
	if strings.TrimSpace(g.Title) == "" {
		return Saved{}, ErrValidation
	}
	saved := Saved{
		UserID:      userID,
		Title:       g.Title,
		Description: g.Description,
		Ingredients: g.Ingredients,
		CookTime:    g.CookTime,
		Difficulty:  g.Difficulty,
		Nutrition:   g.Nutrition,
		Steps:       g.Steps,
	}
	if err := s.store.Create(ctx, &saved); err != nil {
		return Saved{}, err
	}
	return saved, nil
}

func (s *Service) ListSaved(ctx context.Context, userID uuid.UUID) ([]Saved, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) DeleteSaved(ctx context.Context, id, userID uuid.UUID) error {
	return s.store.Delete(ctx, id, userID)
}
