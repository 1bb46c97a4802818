package habits

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/econara/econara-api/internal/authz"
)

var (
	ErrForbidden        = errors.New("forbidden")
	ErrValidation       = errors.New("invalid input")
	ErrAlreadyCompleted = errors.New("habit already completed")
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, ownerID uuid.UUID, h Habit) (Habit, error)
	Get(ctx context.Context, id uuid.UUID) (Habit, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Habit, error)
	Update(ctx context.Context, id uuid.UUID, h Habit) (Habit, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) (Habit, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PointAwarder credits poin_komunitas. Satisfied by profile.Service.
type PointAwarder interface {
	AwardPoints(ctx context.Context, userID uuid.UUID, points int) error
}

// Service holds the eco-habit rules. Lists are owner-scoped; item access
// runs through the shared guard.
type Service struct {
	store  Store
	points PointAwarder
}

func NewService(store Store, points PointAwarder) *Service {
	return &Service{store: store, points: points}
}

func (s *Service) List(ctx context.Context, actor authz.Identity) ([]Habit, error) {
	return s.store.ListByOwner(ctx, actor.ID)
}

func (s *Service) Create(ctx context.Context, actor authz.Identity, h Habit) (Habit, error) {
	if err := validate(&h); err != nil {
		return Habit{}, err
	}
	return s.store.Insert(ctx, actor.ID, h)
}

func (s *Service) Get(ctx context.Context, actor authz.Identity, id uuid.UUID) (Habit, error) {
	h, err := s.store.Get(ctx, id)
	if err != nil {
		return Habit{}, err
	}
	if authz.Authorize(actor, resource(h), authz.ActionRead) != authz.Allow {
		return Habit{}, ErrForbidden
	}
	return h, nil
}

func (s *Service) Update(ctx context.Context, actor authz.Identity, id uuid.UUID, in Habit) (Habit, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Habit{}, err
	}
	if authz.Authorize(actor, resource(current), authz.ActionWrite) != authz.Allow {
		return Habit{}, ErrForbidden
	}
	if err := validate(&in); err != nil {
		return Habit{}, err
	}
	return s.store.Update(ctx, id, in)
}

// Complete stamps the habit and credits its points to the owner, once.
func (s *Service) Complete(ctx context.Context, actor authz.Identity, id uuid.UUID) (Habit, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Habit{}, err
	}
	if authz.Authorize(actor, resource(current), authz.ActionWrite) != authz.Allow {
		return Habit{}, ErrForbidden
	}
	if current.CompletedAt != nil {
		return Habit{}, ErrAlreadyCompleted
	}

	h, err := s.store.MarkCompleted(ctx, id)
	if err != nil {
		// The conditional UPDATE matches no row when a concurrent call
		// completed first.
		if errors.Is(err, errNotFound) {
			return Habit{}, ErrAlreadyCompleted
		}
		return Habit{}, err
	}

	// Points go to the habit's owner even when an elevated actor completes
	// it on their behalf.
	if err := s.points.AwardPoints(ctx, h.UserID, h.Points); err != nil {
		return Habit{}, err
	}

	return h, nil
}

func (s *Service) Delete(ctx context.Context, actor authz.Identity, id uuid.UUID) error {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if authz.Authorize(actor, resource(current), authz.ActionDelete) != authz.Allow {
		return ErrForbidden
	}
	return s.store.Delete(ctx, id)
}

func validate(h *Habit) error {
	if strings.TrimSpace(h.HabitName) == "" {
		return fmt.Errorf("%w: habit_name is required", ErrValidation)
	}
	h.HabitName = strings.TrimSpace(h.HabitName)
	if h.Points < 0 {
		return fmt.Errorf("%w: points cannot be negative", ErrValidation)
	}
	return nil
}

func resource(h Habit) authz.Resource {
	return authz.Resource{OwnerID: h.UserID, OwnerDesaID: h.OwnerDesaID}
}
