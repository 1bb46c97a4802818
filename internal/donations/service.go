package donations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/econara/econara-api/internal/authz"
)

var (
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("invalid input")
)

// Donation delivery states.
const (
	StatusTersedia = "tersedia"
	StatusDikirim  = "dikirim"
	StatusDiterima = "diterima"
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, ownerID uuid.UUID, d Donation) (Donation, error)
	Get(ctx context.Context, id uuid.UUID) (Donation, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Donation, error)
	Update(ctx context.Context, id uuid.UUID, d Donation) (Donation, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service holds the donation rules. Lists are owner-scoped for every role;
// item access still runs through the shared guard so a ketua can manage
// donations inside their village.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, actor authz.Identity) ([]Donation, error) {
	return s.store.ListByOwner(ctx, actor.ID)
}

func (s *Service) Create(ctx context.Context, actor authz.Identity, d Donation) (Donation, error) {
	if err := validate(&d); err != nil {
		return Donation{}, err
	}
	return s.store.Insert(ctx, actor.ID, d)
}

func (s *Service) Get(ctx context.Context, actor authz.Identity, id uuid.UUID) (Donation, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return Donation{}, err
	}
	if authz.Authorize(actor, resource(d), authz.ActionRead) != authz.Allow {
		return Donation{}, ErrForbidden
	}
	return d, nil
}

func (s *Service) Update(ctx context.Context, actor authz.Identity, id uuid.UUID, in Donation) (Donation, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Donation{}, err
	}
	if authz.Authorize(actor, resource(current), authz.ActionWrite) != authz.Allow {
		return Donation{}, ErrForbidden
	}
	if err := validate(&in); err != nil {
		return Donation{}, err
	}
	return s.store.Update(ctx, id, in)
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

func validate(d *Donation) error {
	if strings.TrimSpace(d.ItemName) == "" {
		return fmt.Errorf("%w: item_name is required", ErrValidation)
	}
	d.ItemName = strings.TrimSpace(d.ItemName)

	if d.Status == "" {
		d.Status = StatusTersedia
	}
	switch d.Status {
	case StatusTersedia, StatusDikirim, StatusDiterima:
	default:
		return fmt.Errorf("%w: invalid status %q", ErrValidation, d.Status)
	}
	return nil
}

func resource(d Donation) authz.Resource {
	return authz.Resource{OwnerID: d.UserID, OwnerDesaID: d.OwnerDesaID}
}
