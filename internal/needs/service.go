package needs

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

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, ownerID uuid.UUID, n Need) (Need, error)
	Get(ctx context.Context, id uuid.UUID) (Need, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Need, error)
	ListAll(ctx context.Context, verified *bool) ([]Need, error)
	Update(ctx context.Context, id uuid.UUID, n Need) (Need, error)
	SetVerified(ctx context.Context, id uuid.UUID) (Need, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service holds the needs rules, including the verification flip.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns own rows for warga; elevated roles see all rows with an
// optional is_verified filter.
func (s *Service) List(ctx context.Context, actor authz.Identity, verified *bool) ([]Need, error) {
	if actor.Elevated() {
		return s.store.ListAll(ctx, verified)
	}
	return s.store.ListByOwner(ctx, actor.ID)
}

// Create inserts a need owned by the actor. New needs are never verified.
func (s *Service) Create(ctx context.Context, actor authz.Identity, n Need) (Need, error) {
	if strings.TrimSpace(n.ItemName) == "" {
		return Need{}, fmt.Errorf("%w: item_name is required", ErrValidation)
	}
	n.ItemName = strings.TrimSpace(n.ItemName)
	n.IsVerified = false
	return s.store.Insert(ctx, actor.ID, n)
}

func (s *Service) Get(ctx context.Context, actor authz.Identity, id uuid.UUID) (Need, error) {
	n, err := s.store.Get(ctx, id)
	if err != nil {
		return Need{}, err
	}
	if authz.Authorize(actor, resource(n), authz.ActionRead) != authz.Allow {
		return Need{}, ErrForbidden
	}
	return n, nil
}

// Update applies the guard, then the verification rule: only an elevated
// actor inside the owner's village (or an admin) may flip is_verified, and
// only from false to true. There is no un-verify.
func (s *Service) Update(ctx context.Context, actor authz.Identity, id uuid.UUID, in Need, wantVerified *bool) (Need, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Need{}, err
	}
	if authz.Authorize(actor, resource(current), authz.ActionWrite) != authz.Allow {
		return Need{}, ErrForbidden
	}

	if strings.TrimSpace(in.ItemName) == "" {
		return Need{}, fmt.Errorf("%w: item_name is required", ErrValidation)
	}
	in.ItemName = strings.TrimSpace(in.ItemName)

	in.IsVerified = current.IsVerified
	if wantVerified != nil && *wantVerified != current.IsVerified {
		if !*wantVerified {
			return Need{}, fmt.Errorf("%w: verification cannot be revoked", ErrValidation)
		}
		if !canVerify(actor, current) {
			return Need{}, ErrForbidden
		}
		in.IsVerified = true
	}

	return s.store.Update(ctx, id, in)
}

// Verify is the dedicated false→true flip.
func (s *Service) Verify(ctx context.Context, actor authz.Identity, id uuid.UUID) (Need, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Need{}, err
	}
	if !canVerify(actor, current) {
		return Need{}, ErrForbidden
	}
	if current.IsVerified {
		return current, nil
	}
	return s.store.SetVerified(ctx, id)
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

// canVerify: admins verify anywhere; a ketua only within their own village.
// Owners cannot verify their own needs.
func canVerify(actor authz.Identity, n Need) bool {
	if actor.Role == authz.RoleAdmin {
		return true
	}
	return actor.Role == authz.RoleKetua && actor.DesaID != nil &&
		n.OwnerDesaID != nil && *actor.DesaID == *n.OwnerDesaID
}

func resource(n Need) authz.Resource {
	return authz.Resource{OwnerID: n.UserID, OwnerDesaID: n.OwnerDesaID}
}
