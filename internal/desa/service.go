package desa

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
	Create(ctx context.Context, nama string, kecamatan, provinsi *string) (Desa, error)
	List(ctx context.Context) ([]Desa, error)
	GetByID(ctx context.Context, id uuid.UUID) (Desa, error)
}

// Service holds the village-registry rules.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create registers a new village. Admin only; name is mandatory.
func (s *Service) Create(ctx context.Context, actor authz.Identity, nama string, kecamatan, provinsi *string) (Desa, error) {
	if actor.Role != authz.RoleAdmin {
		return Desa{}, ErrForbidden
	}

	nama = strings.TrimSpace(nama)
	if nama == "" {
		return Desa{}, fmt.Errorf("%w: nama_desa is required", ErrValidation)
	}

	return s.store.Create(ctx, nama, trimPtr(kecamatan), trimPtr(provinsi))
}

// List returns every village, for the onboarding picker.
func (s *Service) List(ctx context.Context) ([]Desa, error) {
	return s.store.List(ctx)
}

func trimPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
