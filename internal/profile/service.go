package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/econara/econara-api/internal/authz"
)

var (
	// ErrValidation is returned when the supplied fields are unusable.
	ErrValidation = errors.New("invalid input")
	// ErrRoleConfirmed is returned when the one-time role assignment is
	// attempted a second time. A confirmed role cannot be changed.
	ErrRoleConfirmed = errors.New("role already confirmed")
	// ErrDesaNotFound is returned when the chosen village does not exist.
	ErrDesaNotFound = errors.New("desa not found")
)

const cacheTTL = 60 * time.Second

// Store is the persistence surface the service needs.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (Profile, error)
	GetByEmail(ctx context.Context, email string) (Profile, error)
	CredentialsByEmail(ctx context.Context, email string) (uuid.UUID, string, error)
	Create(ctx context.Context, email, nama, passwordHash string) (Profile, error)
	ConfirmRole(ctx context.Context, userID uuid.UUID, role string, desaID uuid.UUID) (Profile, error)
	UpdateNama(ctx context.Context, userID uuid.UUID, nama string) (Profile, error)
	AddPoints(ctx context.Context, userID uuid.UUID, delta int) error
}

// DesaChecker answers whether a village exists. Satisfied by desa.Repository.
type DesaChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service implements the role-assignment workflow and identity resolution.
type Service struct {
	store Store
	desa  DesaChecker
	cache *redis.Client
}

func NewService(store Store, desa DesaChecker, cache *redis.Client) *Service {
	return &Service{store: store, desa: desa, cache: cache}
}

func cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("profile:%s", id)
}

// Identity resolves a JWT subject into the guard's view of the caller. The
// profile row is the source of truth for role and village; a short redis
// cache keeps the per-request lookup cheap.
func (s *Service) Identity(ctx context.Context, userID uuid.UUID) (authz.Identity, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey(userID)).Bytes(); err == nil {
			var p Profile
			if json.Unmarshal(data, &p) == nil {
				return identityFrom(p), nil
			}
		}
	}

	p, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return authz.Identity{}, err
	}

	s.cacheProfile(ctx, p)
	return identityFrom(p), nil
}

// Get returns the full profile row (the /api/me payload).
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (Profile, error) {
	return s.store.GetByID(ctx, userID)
}

// ConfirmRole performs the one-time onboarding assignment: a self-service
// role plus an existing village, exactly once.
func (s *Service) ConfirmRole(ctx context.Context, userID uuid.UUID, role string, desaID uuid.UUID) (Profile, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if !authz.ValidSelfServiceRole(role) {
		return Profile{}, fmt.Errorf("%w: role must be warga or ketua", ErrValidation)
	}
	if desaID == uuid.Nil {
		return Profile{}, fmt.Errorf("%w: desa_id is required", ErrValidation)
	}

	ok, err := s.desa.Exists(ctx, desaID)
	if err != nil {
		return Profile{}, err
	}
	if !ok {
		return Profile{}, ErrDesaNotFound
	}

	current, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	if current.IsRoleConfirmed {
		return Profile{}, ErrRoleConfirmed
	}

	p, err := s.store.ConfirmRole(ctx, userID, role, desaID)
	if err != nil {
		// The conditional UPDATE matches no row when a concurrent call
		// confirmed first.
		if errors.Is(err, ErrNotFound) {
			return Profile{}, ErrRoleConfirmed
		}
		return Profile{}, err
	}

	s.invalidate(ctx, userID)
	s.cacheProfile(ctx, p)
	return p, nil
}

// UpdateProfile applies a partial update; rejects an empty field set.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, nama *string) (Profile, error) {
	if nama == nil || strings.TrimSpace(*nama) == "" {
		return Profile{}, fmt.Errorf("%w: no recognized field supplied", ErrValidation)
	}

	p, err := s.store.UpdateNama(ctx, userID, strings.TrimSpace(*nama))
	if err != nil {
		return Profile{}, err
	}

	s.invalidate(ctx, userID)
	s.cacheProfile(ctx, p)
	return p, nil
}

// AwardPoints credits community points for a completed action.
func (s *Service) AwardPoints(ctx context.Context, userID uuid.UUID, points int) error {
	if points <= 0 {
		return nil
	}
	if err := s.store.AddPoints(ctx, userID, points); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service) cacheProfile(ctx context.Context, p Profile) {
	if s.cache == nil {
		return
	}
	if payload, err := json.Marshal(p); err == nil {
		_ = s.cache.Set(ctx, cacheKey(p.ID), payload, cacheTTL).Err()
	}
}

func (s *Service) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, cacheKey(userID)).Err()
}

func identityFrom(p Profile) authz.Identity {
	ident := authz.Identity{
		ID:            p.ID,
		Email:         p.Email,
		Nama:          p.Nama,
		DesaID:        p.DesaID,
		RoleConfirmed: p.IsRoleConfirmed,
		Points:        p.PoinKomunitas,
	}
	if p.Role != nil {
		ident.Role = *p.Role
	}
	return ident
}
