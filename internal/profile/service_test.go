package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type stubStore struct {
	profiles map[uuid.UUID]Profile
	confirms int
}

func (s *stubStore) GetByID(ctx context.Context, id uuid.UUID) (Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (s *stubStore) GetByEmail(ctx context.Context, email string) (Profile, error) {
	for _, p := range s.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return Profile{}, ErrNotFound
}

func (s *stubStore) CredentialsByEmail(ctx context.Context, email string) (uuid.UUID, string, error) {
	return uuid.Nil, "", ErrNotFound
}

func (s *stubStore) Create(ctx context.Context, email, nama, hash string) (Profile, error) {
	p := Profile{ID: uuid.New(), Email: email, Nama: nama}
	s.profiles[p.ID] = p
	return p, nil
}

func (s *stubStore) ConfirmRole(ctx context.Context, userID uuid.UUID, role string, desaID uuid.UUID) (Profile, error) {
	p, ok := s.profiles[userID]
	if !ok || p.IsRoleConfirmed {
		return Profile{}, ErrNotFound
	}
	s.confirms++
	p.Role = &role
	p.DesaID = &desaID
	p.IsRoleConfirmed = true
	s.profiles[userID] = p
	return p, nil
}

func (s *stubStore) UpdateNama(ctx context.Context, userID uuid.UUID, nama string) (Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	p.Nama = nama
	s.profiles[userID] = p
	return p, nil
}

func (s *stubStore) AddPoints(ctx context.Context, userID uuid.UUID, delta int) error {
	p, ok := s.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	p.PoinKomunitas += delta
	s.profiles[userID] = p
	return nil
}

type stubDesa struct {
	known map[uuid.UUID]bool
}

func (s *stubDesa) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.known[id], nil
}

func newTestService() (*Service, *stubStore, uuid.UUID, uuid.UUID) {
	userID := uuid.New()
	desaID := uuid.New()
	store := &stubStore{profiles: map[uuid.UUID]Profile{
		userID: {ID: userID, Email: "warga@econara.id", Nama: "Warga"},
	}}
	desas := &stubDesa{known: map[uuid.UUID]bool{desaID: true}}
	return NewService(store, desas, nil), store, userID, desaID
}

func TestConfirmRole(t *testing.T) {
	svc, _, userID, desaID := newTestService()

	p, err := svc.ConfirmRole(context.Background(), userID, "warga", desaID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.IsRoleConfirmed || p.Role == nil || *p.Role != "warga" || p.DesaID == nil || *p.DesaID != desaID {
		t.Fatalf("profile not confirmed as expected: %+v", p)
	}
}

func TestConfirmRoleRejectsAdmin(t *testing.T) {
	svc, _, userID, desaID := newTestService()

	_, err := svc.ConfirmRole(context.Background(), userID, "admin", desaID)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConfirmRoleUnknownDesa(t *testing.T) {
	svc, _, userID, _ := newTestService()

	_, err := svc.ConfirmRole(context.Background(), userID, "ketua", uuid.New())
	if !errors.Is(err, ErrDesaNotFound) {
		t.Fatalf("expected desa not found, got %v", err)
	}
}

func TestConfirmRoleIsOneShot(t *testing.T) {
	svc, store, userID, desaID := newTestService()

	if _, err := svc.ConfirmRole(context.Background(), userID, "ketua", desaID); err != nil {
		t.Fatalf("first confirmation failed: %v", err)
	}

	// A second call with a different village must not silently overwrite.
	_, err := svc.ConfirmRole(context.Background(), userID, "warga", desaID)
	if !errors.Is(err, ErrRoleConfirmed) {
		t.Fatalf("expected ErrRoleConfirmed, got %v", err)
	}
	if store.confirms != 1 {
		t.Fatalf("expected exactly one confirmation write, got %d", store.confirms)
	}
}

func TestUpdateProfileRequiresField(t *testing.T) {
	svc, _, userID, _ := newTestService()

	if _, err := svc.UpdateProfile(context.Background(), userID, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	empty := "   "
	if _, err := svc.UpdateProfile(context.Background(), userID, &empty); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for blank nama, got %v", err)
	}
}

func TestIdentityCarriesRoleAndDesa(t *testing.T) {
	svc, _, userID, desaID := newTestService()

	if _, err := svc.ConfirmRole(context.Background(), userID, "ketua", desaID); err != nil {
		t.Fatalf("confirmation failed: %v", err)
	}

	ident, err := svc.Identity(context.Background(), userID)
	if err != nil {
		t.Fatalf("identity resolution failed: %v", err)
	}
	if ident.Role != "ketua" || ident.DesaID == nil || *ident.DesaID != desaID || !ident.RoleConfirmed {
		t.Fatalf("identity missing role/desa fields: %+v", ident)
	}
}
