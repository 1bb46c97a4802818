package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/econara/econara-api/internal/auth"
	"github.com/econara/econara-api/internal/profile"
)

type stubUsers struct {
	byID    map[uuid.UUID]profile.Profile
	byEmail map[string]uuid.UUID
	hashes  map[uuid.UUID]string
}

func newStubUsers() *stubUsers {
	return &stubUsers{
		byID:    make(map[uuid.UUID]profile.Profile),
		byEmail: make(map[string]uuid.UUID),
		hashes:  make(map[uuid.UUID]string),
	}
}

func (s *stubUsers) GetByID(_ context.Context, id uuid.UUID) (profile.Profile, error) {
	p, ok := s.byID[id]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	return p, nil
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (profile.Profile, error) {
	id, ok := s.byEmail[email]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *stubUsers) CredentialsByEmail(_ context.Context, email string) (uuid.UUID, string, error) {
	id, ok := s.byEmail[email]
	if !ok {
		return uuid.Nil, "", profile.ErrNotFound
	}
	return id, s.hashes[id], nil
}

func (s *stubUsers) Create(_ context.Context, email, nama, passwordHash string) (profile.Profile, error) {
	p := profile.Profile{ID: uuid.New(), Email: email, Nama: nama}
	s.byID[p.ID] = p
	s.byEmail[email] = p.ID
	s.hashes[p.ID] = passwordHash
	return p, nil
}

type fakeRedis struct {
	m map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{m: make(map[string]string)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.m[key] = fmt.Sprint(value)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if v, ok := f.m[key]; ok {
		cmd.SetVal(v)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.m[k]; ok {
			delete(f.m, k)
			n++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(n)
	return cmd
}

func newAuthService() (*AuthService, *stubUsers, *fakeRedis) {
	users := newStubUsers()
	rds := newFakeRedis()
	jwtMgr := auth.NewJWTManager("0123456789abcdef0123456789abcdef", 15*time.Minute)
	return NewAuthService(users, rds, jwtMgr, 7*24*time.Hour), users, rds
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	sess, err := svc.Register(ctx, "Warga@Example.com", "Siti", "rahasia-123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sess.AccessToken == "" || sess.RefreshToken == "" {
		t.Fatal("register: empty tokens")
	}
	if sess.User.Email != "warga@example.com" {
		t.Fatalf("email not normalized: %q", sess.User.Email)
	}

	if _, err := svc.Login(ctx, "warga@example.com", "rahasia-123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.Login(ctx, "warga@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@example.com", "A", "rahasia-123"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, "a@example.com", "B", "rahasia-456"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterValidatesInput(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		nama     string
		password string
	}{
		{"bad email", "not-an-email", "X", "rahasia-123"},
		{"short password", "x@example.com", "X", "short"},
		{"blank name", "x@example.com", "  ", "rahasia-123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.email, tc.nama, tc.password); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	sess, err := svc.Register(ctx, "r@example.com", "R", "rahasia-123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	next, err := svc.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.RefreshToken == sess.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	// The consumed token must be dead.
	if _, err := svc.Refresh(ctx, sess.RefreshToken); !errors.Is(err, auth.ErrInvalidRefresh) {
		t.Fatalf("expected ErrInvalidRefresh for reused token, got %v", err)
	}
}

func TestLogoutRevokesRefresh(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	sess, err := svc.Register(ctx, "l@example.com", "L", "rahasia-123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.Logout(ctx, sess.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, sess.RefreshToken); !errors.Is(err, auth.ErrInvalidRefresh) {
		t.Fatalf("expected ErrInvalidRefresh after logout, got %v", err)
	}
}
