package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/econara/econara-api/internal/auth"
	"github.com/econara/econara-api/internal/profile"
	"github.com/econara/econara-api/internal/util"
)

var (
	// ErrInvalidCredentials hides whether the email or the password failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when registering an email already in use.
	ErrEmailTaken = errors.New("email already registered")
	// ErrValidation marks unusable registration input.
	ErrValidation = errors.New("invalid input")
)

type userStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (profile.Profile, error)
	GetByEmail(ctx context.Context, email string) (profile.Profile, error)
	CredentialsByEmail(ctx context.Context, email string) (uuid.UUID, string, error)
	Create(ctx context.Context, email, nama, passwordHash string) (profile.Profile, error)
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService owns registration, login and refresh-token rotation.
// Refresh state lives in redis keyed by the token hash, so revocation
// is a single DEL.
type AuthService struct {
	store      userStore
	redis      redisCommander
	jwt        *auth.JWTManager
	refreshTTL time.Duration
}

func NewAuthService(store userStore, redisClient redisCommander, jwtMgr *auth.JWTManager, refreshTTL time.Duration) *AuthService {
	return &AuthService{store: store, redis: redisClient, jwt: jwtMgr, refreshTTL: refreshTTL}
}

// JWT exposes the manager for the auth middleware.
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// Session is the payload returned by every successful authentication.
type Session struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	User         profile.Profile `json:"user"`
}

// Register creates an account in the unconfirmed-role state and signs it in.
func (s *AuthService) Register(ctx context.Context, email, nama, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := util.ValidateEmail(email); err != nil {
		return nil, errors.Join(ErrValidation, err)
	}
	if err := util.RequireString(nama, "nama"); err != nil {
		return nil, errors.Join(ErrValidation, err)
	}
	if err := util.ValidatePassword(password); err != nil {
		return nil, errors.Join(ErrValidation, err)
	}

	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, profile.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.Hash(password)
	if err != nil {
		return nil, err
	}

	p, err := s.store.Create(ctx, email, strings.TrimSpace(nama), hash)
	if err != nil {
		return nil, err
	}

	return s.issueSession(ctx, p)
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	id, hash, err := s.store.CredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			log.Warn().Msg("login: unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(password, hash)
	if err != nil {
		log.Warn().Err(err).Msg("login: password verify failed")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.issueSession(ctx, p)
}

// Refresh rotates a refresh token: the old one is consumed atomically
// and a fresh pair is issued.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*Session, error) {
	if rawToken == "" {
		return nil, auth.ErrInvalidRefresh
	}

	hash := auth.HashRefreshToken(rawToken)
	key := auth.RefreshRedisKey(hash)

	subject, err := s.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, auth.ErrInvalidRefresh
	}
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, auth.ErrInvalidRefresh
	}

	if err := s.redis.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	p, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return nil, auth.ErrInvalidRefresh
		}
		return nil, err
	}

	return s.issueSession(ctx, p)
}

// Logout revokes the presented refresh token. Unknown tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	key := auth.RefreshRedisKey(auth.HashRefreshToken(rawToken))
	if err := s.redis.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (s *AuthService) issueSession(ctx context.Context, p profile.Profile) (*Session, error) {
	access, _, err := s.jwt.GenerateAccessToken(p.ID.String())
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	key := auth.RefreshRedisKey(refreshHash)
	if err := s.redis.Set(ctx, key, p.ID.String(), s.refreshTTL).Err(); err != nil {
		return nil, err
	}

	return &Session{AccessToken: access, RefreshToken: rawRefresh, User: p}, nil
}
