package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/econara/econara-api/internal/authz"
	"github.com/econara/econara-api/internal/storage"
)

var (
	ErrForbidden = errors.New("forbidden")
	// ErrMissingFields matches the wire message the mobile client expects.
	ErrMissingFields = errors.New("Missing required fields")
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, ownerID uuid.UUID, it Item) (Item, error)
	Get(ctx context.Context, id uuid.UUID) (Item, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Item, error)
	ListByDesa(ctx context.Context, desaID uuid.UUID) ([]Item, error)
	ListAll(ctx context.Context) ([]Item, error)
	Update(ctx context.Context, id uuid.UUID, it Item) (Item, error)
	SetPhotoURL(ctx context.Context, id uuid.UUID, url string) (Item, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service holds the stock rules: role-scoped listing and guarded mutation.
type Service struct {
	store   Store
	uploads storage.Uploader
}

func NewService(store Store, uploads storage.Uploader) *Service {
	return &Service{store: store, uploads: uploads}
}

// List scopes rows by the actor's role: warga sees own rows, a ketua sees
// their village, an admin sees everything. A ketua without a village falls
// back to own rows; never an unscoped query.
func (s *Service) List(ctx context.Context, actor authz.Identity) ([]Item, error) {
	switch {
	case actor.Role == authz.RoleAdmin:
		return s.store.ListAll(ctx)
	case actor.Role == authz.RoleKetua && actor.DesaID != nil:
		return s.store.ListByDesa(ctx, *actor.DesaID)
	default:
		return s.store.ListByOwner(ctx, actor.ID)
	}
}

// Create inserts a row owned by the actor. The owner is always taken from
// the identity, never from the payload.
func (s *Service) Create(ctx context.Context, actor authz.Identity, it Item) (Item, error) {
	if strings.TrimSpace(it.ItemName) == "" || strings.TrimSpace(it.Unit) == "" || it.Quantity <= 0 {
		return Item{}, ErrMissingFields
	}
	it.ItemName = strings.TrimSpace(it.ItemName)
	it.Unit = strings.TrimSpace(it.Unit)
	return s.store.Insert(ctx, actor.ID, it)
}

func (s *Service) Get(ctx context.Context, actor authz.Identity, id uuid.UUID) (Item, error) {
	it, err := s.store.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	if authz.Authorize(actor, resource(it), authz.ActionRead) != authz.Allow {
		return Item{}, ErrForbidden
	}
	return it, nil
}

func (s *Service) Update(ctx context.Context, actor authz.Identity, id uuid.UUID, in Item) (Item, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	if authz.Authorize(actor, resource(current), authz.ActionWrite) != authz.Allow {
		return Item{}, ErrForbidden
	}

	if strings.TrimSpace(in.ItemName) == "" || strings.TrimSpace(in.Unit) == "" || in.Quantity <= 0 {
		return Item{}, ErrMissingFields
	}
	in.ItemName = strings.TrimSpace(in.ItemName)
	in.Unit = strings.TrimSpace(in.Unit)

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

// AttachPhoto uploads the image to object storage and persists its URL.
func (s *Service) AttachPhoto(ctx context.Context, actor authz.Identity, id uuid.UUID, body []byte, contentType string) (Item, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	if authz.Authorize(actor, resource(current), authz.ActionWrite) != authz.Allow {
		return Item{}, ErrForbidden
	}

	result, err := s.uploads.Upload(ctx, storage.UploadInput{
		Key:         fmt.Sprintf("stock/%s/%s", current.UserID, id),
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		return Item{}, err
	}

	return s.store.SetPhotoURL(ctx, id, result.URL)
}

func resource(it Item) authz.Resource {
	return authz.Resource{OwnerID: it.UserID, OwnerDesaID: it.DesaID}
}
