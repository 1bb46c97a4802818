package stock

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/econara/econara-api/internal/authz"
	httpmiddleware "github.com/econara/econara-api/internal/http/middleware"
	"github.com/econara/econara-api/internal/storage"
)

type stubStore struct {
	items map[uuid.UUID]Item
}

func newStubStore() *stubStore {
	return &stubStore{items: map[uuid.UUID]Item{}}
}

func (s *stubStore) Insert(ctx context.Context, ownerID uuid.UUID, it Item) (Item, error) {
	it.ID = uuid.New()
	it.UserID = ownerID
	s.items[it.ID] = it
	return it, nil
}

func (s *stubStore) Get(ctx context.Context, id uuid.UUID) (Item, error) {
	it, ok := s.items[id]
	if !ok {
		return Item{}, errNotFound
	}
	return it, nil
}

func (s *stubStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Item, error) {
	var out []Item
	for _, it := range s.items {
		if it.UserID == ownerID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *stubStore) ListByDesa(ctx context.Context, desaID uuid.UUID) ([]Item, error) {
	var out []Item
	for _, it := range s.items {
		if it.DesaID != nil && *it.DesaID == desaID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *stubStore) ListAll(ctx context.Context) ([]Item, error) {
	var out []Item
	for _, it := range s.items {
		out = append(out, it)
	}
	return out, nil
}

func (s *stubStore) Update(ctx context.Context, id uuid.UUID, in Item) (Item, error) {
	it, ok := s.items[id]
	if !ok {
		return Item{}, errNotFound
	}
	it.ItemName, it.Quantity, it.Unit = in.ItemName, in.Quantity, in.Unit
	it.Category, it.ExpiryDate = in.Category, in.ExpiryDate
	s.items[id] = it
	return it, nil
}

func (s *stubStore) SetPhotoURL(ctx context.Context, id uuid.UUID, url string) (Item, error) {
	it, ok := s.items[id]
	if !ok {
		return Item{}, errNotFound
	}
	it.PhotoURL = &url
	s.items[id] = it
	return it, nil
}

func (s *stubStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.items[id]; !ok {
		return errNotFound
	}
	delete(s.items, id)
	return nil
}

type stubUploader struct{ uploads int }

func (u *stubUploader) Upload(ctx context.Context, input storage.UploadInput) (*storage.UploadResult, error) {
	u.uploads++
	return &storage.UploadResult{URL: "https://cdn.econara.id/" + input.Key}, nil
}

func newRouter(store *stubStore, up storage.Uploader) *chi.Mux {
	handler := NewHandler(NewService(store, up))
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, ident authz.Identity) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(httpmiddleware.WithIdentity(req.Context(), ident))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateStockValidation(t *testing.T) {
	r := newRouter(newStubStore(), &stubUploader{})
	warga := authz.Identity{ID: uuid.New(), Role: authz.RoleWarga, RoleConfirmed: true}

	rec := doJSON(t, r, http.MethodPost, "/stock", map[string]any{"item_name": "Beras", "quantity": 5}, warga)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Error.Message != "Missing required fields" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestStockOwnershipAndScope(t *testing.T) {
	store := newStubStore()
	r := newRouter(store, &stubUploader{})

	desaA := uuid.New()
	desaB := uuid.New()
	owner := authz.Identity{ID: uuid.New(), Role: authz.RoleWarga, DesaID: &desaA, RoleConfirmed: true}
	neighbor := authz.Identity{ID: uuid.New(), Role: authz.RoleWarga, DesaID: &desaA, RoleConfirmed: true}
	ketuaA := authz.Identity{ID: uuid.New(), Role: authz.RoleKetua, DesaID: &desaA, RoleConfirmed: true}
	ketuaB := authz.Identity{ID: uuid.New(), Role: authz.RoleKetua, DesaID: &desaB, RoleConfirmed: true}

	it, _ := store.Insert(context.Background(), owner.ID, Item{ItemName: "Beras", Quantity: 5, Unit: "kg", DesaID: &desaA})
	// Insert keeps the caller-provided desa in the stub; production copies it
	// from the owner row.
	it.DesaID = &desaA
	store.items[it.ID] = it

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		ident  authz.Identity
		status int
	}{
		{"owner reads own item", http.MethodGet, "/stock/" + it.ID.String(), nil, owner, http.StatusOK},
		{"foreign warga denied", http.MethodGet, "/stock/" + it.ID.String(), nil, neighbor, http.StatusForbidden},
		{"ketua same village allowed", http.MethodGet, "/stock/" + it.ID.String(), nil, ketuaA, http.StatusOK},
		{"ketua other village denied", http.MethodPut, "/stock/" + it.ID.String(), map[string]any{"item_name": "Beras", "quantity": 3, "unit": "kg"}, ketuaB, http.StatusForbidden},
		{"unknown id is 404", http.MethodGet, "/stock/" + uuid.NewString(), nil, owner, http.StatusNotFound},
		{"owner updates own item", http.MethodPut, "/stock/" + it.ID.String(), map[string]any{"item_name": "Beras", "quantity": 3, "unit": "kg"}, owner, http.StatusOK},
		{"owner deletes own item", http.MethodDelete, "/stock/" + it.ID.String(), nil, owner, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, r, tc.method, tc.path, tc.body, tc.ident)
			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestStockListScoping(t *testing.T) {
	store := newStubStore()
	r := newRouter(store, &stubUploader{})

	desaA := uuid.New()
	ownerA := authz.Identity{ID: uuid.New(), Role: authz.RoleWarga, DesaID: &desaA, RoleConfirmed: true}
	ownerB := authz.Identity{ID: uuid.New(), Role: authz.RoleWarga, RoleConfirmed: true}
	ketuaA := authz.Identity{ID: uuid.New(), Role: authz.RoleKetua, DesaID: &desaA, RoleConfirmed: true}
	admin := authz.Identity{ID: uuid.New(), Role: authz.RoleAdmin, RoleConfirmed: true}

	itA, _ := store.Insert(context.Background(), ownerA.ID, Item{ItemName: "Beras", Quantity: 2, Unit: "kg", DesaID: &desaA})
	itA.DesaID = &desaA
	store.items[itA.ID] = itA
	store.Insert(context.Background(), ownerB.ID, Item{ItemName: "Gula", Quantity: 1, Unit: "kg"})

	count := func(ident authz.Identity) int {
		rec := doJSON(t, r, http.MethodGet, "/stock", nil, ident)
		if rec.Code != http.StatusOK {
			t.Fatalf("list failed: %d", rec.Code)
		}
		var envelope struct {
			Data struct {
				Stock []Item `json:"stock"`
			} `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatal(err)
		}
		return len(envelope.Data.Stock)
	}

	if got := count(ownerA); got != 1 {
		t.Fatalf("warga should see only own rows, got %d", got)
	}
	if got := count(ketuaA); got != 1 {
		t.Fatalf("ketua should see village rows, got %d", got)
	}
	if got := count(admin); got != 2 {
		t.Fatalf("admin should see all rows, got %d", got)
	}
}

func TestStockPhotoUpload(t *testing.T) {
	store := newStubStore()
	up := &stubUploader{}
	r := newRouter(store, up)

	owner := authz.Identity{ID: uuid.New(), Role: authz.RoleWarga, RoleConfirmed: true}
	it, _ := store.Insert(context.Background(), owner.ID, Item{ItemName: "Beras", Quantity: 5, Unit: "kg"})

	req := httptest.NewRequest(http.MethodPost, "/stock/"+it.ID.String()+"/photo", bytes.NewReader([]byte{0xff, 0xd8, 0xff}))
	req.Header.Set("Content-Type", "image/jpeg")
	req = req.WithContext(httpmiddleware.WithIdentity(req.Context(), owner))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if up.uploads != 1 {
		t.Fatalf("expected one upload, got %d", up.uploads)
	}
	if stored := store.items[it.ID]; stored.PhotoURL == nil {
		t.Fatal("photo_url not persisted")
	}
}
