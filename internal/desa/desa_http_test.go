package desa

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
)

type stubStore struct {
	desas []Desa
}

func (s *stubStore) Create(ctx context.Context, nama string, kecamatan, provinsi *string) (Desa, error) {
	d := Desa{ID: uuid.New(), NamaDesa: nama, Kecamatan: kecamatan, Provinsi: provinsi}
	s.desas = append(s.desas, d)
	return d, nil
}

func (s *stubStore) List(ctx context.Context) ([]Desa, error) {
	return s.desas, nil
}

func (s *stubStore) GetByID(ctx context.Context, id uuid.UUID) (Desa, error) {
	for _, d := range s.desas {
		if d.ID == id {
			return d, nil
		}
	}
	return Desa{}, errNotFound
}

func newRouter(store *stubStore) *chi.Mux {
	handler := NewHandler(NewService(store))
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	r.Route("/admin", func(r chi.Router) {
		handler.RegisterAdminRoutes(r)
	})
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path string, body any, ident authz.Identity) *httptest.ResponseRecorder {
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

func TestCreateDesa(t *testing.T) {
	store := &stubStore{}
	r := newRouter(store)

	admin := authz.Identity{ID: uuid.New(), Role: authz.RoleAdmin, RoleConfirmed: true}
	warga := authz.Identity{ID: uuid.New(), Role: authz.RoleWarga, RoleConfirmed: true}

	t.Run("empty name rejected", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodPost, "/admin/desa", map[string]any{"nama_desa": "  "}, admin)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rec.Code)
		}
	})

	t.Run("non-admin rejected", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodPost, "/admin/desa", map[string]any{"nama_desa": "Desa Sukamaju"}, warga)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403 got %d", rec.Code)
		}
	})

	t.Run("admin creates and row is retrievable", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodPost, "/admin/desa", map[string]any{"nama_desa": "Desa Sukamaju", "kecamatan": "Cibinong"}, admin)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
		}

		list := doRequest(t, r, http.MethodGet, "/desa", nil, warga)
		if list.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", list.Code)
		}

		var envelope struct {
			Data struct {
				Desa []Desa `json:"desa"`
			} `json:"data"`
		}
		if err := json.Unmarshal(list.Body.Bytes(), &envelope); err != nil {
			t.Fatal(err)
		}
		if len(envelope.Data.Desa) != 1 || envelope.Data.Desa[0].NamaDesa != "Desa Sukamaju" {
			t.Fatalf("created village not retrievable: %+v", envelope.Data)
		}
	})
}
