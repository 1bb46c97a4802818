package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/econara/econara-api/internal/authz"
	httpmiddleware "github.com/econara/econara-api/internal/http/middleware"
)

func TestParseGeneratedStripsMarkdownFence(t *testing.T) {
	raw := "```json\n{\"title\":\"Nasi Goreng Kampung\",\"description\":\"d\",\"ingredients\":[\"nasi\"],\"cookTime\":\"20 menit\",\"difficulty\":\"mudah\",\"nutrition\":{\"calories\":\"450 kkal\"},\"steps\":[\"goreng\"]}\n```"

	g, err := parseGenerated(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if g.Title != "Nasi Goreng Kampung" {
		t.Fatalf("title = %q", g.Title)
	}
	if len(g.Steps) != 1 {
		t.Fatalf("steps = %d", len(g.Steps))
	}
}

func TestParseGeneratedRejectsGarbage(t *testing.T) {
	if _, err := parseGenerated("sorry, I cannot do that"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestClientGenerate(t *testing.T) {
	body := map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]string{{
					"text": `{"title":"Sayur Lodeh","description":"","ingredients":["labu"],"cookTime":"30 menit","difficulty":"mudah","nutrition":{},"steps":["rebus"]}`,
				}},
			},
		}},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL)
	g, err := client.Generate(context.Background(), []string{"labu", "santan"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if g.Title != "Sayur Lodeh" {
		t.Fatalf("title = %q", g.Title)
	}
}

type stubGenerator struct {
	calls int
	out   Generated
	err   error
}

func (s *stubGenerator) Generate(_ context.Context, _ []string) (Generated, error) {
	s.calls++
	return s.out, s.err
}

type stubStore struct {
	saved []Saved
}

func (s *stubStore) Create(_ context.Context, sv *Saved) error {
	sv.ID = uuid.New()
	s.saved = append(s.saved, *sv)
	return nil
}

func (s *stubStore) ListByUser(_ context.Context, userID uuid.UUID) ([]Saved, error) {
	out := make([]Saved, 0)
	for _, sv := range s.saved {
		if sv.UserID == userID {
			out = append(out, sv)
		}
	}
	return out, nil
}

func (s *stubStore) Delete(_ context.Context, id, userID uuid.UUID) error {
	for i, sv := range s.saved {
		if sv.ID == id && sv.UserID == userID {
			s.saved = append(s.saved[:i], s.saved[i+1:]...)
			return nil
		}
	}
	return errNotFound
}

func newTestRouter(gen Generator, store Store, ident authz.Identity) http.Handler {
	handler := NewHandler(NewService(gen, store))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(httpmiddleware.WithIdentity(req.Context(), ident)))
		})
	})
	handler.RegisterRoutes(r)
	return r
}

func TestGenerateRequiresIngredients(t *testing.T) {
	gen := &stubGenerator{out: Generated{Title: "x"}}
	router := newTestRouter(gen, &stubStore{}, authz.Identity{ID: uuid.New(), Role: authz.RoleWarga})

	req := httptest.NewRequest(http.MethodPost, "/generate-recipe", strings.NewReader(`{"ingredients":["  ", ""]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if gen.calls != 0 {
		t.Fatalf("generator called %d times, want 0", gen.calls)
	}
}

func TestGenerateReturnsRecipe(t *testing.T) {
	gen := &stubGenerator{out: Generated{Title: "Tumis Kangkung", Ingredients: []string{"kangkung"}}}
	router := newTestRouter(gen, &stubStore{}, authz.Identity{ID: uuid.New(), Role: authz.RoleWarga})

	req := httptest.NewRequest(http.MethodPost, "/generate-recipe", strings.NewReader(`{"ingredients":["kangkung","bawang"]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Tumis Kangkung") {
		t.Fatalf("body missing recipe: %s", rec.Body.String())
	}
}

func TestSavedRecipesAreScopedToUser(t *testing.T) {
	store := &stubStore{}
	alice := uuid.New()
	bob := uuid.New()
	store.saved = []Saved{
		{ID: uuid.New(), UserID: alice, Title: "A"},
		{ID: uuid.New(), UserID: bob, Title: "B"},
	}

	router := newTestRouter(&stubGenerator{}, store, authz.Identity{ID: alice, Role: authz.RoleWarga})

	req := httptest.NewRequest(http.MethodGet, "/recipes", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `"B"`) {
		t.Fatalf("leaked another user's recipe: %s", rec.Body.String())
	}
}
