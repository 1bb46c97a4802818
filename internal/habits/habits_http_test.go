package habits

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/econara/econara-api/internal/authz"
	httpmiddleware "github.com/econara/econara-api/internal/http/middleware"
)

type stubStore struct {
	habits map[uuid.UUID]Habit
}

func newStubStore() *stubStore {
	return &stubStore{habits: map[uuid.UUID]Habit{}}
}

func (s *stubStore) Insert(ctx context.Context, ownerID uuid.UUID, h Habit) (Habit, error) {
	h.ID = uuid.New()
	h.UserID = ownerID
	s.habits[h.ID] = h
	return h, nil
}

func (s *stubStore) Get(ctx context.Context, id uuid.UUID) (Habit, error) {
	h, ok := s.habits[id]
	if !ok {
		return Habit{}, errNotFound
	}
	return h, nil
}

func (s *stubStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Habit, error) {
	var out []Habit
	for _, h := range s.habits {
		if h.UserID == ownerID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *stubStore) Update(ctx context.Context, id uuid.UUID, in Habit) (Habit, error) {
	h, ok := s.habits[id]
	if !ok {
		return Habit{}, errNotFound
	}
	h.HabitName, h.Description, h.Points = in.HabitName, in.Description, in.Points
	s.habits[id] = h
	return h, nil
}

func (s *stubStore) MarkCompleted(ctx context.Context, id uuid.UUID) (Habit, error) {
	h, ok := s.habits[id]
	if !ok || h.CompletedAt != nil {
		return Habit{}, errNotFound
	}
	now := time.Now()
	h.CompletedAt = &now
	s.habits[id] = h
	return h, nil
}

func (s *stubStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.habits[id]; !ok {
		return errNotFound
	}
	delete(s.habits, id)
	return nil
}

type stubAwarder struct {
	awarded map[uuid.UUID]int
}

func (a *stubAwarder) AwardPoints(ctx context.Context, userID uuid.UUID, points int) error {
	if a.awarded == nil {
		a.awarded = map[uuid.UUID]int{}
	}
	a.awarded[userID] += points
	return nil
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

func TestCompleteAwardsPointsOnce(t *testing.T) {
	store := newStubStore()
	awarder := &stubAwarder{}
	handler := NewHandler(NewService(store, awarder))
	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	owner := authz.Identity{ID: uuid.New(), Role: authz.RoleWarga, RoleConfirmed: true}
	h, _ := store.Insert(context.Background(), owner.ID, Habit{HabitName: "Kompos dapur", Points: 15})

	rec := doJSON(t, r, http.MethodPost, "/eco-habits/"+h.ID.String()+"/complete", nil, owner)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if awarder.awarded[owner.ID] != 15 {
		t.Fatalf("expected 15 points awarded, got %d", awarder.awarded[owner.ID])
	}

	rec = doJSON(t, r, http.MethodPost, "/eco-habits/"+h.ID.String()+"/complete", nil, owner)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second completion should fail, got %d", rec.Code)
	}
	if awarder.awarded[owner.ID] != 15 {
		t.Fatalf("points must be awarded once, got %d", awarder.awarded[owner.ID])
	}
}

func TestHabitOwnerOnly(t *testing.T) {
	store := newStubStore()
	handler := NewHandler(NewService(store, &stubAwarder{}))
	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	owner := authz.Identity{ID: uuid.New(), Role: authz.RoleWarga, RoleConfirmed: true}
	stranger := authz.Identity{ID: uuid.New(), Role: authz.RoleWarga, RoleConfirmed: true}
	h, _ := store.Insert(context.Background(), owner.ID, Habit{HabitName: "Hemat air", Points: 5})

	rec := doJSON(t, r, http.MethodDelete, "/eco-habits/"+h.ID.String(), nil, stranger)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodDelete, "/eco-habits/"+h.ID.String(), nil, owner)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}
