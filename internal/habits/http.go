package habits

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/econara/econara-api/internal/http/middleware"
)

// Handler serves the eco-habit routes.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/eco-habits", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
		r.Post("/{id}/complete", h.handleComplete)
	})
}

type habitPayload struct {
	HabitName   string  `json:"habit_name"`
	Description *string `json:"description"`
	Points      int     `json:"points"`
}

func (p habitPayload) toHabit() Habit {
	return Habit{HabitName: p.HabitName, Description: p.Description, Points: p.Points}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ident, ok := httpmiddleware.Identity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "missing identity")
		return
	}

	out, err := h.service.List(r.Context(), ident)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"eco_habits": out})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ident, ok := httpmiddleware.Identity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "missing identity")
		return
	}

	var payload habitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "invalid payload")
		return
	}

	habit, err := h.service.Create(r.Context(), ident, payload.toHabit())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"eco_habit": habit})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ident, ok := httpmiddleware.Identity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "missing identity")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "invalid id")
		return
	}

	habit, err := h.service.Get(r.Context(), ident, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"eco_habit": habit})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ident, ok := httpmiddleware.Identity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "missing identity")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "invalid id")
		return
	}

	var payload habitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "invalid payload")
		return
	}

	habit, err := h.service.Update(r.Context(), ident, id, payload.toHabit())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"eco_habit": habit})
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	ident, ok := httpmiddleware.Identity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "missing identity")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "invalid id")
		return
	}

	habit, err := h.service.Complete(r.Context(), ident, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"eco_habit": habit})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ident, ok := httpmiddleware.Identity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "missing identity")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "invalid id")
		return
	}

	if err := h.service.Delete(r.Context(), ident, id); err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "no access")
	case errors.Is(err, errNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "eco habit not found")
	case errors.Is(err, ErrAlreadyCompleted):
		writeError(w, http.StatusBadRequest, "VALIDATION", "habit already completed")
	case errors.Is(err, ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
	default:
		writeInternalError(w, err)
	}
}

// JSON envelope helpers matching the rest of the project.
type successEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

type errorEnvelope struct {
	Data  any            `json:"data"`
	Error *errorResponse `json:"error"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Data: payload, Error: nil})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Data: nil, Error: &errorResponse{Code: code, Message: message}})
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("eco-habits handler error")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
}
