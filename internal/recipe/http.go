package recipe

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/econara/econara-api/internal/http/middleware"
)

// Handler serves recipe generation and the saved-recipe collection.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/generate-recipe", h.handleGenerate)
	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", h.handleListSaved)
		r.Post("/", h.handleSave)
		r.Delete("/{id}", h.handleDeleteSaved)
	})
}

type generatePayload struct {
	Ingredients []string `json:"ingredients"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if _, ok := httpmiddleware.Identity(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "missing identity")
		return
	}

	var payload generatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "invalid payload")
		return
	}

	g, err := h.service.Generate(r.Context(), payload.Ingredients)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"recipe": g})
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	ident, ok := httpmiddleware.Identity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "missing identity")
		return
	}

	var payload Generated
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "invalid payload")
		return
	}

	saved, err := h.service.Save(r.Context(), ident.ID, payload)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"recipe": saved})
}

func (h *Handler) handleListSaved(w http.ResponseWriter, r *http.Request) {
	ident, ok := httpmiddleware.Identity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "missing identity")
		return
	}

	recipes, err := h.service.ListSaved(r.Context(), ident.ID)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"recipes": recipes})
}

func (h *Handler) handleDeleteSaved(w http.ResponseWriter, r *http.Request) {
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

	if err := h.service.DeleteSaved(r.Context(), id, ident.ID); err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION", "ingredients are required")
	case errors.Is(err, errNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "recipe not found")
	case errors.Is(err, ErrUpstream):
		log.Error().Err(err).Msg("recipe generation failed")
		writeError(w, http.StatusInternalServerError, "UPSTREAM", "recipe generation failed")
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
	log.Error().Err(err).Msg("recipe handler error")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
}
