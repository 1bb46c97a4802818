package desa

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/econara/econara-api/internal/http/middleware"
)

// Handler serves the village registry routes.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the authenticated village list (onboarding picker).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/desa", h.handleList)
}

// RegisterAdminRoutes mounts the admin-only creation route.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/desa", h.handleCreate)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	desas, err := h.service.List(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"desa": desas})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ident, ok := httpmiddleware.Identity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "missing identity")
		return
	}

	var payload struct {
		NamaDesa  string  `json:"nama_desa"`
		Kecamatan *string `json:"kecamatan"`
		Provinsi  *string `json:"provinsi"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "invalid payload")
		return
	}

	d, err := h.service.Create(r.Context(), ident, payload.NamaDesa, payload.Kecamatan, payload.Provinsi)
	if err != nil {
		switch {
		case errors.Is(err, ErrForbidden):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "admin only")
		case errors.Is(err, ErrValidation):
			writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		default:
			writeInternalError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"desa": d})
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
	log.Error().Err(err).Msg("desa handler error")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
}
