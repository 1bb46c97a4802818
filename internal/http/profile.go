package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/econara/econara-api/internal/http/middleware"
	"github.com/econara/econara-api/internal/profile"
)

// Me returns the caller's full profile row.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ident, ok := httpmiddleware.Identity(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "missing identity", nil)
		return
	}

	p, err := h.profiles.Get(r.Context(), ident.ID)
	if err != nil {
		h.handleProfileError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"user": p})
}

type updateMePayload struct {
	Nama *string `json:"nama"`
}

// UpdateMe applies a partial profile update.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := httpmiddleware.Identity(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "missing identity", nil)
		return
	}

	var payload updateMePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	p, err := h.profiles.UpdateProfile(r.Context(), ident.ID, payload.Nama)
	if err != nil {
		h.handleProfileError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"user": p})
}

type setRolePayload struct {
	Role   string    `json:"role"`
	DesaID uuid.UUID `json:"desa_id"`
}

// SetRole performs the one-time role and village assignment.
func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	ident, ok := httpmiddleware.Identity(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "missing identity", nil)
		return
	}

	var payload setRolePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	p, err := h.profiles.ConfirmRole(r.Context(), ident.ID, payload.Role, payload.DesaID)
	if err != nil {
		h.handleProfileError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"user": p})
}

func (h *Handler) handleProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profile.ErrRoleConfirmed):
		WriteError(w, http.StatusBadRequest, "VALIDATION", "role already confirmed", nil)
	case errors.Is(err, profile.ErrDesaNotFound):
		WriteError(w, http.StatusBadRequest, "VALIDATION", "desa not found", nil)
	case errors.Is(err, profile.ErrValidation):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, profile.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "profile not found", nil)
	default:
		log.Error().Err(err).Msg("profile handler error")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
