package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/econara/econara-api/internal/auth"
	"github.com/econara/econara-api/internal/service"
)

type registerPayload struct {
	Email    string `json:"email"`
	Nama     string `json:"nama"`
	Password string `json:"password"`
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshPayload struct {
	RefreshToken string `json:"refresh_token"`
}

// Register creates the account and returns an authenticated session.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var payload registerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	sess, err := h.authService.Register(r.Context(), payload.Email, payload.Nama, payload.Password)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, sess)
}

// Login exchanges email and password for a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	sess, err := h.authService.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, sess)
}

// Refresh rotates the refresh token.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var payload refreshPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	sess, err := h.authService.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, sess)
}

// Logout revokes the presented refresh token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var payload refreshPayload
	// A body-less logout still clears nothing server-side but succeeds.
	_ = json.NewDecoder(r.Body).Decode(&payload)

	if err := h.authService.Logout(r.Context(), payload.RefreshToken); err != nil {
		log.Error().Err(err).Msg("logout failed")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *Handler) handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid credentials", nil)
	case errors.Is(err, service.ErrEmailTaken):
		WriteError(w, http.StatusBadRequest, "VALIDATION", "email already registered", nil)
	case errors.Is(err, service.ErrValidation):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, auth.ErrInvalidRefresh):
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid refresh token", nil)
	default:
		log.Error().Err(err).Msg("auth handler error")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
