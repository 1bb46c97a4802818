package middleware

import (
	"net/http"

	"github.com/econara/econara-api/internal/authz"
)

// RequireConfirmedRole gates the resource routes until the caller has
// picked a role and village. Onboarding endpoints (set-role, me, desa
// list) stay outside this gate.
func RequireConfirmedRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := Identity(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "AUTH", "missing identity")
			return
		}
		if !ident.RoleConfirmed {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "role not confirmed")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin restricts a subtree to platform admins.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := Identity(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "AUTH", "missing identity")
			return
		}
		if ident.Role != authz.RoleAdmin {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}
