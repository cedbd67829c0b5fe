package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-directory-api/internal/application/verification"
	"github.com/go-directory-api/internal/transport/http/middleware"
)

// EmailVerifyHandler handles the email verification flow endpoints.
type EmailVerifyHandler struct {
	svc verification.Service
}

func NewEmailVerifyHandler(svc verification.Service) *EmailVerifyHandler {
	return &EmailVerifyHandler{svc: svc}
}

// Status reports whether the given user has verified their address.
func (h *EmailVerifyHandler) Status(w http.ResponseWriter, r *http.Request) {
	verified, err := h.svc.CheckStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		EmailVerified bool `json:"email_verified"`
	}{EmailVerified: verified})
}

// Validate consumes a mailed token. Public: the token itself is the credential.
func (h *EmailVerifyHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Token == "" {
		writeError(w, http.StatusBadRequest, "token required")
		return
	}
	if err := h.svc.Validate(r.Context(), body.Token); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "email verified"})
}

// Resend issues a fresh token for the authenticated user.
func (h *EmailVerifyHandler) Resend(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Resend(r.Context(), claims.UserID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification email sent"})
}
