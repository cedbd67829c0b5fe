package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-directory-api/internal/application/directory"
	"github.com/go-directory-api/internal/application/verification"
	"github.com/go-directory-api/internal/domain"
	"github.com/go-directory-api/internal/pkg/validate"
	"github.com/go-directory-api/internal/transport/http/middleware"
)

// UserHandler handles user CRUD and lookup endpoints.
type UserHandler struct {
	svc          directory.Service
	verification verification.Service
}

func NewUserHandler(svc directory.Service, verificationSvc verification.Service) *UserHandler {
	return &UserHandler{svc: svc, verification: verificationSvc}
}

// Register creates the account and kicks off email verification. A mail
// delivery failure does not fail registration — the token stays stored and
// the user can request a resend.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	u, err := h.svc.Create(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	mailed := true
	if err := h.verification.Issue(r.Context(), u.UserID); err != nil {
		mailed = false
		slog.Warn("verification issue failed on registration", "user_id", u.UserID, "err", err)
	}
	writeJSON(w, http.StatusCreated, UserEnvelope{
		User:                  toSafeUser(u),
		Message:               "user created",
		VerificationEmailSent: &mailed,
	})
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	cursor := r.URL.Query().Get("cursor")
	users, nextCursor, err := h.svc.List(r.Context(), limit, cursor)
	if err != nil {
		httpError(w, err)
		return
	}
	safe := make([]*SafeUser, len(users))
	for i := range users {
		safe[i] = toSafeUser(&users[i])
	}
	writeJSON(w, http.StatusOK, PaginatedUsersEnvelope{Data: safe, NextCursor: nextCursor})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: toSafeUser(u)})
}

// GetByEmail resolves a user from the request body. POST keeps the address
// out of URLs and access logs.
func (h *UserHandler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	u, err := h.svc.GetByEmail(r.Context(), req.Email)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: toSafeUser(u)})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	targetID := chi.URLParam(r, "id")
	if claims.UserID != targetID {
		writeError(w, http.StatusForbidden, "cannot update another user")
		return
	}
	var req domain.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	u, err := h.svc.Update(r.Context(), targetID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: toSafeUser(u), Message: "user updated"})
}

// Delete removes the account and echoes the record as it stood before removal.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	targetID := chi.URLParam(r, "id")
	if claims.UserID != targetID {
		writeError(w, http.StatusForbidden, "cannot delete another user")
		return
	}
	u, err := h.svc.Delete(r.Context(), targetID)
	if err != nil {
		httpError(w, err)
		return
	}
	if err := h.verification.Revoke(r.Context(), targetID); err != nil {
		slog.Warn("failed to revoke verification token", "user_id", targetID, "err", err)
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: toSafeUser(u), Message: "user deleted"})
}
