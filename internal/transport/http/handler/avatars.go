package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-directory-api/internal/application/directory"
	"github.com/go-directory-api/internal/transport/http/middleware"
)

// 5 MiB cap on avatar uploads.
const maxAvatarSize = 5 << 20

// AvatarHandler handles profile image upload and retrieval.
type AvatarHandler struct {
	svc directory.Service
}

func NewAvatarHandler(svc directory.Service) *AvatarHandler {
	return &AvatarHandler{svc: svc}
}

func (h *AvatarHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	targetID := chi.URLParam(r, "id")
	if claims.UserID != targetID {
		writeError(w, http.StatusForbidden, "cannot change another user's avatar")
		return
	}
	contentType := r.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" {
		writeError(w, http.StatusUnsupportedMediaType, "avatar must be image/jpeg or image/png")
		return
	}
	body := http.MaxBytesReader(w, r.Body, maxAvatarSize)
	if err := h.svc.UploadAvatar(r.Context(), targetID, body, contentType); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "avatar updated"})
}

func (h *AvatarHandler) Download(w http.ResponseWriter, r *http.Request) {
	stream, contentType, err := h.svc.Avatar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	defer stream.Close()
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, stream)
}
