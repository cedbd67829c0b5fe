package handler

import (
	"errors"
	"net/http"

	"github.com/go-directory-api/internal/domain"
)

// httpError maps a domain error kind to a transport status code. This is the
// only place the closed error set touches HTTP.
func httpError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAuth):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrExpired):
		status = http.StatusGone
	case errors.Is(err, domain.ErrAlreadyUsed):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrDelivery):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrStorage):
		status = http.StatusInternalServerError
	}
	writeError(w, status, err.Error())
}
