package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/wardenapi/warden/internal/usecase"
)

// response is the uniform JSON body returned by every endpoint.
type response struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondToken(w http.ResponseWriter, status int, token string) {
	respondJSON(w, status, response{Success: true, Token: token})
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, response{Success: true, Data: data})
}

func respondErrorMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, response{Success: false, Error: message})
}

// respondError is the boundary translator: it maps the typed workflow errors
// to HTTP status codes. Unexpected errors are logged and rendered as an
// opaque 500.
func respondError(w http.ResponseWriter, logger *zerolog.Logger, err error) {
	switch {
	case errors.Is(err, usecase.ErrUserAlreadyExists):
		respondErrorMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, usecase.ErrMissingCredentials):
		respondErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrInvalidCredentials):
		respondErrorMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, usecase.ErrUserNotFound):
		respondErrorMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, usecase.ErrInvalidResetToken):
		respondErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrEmailDelivery):
		respondErrorMessage(w, http.StatusInternalServerError, err.Error())
	default:
		logger.Error().Err(err).Msg("unexpected error")
		respondErrorMessage(w, http.StatusInternalServerError, "something went wrong")
	}
}
