// Package handler exposes the authentication workflow over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/rs/zerolog"

	"github.com/wardenapi/warden/internal/usecase"
)

// RegisterRequest is the payload for user registration.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the payload for user login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest is the payload for requesting a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the payload for resetting a password; the reset
// token itself travels in the URL.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

// AuthHandler handles the HTTP surface of the authentication API.
type AuthHandler struct {
	authUsecase  usecase.AuthUsecase
	resetUsecase usecase.PasswordResetUsecase
	validate     *validator.Validate
	trans        ut.Translator
	logger       *zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	authUsecase usecase.AuthUsecase,
	resetUsecase usecase.PasswordResetUsecase,
	logger *zerolog.Logger,
) *AuthHandler {
	validate := validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = entranslations.RegisterDefaultTranslations(validate, trans)

	return &AuthHandler{
		authUsecase:  authUsecase,
		resetUsecase: resetUsecase,
		validate:     validate,
		trans:        trans,
		logger:       logger,
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.bind(w, r, &req) {
		return
	}

	token, err := h.authUsecase.Register(r.Context(), usecase.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondToken(w, http.StatusCreated, token)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.bind(w, r, &req) {
		return
	}

	token, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondToken(w, http.StatusOK, token)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondErrorMessage(w, http.StatusUnauthorized, "not authorized to access this route")
		return
	}

	user, err := h.authUsecase.CurrentUser(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondData(w, http.StatusOK, user)
}

// ForgotPassword handles POST /api/auth/forgotpassword.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !h.bind(w, r, &req) {
		return
	}

	if err := h.resetUsecase.ForgotPassword(r.Context(), req.Email, requestBaseURL(r)); err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondData(w, http.StatusOK, "Email sent")
}

// ResetPassword handles PUT /api/auth/resetpassword/{resettoken}.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !h.bind(w, r, &req) {
		return
	}

	token, err := h.resetUsecase.ResetPassword(r.Context(), chi.URLParam(r, "resettoken"), req.Password)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondToken(w, http.StatusOK, token)
}

// bind decodes and validates the request body, rendering a 400 on failure.
func (h *AuthHandler) bind(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}

	if err := h.validate.Struct(req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, h.translateValidationError(err))
		return false
	}

	return true
}

func (h *AuthHandler) translateValidationError(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return "invalid request body"
	}

	return fieldErrors[0].Translate(h.trans)
}

// requestBaseURL reconstructs the scheme and host of the inbound request so
// the emailed reset URL points back at the host the client used.
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host
}
