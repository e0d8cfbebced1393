package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// NewRouter wires the authentication endpoints, request logging and panic
// recovery into an http.Handler.
func NewRouter(logger *zerolog.Logger, auth *AuthHandler, verifier SessionVerifier) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(*logger))
	r.Use(hlog.RequestIDHandler("request_id", "X-Request-ID"))
	r.Use(hlog.AccessHandler(func(req *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(req).Info().
			Str("method", req.Method).
			Stringer("url", req.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(recoverer(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondData(w, http.StatusOK, "ok")
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", auth.Register)
		r.Post("/login", auth.Login)
		r.Post("/forgotpassword", auth.ForgotPassword)
		r.Put("/resetpassword/{resettoken}", auth.ResetPassword)

		r.With(RequireAuth(verifier)).Get("/me", auth.Me)
	})

	return r
}

// recoverer routes panics through the boundary translator instead of
// crashing the request-handling process.
func recoverer(logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					logger.Error().Any("panic", rec).Msg("recovered from panic in handler")
					respondErrorMessage(w, http.StatusInternalServerError, "something went wrong")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
