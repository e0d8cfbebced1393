package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/wardenapi/warden/internal/config"
	"github.com/wardenapi/warden/internal/handler"
	"github.com/wardenapi/warden/internal/mailer"
	"github.com/wardenapi/warden/internal/repository"
	"github.com/wardenapi/warden/internal/security"
	"github.com/wardenapi/warden/internal/token"
	"github.com/wardenapi/warden/internal/usecase"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg := config.Load(&logger)
	if cfg.Server.Env == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect from MongoDB")
		}
	}()

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := client.Ping(startupCtx, nil); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping MongoDB")
	}

	db := client.Database(cfg.Mongo.Database)
	userRepo := repository.NewUserMongoRepository(startupCtx, &logger, db)

	tokens := token.NewService(
		cfg.Token.Secret,
		cfg.Token.Issuer,
		cfg.Token.SessionExpiresIn,
		cfg.Token.ResetTokenExpiresIn,
	)
	hasher := security.NewHasher()
	smtpMailer := mailer.NewMailer(&logger)

	authUsecase := usecase.NewAuthUsecase(userRepo, tokens, hasher)
	resetUsecase := usecase.NewPasswordResetUsecase(userRepo, tokens, hasher, smtpMailer, &logger)

	authHandler := handler.NewAuthHandler(authUsecase, resetUsecase, &logger)
	router := handler.NewRouter(&logger, authHandler, tokens)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("env", cfg.Server.Env).
			Int("port", cfg.Server.Port).
			Msg("server listening")
		serveErr <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		// Fail fast and rely on the supervisor to restart the process.
		logger.Fatal().Err(err).Msg("server stopped unexpectedly")
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("failed to shut down server gracefully")
	}
}
