package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Config holds all configuration for the service, parsed from environment
// variables at startup.
type Config struct {
	Server ServerConfig
	Mongo  MongoConfig
	Token  TokenConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `env:"PORT"             envDefault:"5000"`
	Env             string        `env:"APP_ENV"          envDefault:"development"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DATABASE" envDefault:"warden"`
}

// TokenConfig holds signing configuration for session tokens and the expiry
// window for password reset tokens.
type TokenConfig struct {
	Secret              string        `env:"TOKEN_SECRET"`
	Issuer              string        `env:"TOKEN_ISSUER"            envDefault:"warden"`
	SessionExpiresIn    time.Duration `env:"SESSION_TOKEN_EXPIRES_IN" envDefault:"720h"`
	ResetTokenExpiresIn time.Duration `env:"RESET_TOKEN_EXPIRES_IN"   envDefault:"10m"`
}

// Load parses the configuration from environment variables.
func Load(logger *zerolog.Logger) *Config {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment variables")
	}

	if err := cfg.validate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to validate configuration")
	}

	return &cfg
}

// validate checks that required configuration values are present.
func (c *Config) validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("missing MONGO_URI environment variable")
	}
	if c.Token.Secret == "" {
		return fmt.Errorf("missing TOKEN_SECRET environment variable")
	}

	return nil
}
