package config

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Auth    AuthConfig
	ESPN    ESPNConfig
	Observe ObserveConfig
	Server  ServerConfig
}

type ServerConfig struct {
	Name    string `env:"SERVER_NAME, default=fantasy-bridge"`
	Version string // internal only

	// LeagueProfile is an optional path to a YAML file mapping league aliases
	// to league id/year pairs.
	LeagueProfile string `env:"LEAGUE_PROFILE"`
}

// AuthConfig controls browser credential acquisition and persistence.
type AuthConfig struct {
	// LoginTimeoutSeconds bounds how long the capture waits for the operator
	// to complete the interactive login.
	LoginTimeoutSeconds int `env:"AUTH_LOGIN_TIMEOUT_SECS, default=180"`

	// Headless runs the capture browser without a window. The login page
	// requires interaction, so this is only useful with a pre-authenticated
	// browser profile or in tests.
	Headless bool `env:"AUTH_HEADLESS, default=false"`

	// PersistMode selects where freshly captured credentials are written in
	// addition to memory: "memory", "env" or "file".
	PersistMode string `env:"AUTH_PERSIST_MODE, default=env"`

	// CredentialFile is the key-value file used by PersistMode=file.
	CredentialFile string `env:"AUTH_CREDENTIAL_FILE, default=.env"`
}

type ESPNConfig struct {
	APIURL string `env:"ESPN_API_URL"` // override for testing

	TimeoutSeconds int `env:"ESPN_TIMEOUT_SECS, default=30"`
}

type ObserveConfig struct {
	Enabled                   bool   `env:"OBSERVE_ENABLED, default=false"`
	MetricsEnabled            bool   `env:"OBSERVE_METRICS_ENABLED, default=true"`
	Type                      string `env:"OBSERVE_TYPE, default=grpc"`
	ServiceName               string `env:"OBSERVE_SERVICE_NAME, default=fantasy-bridge"`
	TraceBatchTimeoutSeconds  int    `env:"OBSERVE_TRACE_BATCH_TIMEOUT_SECS, default=20"`
	MetricReadIntervalSeconds int    `env:"OBSERVE_METRIC_READ_INTERVAL_SECS, default=60"`
	HTTPTransportEnabled      bool   `env:"OBSERVE_HTTP_TRANSPORT_ENABLED, default=true"`
}

// Load reads configuration from the process environment, preloading a local
// .env file first when one exists. Values already present in the environment
// are never overridden by the file.
func Load(ctx context.Context) (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Config{}, fmt.Errorf("loading .env: %w", err)
		}
		log.Debug().Msg("loaded .env file")
	}

	return load(ctx, nil)
}

func load(ctx context.Context, lookup envconfig.Lookuper) (Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookup, // nil defaults to OS environment
	})
	if err != nil {
		return cfg, err
	}

	err = cfg.Auth.Validate()
	if err != nil {
		return cfg, fmt.Errorf("invalid auth configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the auth configuration is usable.
func (c *AuthConfig) Validate() error {
	switch c.PersistMode {
	case "memory", "env", "file":
	default:
		return fmt.Errorf("AUTH_PERSIST_MODE must be one of memory, env, file (got %q)", c.PersistMode)
	}

	if c.PersistMode == "file" && c.CredentialFile == "" {
		return fmt.Errorf("AUTH_CREDENTIAL_FILE required when AUTH_PERSIST_MODE=file")
	}

	if c.LoginTimeoutSeconds <= 0 {
		return fmt.Errorf("AUTH_LOGIN_TIMEOUT_SECS must be positive")
	}

	return nil
}
