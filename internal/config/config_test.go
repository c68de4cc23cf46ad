package config

import (
	"context"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(nil))

	require.NoError(t, err)
	assert.Equal(t, "fantasy-bridge", cfg.Server.Name)
	assert.Equal(t, 180, cfg.Auth.LoginTimeoutSeconds)
	assert.False(t, cfg.Auth.Headless)
	assert.Equal(t, "env", cfg.Auth.PersistMode)
	assert.Equal(t, ".env", cfg.Auth.CredentialFile)
	assert.Equal(t, 30, cfg.ESPN.TimeoutSeconds)
	assert.Empty(t, cfg.ESPN.APIURL)
	assert.False(t, cfg.Observe.Enabled)
	assert.Equal(t, "grpc", cfg.Observe.Type)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"SERVER_NAME":             "custom-bridge",
		"AUTH_LOGIN_TIMEOUT_SECS": "60",
		"AUTH_HEADLESS":           "true",
		"AUTH_PERSIST_MODE":       "file",
		"AUTH_CREDENTIAL_FILE":    "/tmp/creds.env",
		"ESPN_API_URL":            "http://localhost:9999",
		"ESPN_TIMEOUT_SECS":       "5",
		"LEAGUE_PROFILE":          "leagues.yaml",
	}))

	require.NoError(t, err)
	assert.Equal(t, "custom-bridge", cfg.Server.Name)
	assert.Equal(t, 60, cfg.Auth.LoginTimeoutSeconds)
	assert.True(t, cfg.Auth.Headless)
	assert.Equal(t, "file", cfg.Auth.PersistMode)
	assert.Equal(t, "/tmp/creds.env", cfg.Auth.CredentialFile)
	assert.Equal(t, "http://localhost:9999", cfg.ESPN.APIURL)
	assert.Equal(t, "leagues.yaml", cfg.Server.LeagueProfile)
}

func TestLoad_InvalidPersistMode(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"AUTH_PERSIST_MODE": "database",
	}))

	require.Error(t, err)
	assert.ErrorContains(t, err, "AUTH_PERSIST_MODE")
}

func TestAuthConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AuthConfig
		wantErr string
	}{
		{
			name: "valid env mode",
			cfg:  AuthConfig{PersistMode: "env", LoginTimeoutSeconds: 180},
		},
		{
			name: "valid memory mode",
			cfg:  AuthConfig{PersistMode: "memory", LoginTimeoutSeconds: 1},
		},
		{
			name:    "unknown mode",
			cfg:     AuthConfig{PersistMode: "s3", LoginTimeoutSeconds: 180},
			wantErr: "AUTH_PERSIST_MODE",
		},
		{
			name:    "file mode without path",
			cfg:     AuthConfig{PersistMode: "file", LoginTimeoutSeconds: 180},
			wantErr: "AUTH_CREDENTIAL_FILE",
		},
		{
			name:    "zero timeout",
			cfg:     AuthConfig{PersistMode: "env", LoginTimeoutSeconds: 0},
			wantErr: "AUTH_LOGIN_TIMEOUT_SECS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
