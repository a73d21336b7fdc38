package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTConfig.AccessTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.JWTConfig.RefreshTTL)
	assert.NotEqual(t, cfg.JWTConfig.AccessSecret, cfg.JWTConfig.RefreshSecret)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaConfig.Brokers)
	assert.Empty(t, cfg.JaegerEndpoint)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVICE_PORT", ":9000")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("LOGIN_RATE_LIMIT", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWTConfig.AccessTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaConfig.Brokers)
	assert.Equal(t, 3, cfg.LoginRateLimit.Limit)
}

func TestLoad_RejectsSharedSecrets(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "same")
	t.Setenv("JWT_REFRESH_SECRET", "same")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RejectsDefaultSecretsInProduction(t *testing.T) {
	tests := []struct {
		name    string
		access  string
		refresh string
	}{
		{name: "both defaults"},
		{name: "default refresh secret", access: "a-real-production-secret"},
		{name: "default access secret", refresh: "a-real-refresh-secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "production")
			if tt.access != "" {
				t.Setenv("JWT_ACCESS_SECRET", tt.access)
			}
			if tt.refresh != "" {
				t.Setenv("JWT_REFRESH_SECRET", tt.refresh)
			}

			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_AcceptsCustomSecretsInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_ACCESS_SECRET", "a-real-production-secret")
	t.Setenv("JWT_REFRESH_SECRET", "a-real-refresh-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}
