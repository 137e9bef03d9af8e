package identity_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvConfigDefaults(t *testing.T) {
	cfg, err := identity.LoadEnvConfig()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.GetAccessTokenTTL())
	assert.Equal(t, 168*time.Hour, cfg.GetRefreshTokenTTL())
	assert.Equal(t, 10, cfg.GetBcryptCost())
}

func TestLoadEnvConfigOverrides(t *testing.T) {
	t.Setenv("IDENTITY_ACCESS_TOKEN_TTL", "15m")
	t.Setenv("IDENTITY_REFRESH_TOKEN_TTL", "72h")
	t.Setenv("IDENTITY_BCRYPT_COST", "12")
	t.Setenv("IDENTITY_PRIVATE_KEY_PEM", "private-pem")
	t.Setenv("IDENTITY_PUBLIC_KEY_PEM", "public-pem")

	cfg, err := identity.LoadEnvConfig()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.GetAccessTokenTTL())
	assert.Equal(t, 72*time.Hour, cfg.GetRefreshTokenTTL())
	assert.Equal(t, 12, cfg.GetBcryptCost())
	assert.Equal(t, "private-pem", cfg.GetPrivateKeyPEM())
	assert.Equal(t, "public-pem", cfg.GetPublicKeyPEM())
}

func TestLoadEnvConfigRejectsBadDuration(t *testing.T) {
	t.Setenv("IDENTITY_ACCESS_TOKEN_TTL", "not-a-duration")

	_, err := identity.LoadEnvConfig()
	assert.Error(t, err)
}
