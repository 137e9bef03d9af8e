package identity

import (
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
)

// Config holds the deployment policy the service needs: token TTLs, the
// signing keypair, and the hash cost. TTLs are policy, not protocol.
type Config interface {
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetPrivateKeyPEM() string
	GetPublicKeyPEM() string
	GetBcryptCost() int
}

// EnvConfig loads Config from environment variables.
type EnvConfig struct {
	AccessTokenTTL  time.Duration `env:"IDENTITY_ACCESS_TOKEN_TTL" envDefault:"1h"`
	RefreshTokenTTL time.Duration `env:"IDENTITY_REFRESH_TOKEN_TTL" envDefault:"168h"`
	PrivateKeyPEM   string        `env:"IDENTITY_PRIVATE_KEY_PEM"`
	PublicKeyPEM    string        `env:"IDENTITY_PUBLIC_KEY_PEM"`
	BcryptCost      int           `env:"IDENTITY_BCRYPT_COST" envDefault:"10"`
}

// LoadEnvConfig parses the environment into an EnvConfig.
func LoadEnvConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse identity config from environment")
	}
	return cfg, nil
}

func (c *EnvConfig) GetAccessTokenTTL() time.Duration  { return c.AccessTokenTTL }
func (c *EnvConfig) GetRefreshTokenTTL() time.Duration { return c.RefreshTokenTTL }
func (c *EnvConfig) GetPrivateKeyPEM() string          { return c.PrivateKeyPEM }
func (c *EnvConfig) GetPublicKeyPEM() string           { return c.PublicKeyPEM }
func (c *EnvConfig) GetBcryptCost() int                { return c.BcryptCost }
