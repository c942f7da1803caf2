package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"dishpatch.dev/internal/auth"
)

// Config is the full service configuration, loaded from DISHPATCH_*
// environment variables. TTLs are validated here so malformed duration
// strings fail at startup, never at token-issue time.
type Config struct {
	HTTPAddr string `env:"DISHPATCH_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr string `env:"DISHPATCH_GRPC_ADDR" envDefault:":9090"`

	// Empty DSN selects the in-memory user store (dev mode).
	PGDSN string `env:"DISHPATCH_PG_DSN"`

	TokenIssuer     string `env:"DISHPATCH_TOKEN_ISSUER" envDefault:"dishpatch"`
	AccessSecret    string `env:"DISHPATCH_ACCESS_SECRET"`
	RefreshSecret   string `env:"DISHPATCH_REFRESH_SECRET"`
	AccessTokenTTL  string `env:"DISHPATCH_ACCESS_TTL" envDefault:"15m"`
	RefreshTokenTTL string `env:"DISHPATCH_REFRESH_TTL" envDefault:"7d"`

	PasswordMinLength      int  `env:"DISHPATCH_PASSWORD_MIN_LENGTH" envDefault:"8"`
	PasswordRequireUpper   bool `env:"DISHPATCH_PASSWORD_REQUIRE_UPPER" envDefault:"true"`
	PasswordRequireLower   bool `env:"DISHPATCH_PASSWORD_REQUIRE_LOWER" envDefault:"true"`
	PasswordRequireDigit   bool `env:"DISHPATCH_PASSWORD_REQUIRE_DIGIT" envDefault:"true"`
	PasswordRequireSpecial bool `env:"DISHPATCH_PASSWORD_REQUIRE_SPECIAL" envDefault:"true"`

	RateBurst    int   `env:"DISHPATCH_RATE_BURST" envDefault:"20"`
	RatePerSec   int   `env:"DISHPATCH_RATE_PER_SEC" envDefault:"10"`
	MaxBodyBytes int64 `env:"DISHPATCH_MAX_BODY_BYTES" envDefault:"1048576"`

	accessTTL  time.Duration
	refreshTTL time.Duration
}

// Load parses and validates the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.AccessSecret == "" || c.RefreshSecret == "" {
		return errors.New("config: DISHPATCH_ACCESS_SECRET and DISHPATCH_REFRESH_SECRET are required")
	}
	if c.AccessSecret == c.RefreshSecret {
		return errors.New("config: access and refresh secrets must differ")
	}

	var err error
	if c.accessTTL, err = auth.ParseTTL(c.AccessTokenTTL); err != nil {
		return fmt.Errorf("config: DISHPATCH_ACCESS_TTL: %w", err)
	}
	if c.refreshTTL, err = auth.ParseTTL(c.RefreshTokenTTL); err != nil {
		return fmt.Errorf("config: DISHPATCH_REFRESH_TTL: %w", err)
	}
	if c.accessTTL >= c.refreshTTL {
		return errors.New("config: access TTL must be shorter than refresh TTL")
	}
	return nil
}

// AccessTTL returns the validated access-token lifetime.
func (c Config) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL returns the validated refresh-token lifetime.
func (c Config) RefreshTTL() time.Duration { return c.refreshTTL }

// TokenConfig projects the token-signing portion of the configuration.
func (c Config) TokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		Issuer:        c.TokenIssuer,
		AccessSecret:  []byte(c.AccessSecret),
		RefreshSecret: []byte(c.RefreshSecret),
		AccessTTL:     c.accessTTL,
		RefreshTTL:    c.refreshTTL,
	}
}

// PasswordConfig projects the password-policy portion of the configuration.
func (c Config) PasswordConfig() auth.PasswordConfig {
	return auth.PasswordConfig{
		MinLength:      c.PasswordMinLength,
		RequireUpper:   c.PasswordRequireUpper,
		RequireLower:   c.PasswordRequireLower,
		RequireDigit:   c.PasswordRequireDigit,
		RequireSpecial: c.PasswordRequireSpecial,
		BcryptCost:     0, // NewPasswordPolicy falls back to the bcrypt default
	}
}
