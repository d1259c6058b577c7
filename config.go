package adminauth

import (
	"bytes"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Default lifetimes applied by Config.EnsureDefaults when the caller leaves
// them zero.
const (
	DefaultAccessTokenTTL  = 1 * time.Hour
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// Config carries the process-wide authentication settings. It is constructed
// once at startup and injected into the constructors that need it; nothing in
// this package reads ambient state at call time.
type Config struct {
	// AccessSecret signs and verifies access-class tokens.
	AccessSecret []byte
	// RefreshSecret signs and verifies refresh-class tokens. It must differ
	// from AccessSecret so one class can never validate the other.
	RefreshSecret []byte
	// AccessTokenTTL is the access token lifetime.
	AccessTokenTTL time.Duration
	// RefreshTokenTTL is the refresh token lifetime.
	RefreshTokenTTL time.Duration
	// Issuer is embedded in the iss claim of every issued token.
	Issuer string
	// TwoFactorIssuer labels the otpauth:// provisioning URI shown in
	// authenticator apps. Defaults to Issuer.
	TwoFactorIssuer string
}

// EnsureDefaults fills zero lifetimes and the 2FA issuer label.
func (c *Config) EnsureDefaults() {
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if c.RefreshTokenTTL == 0 {
		c.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	if c.TwoFactorIssuer == "" {
		c.TwoFactorIssuer = c.Issuer
	}
}

// Validate enforces the structural invariants of the configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.AccessSecret, validation.Required, validation.Length(32, 0)),
		validation.Field(&c.RefreshSecret, validation.Required, validation.Length(32, 0), validation.By(func(interface{}) error {
			if bytes.Equal(c.AccessSecret, c.RefreshSecret) {
				return errors.New("must differ from the access secret")
			}
			return nil
		})),
		validation.Field(&c.Issuer, validation.Required),
		validation.Field(&c.AccessTokenTTL, validation.Min(time.Duration(0))),
		validation.Field(&c.RefreshTokenTTL, validation.Min(time.Duration(0))),
	)
}
