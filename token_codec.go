package adminauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenClass selects which signing secret and lifetime apply to a token.
// An access-class secret can never validate a refresh-class token and vice
// versa.
type TokenClass string

const (
	TokenClassAccess  TokenClass = "access"
	TokenClassRefresh TokenClass = "refresh"
)

// TokenClaims is the claim set embedded in both token classes. Each token
// carries the correlation ids and expiries of the whole pair so either token
// can recover its sibling's correlation id.
type TokenClaims struct {
	jwt.RegisteredClaims
	AccessTokenID    string `json:"access_uuid"`
	RefreshTokenID   string `json:"refresh_uuid"`
	AccessExpiresAt  int64  `json:"access_exp"`
	RefreshExpiresAt int64  `json:"refresh_exp"`
}

// CorrelationID returns the correlation id relevant to the given class.
func (c *TokenClaims) CorrelationID(class TokenClass) (uuid.UUID, error) {
	raw := c.AccessTokenID
	if class == TokenClassRefresh {
		raw = c.RefreshTokenID
	}
	return uuid.Parse(raw)
}

// ClassExpiresAt returns the embedded expiry for the given class.
func (c *TokenClaims) ClassExpiresAt(class TokenClass) time.Time {
	if class == TokenClassRefresh {
		return time.Unix(c.RefreshExpiresAt, 0)
	}
	return time.Unix(c.AccessExpiresAt, 0)
}

// TokenPair is the result of one issuance: two signed tokens plus the values
// the session store persists alongside them.
type TokenPair struct {
	Access           string
	Refresh          string
	AccessTokenID    uuid.UUID
	RefreshTokenID   uuid.UUID
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	IssuedAt         time.Time
}

// TokenCodec signs and verifies the two token classes. It is purely
// functional over its secrets and clock; all durable state lives in the
// session store.
type TokenCodec struct {
	cfg    Config
	logger Logger
	now    func() time.Time
}

// CodecOption customizes a TokenCodec.
type CodecOption func(*TokenCodec)

// WithCodecClock injects a custom clock (useful for tests).
func WithCodecClock(clock func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithCodecLogger overrides the codec logger.
func WithCodecLogger(logger Logger) CodecOption {
	return func(c *TokenCodec) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewTokenCodec returns a codec bound to the configured secrets and
// lifetimes.
func NewTokenCodec(cfg Config, opts ...CodecOption) *TokenCodec {
	cfg.EnsureDefaults()

	codec := &TokenCodec{
		cfg:    cfg,
		logger: defLogger{},
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(codec)
		}
	}

	return codec
}

// Issue generates two fresh correlation ids, computes absolute expiries from
// the configured lifetimes, and signs one token per class. Both tokens embed
// the same four correlation/expiry claims.
func (c *TokenCodec) Issue() (*TokenPair, error) {
	now := c.now().Truncate(time.Second)

	pair := &TokenPair{
		AccessTokenID:    uuid.New(),
		RefreshTokenID:   uuid.New(),
		AccessExpiresAt:  now.Add(c.cfg.AccessTokenTTL),
		RefreshExpiresAt: now.Add(c.cfg.RefreshTokenTTL),
		IssuedAt:         now,
	}

	var err error
	if pair.Access, err = c.sign(pair, TokenClassAccess); err != nil {
		return nil, err
	}
	if pair.Refresh, err = c.sign(pair, TokenClassRefresh); err != nil {
		return nil, err
	}

	return pair, nil
}

// Verify parses the token, checks its signature against the class-specific
// secret, and rejects expired or malformed tokens. The embedded class expiry
// is exclusive: a token whose expiry equals the current time is expired.
func (c *TokenCodec) Verify(raw string, class TokenClass) (*TokenClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(c.now),
	}
	if c.cfg.Issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(c.cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			c.logger.Error("TokenCodec verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret(class), nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		c.logger.Error("TokenCodec verify could not decode claims")
		return nil, ErrTokenInvalid
	}

	if !claims.ClassExpiresAt(class).After(c.now()) {
		return nil, ErrTokenExpired
	}

	return claims, nil
}

func (c *TokenCodec) sign(pair *TokenPair, class TokenClass) (string, error) {
	exp := pair.AccessExpiresAt
	if class == TokenClassRefresh {
		exp = pair.RefreshExpiresAt
	}

	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(pair.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		AccessTokenID:    pair.AccessTokenID.String(),
		RefreshTokenID:   pair.RefreshTokenID.String(),
		AccessExpiresAt:  pair.AccessExpiresAt.Unix(),
		RefreshExpiresAt: pair.RefreshExpiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(c.secret(class))
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

func (c *TokenCodec) secret(class TokenClass) []byte {
	if class == TokenClassRefresh {
		return c.cfg.RefreshSecret
	}
	return c.cfg.AccessSecret
}
