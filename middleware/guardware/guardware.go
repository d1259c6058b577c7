// Package guardware is the transport boundary of the authorization core: a
// Fiber middleware that extracts the bearer token, runs the validation
// cascade for the route's token class and minimum role, and maps typed
// rejections to HTTP status codes.
package guardware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"

	adminauth "github.com/ledgerops/go-adminauth"
)

// DefaultContextKey is the locals key the AuthContext is stored under.
const DefaultContextKey = "auth"

// Config controls one protected route group.
type Config struct {
	// Guard runs the validation cascade. Required.
	Guard *adminauth.Guard
	// Class selects the expected token class; defaults to access.
	Class adminauth.TokenClass
	// MinimumRole is the role floor for the route group; defaults to admin.
	MinimumRole adminauth.AdminRole
	// ContextKey overrides the locals key for the AuthContext.
	ContextKey string
	// AuthScheme is the expected Authorization scheme; defaults to Bearer.
	AuthScheme string
	// ErrorHandler maps rejections to responses; defaults to
	// DefaultErrorHandler.
	ErrorHandler func(c *fiber.Ctx, err error) error
}

func (cfg *Config) setDefaults() {
	if cfg.Class == "" {
		cfg.Class = adminauth.TokenClassAccess
	}
	if cfg.MinimumRole == 0 {
		cfg.MinimumRole = adminauth.RoleAdmin
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = DefaultErrorHandler
	}
}

// New returns the middleware for one route group. On success the
// AuthContext is stored in locals and on the request's user context.
func New(config Config) fiber.Handler {
	cfg := config
	cfg.setDefaults()

	return func(c *fiber.Ctx) error {
		raw, err := ExtractToken(c, cfg.AuthScheme)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		auth, err := cfg.Guard.Authorize(c.UserContext(), raw, cfg.Class, cfg.MinimumRole, RealIP(c))
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, auth)
		c.SetUserContext(adminauth.WithContext(c.UserContext(), auth))

		return c.Next()
	}
}

// ExtractToken pulls the bearer token out of the Authorization header.
func ExtractToken(c *fiber.Ctx, scheme string) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", adminauth.ErrTokenInvalid
	}

	if scheme != "" {
		prefix := scheme + " "
		if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
			return "", adminauth.ErrTokenInvalid
		}
		return header[len(prefix):], nil
	}

	return header, nil
}

// AuthContextFrom retrieves the AuthContext stored by the middleware.
func AuthContextFrom(c *fiber.Ctx, key string) (*adminauth.AuthContext, bool) {
	if key == "" {
		key = DefaultContextKey
	}
	raw := c.Locals(key)
	if raw == nil {
		return nil, false
	}
	auth, ok := raw.(*adminauth.AuthContext)
	return auth, ok
}

// RealIP prefers the proxy-provided client address over the socket peer.
func RealIP(c *fiber.Ctx) string {
	if ip := c.Get("Cf-Connecting-Ip"); ip != "" {
		return ip
	}
	return c.IP()
}

// DefaultErrorHandler renders a rejection as JSON with its stable text code.
func DefaultErrorHandler(c *fiber.Ctx, err error) error {
	return c.Status(StatusCode(err)).JSON(fiber.Map{
		"code":    adminauth.RejectionTextCode(err),
		"message": err.Error(),
	})
}

// StatusCode maps a rejection to its transport status.
func StatusCode(err error) int {
	switch adminauth.RejectionTextCode(err) {
	case adminauth.TextCodeInsufficientRole, adminauth.TextCodeAccountDeactivated:
		return http.StatusForbidden
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return http.StatusInternalServerError
	}

	switch rich.Category {
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
