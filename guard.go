package adminauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// Guard runs the validation cascade: codec verification, session resolution,
// persisted-expiry re-check, admin load, and ban check. Status and role
// requirements are separate calls so endpoints with different minimum roles
// share the same identity resolution.
type Guard struct {
	codec  *TokenCodec
	repo   RepositoryManager
	logger Logger
	now    func() time.Time
}

// GuardOption customizes a Guard.
type GuardOption func(*Guard)

// WithGuardClock injects a custom clock (useful for tests).
func WithGuardClock(clock func() time.Time) GuardOption {
	return func(g *Guard) {
		if clock != nil {
			g.now = clock
		}
	}
}

// WithGuardLogger overrides the guard logger.
func WithGuardLogger(logger Logger) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGuard returns a Guard verifying tokens with the given codec and
// resolving sessions and admins through the repository manager.
func NewGuard(codec *TokenCodec, repo RepositoryManager, opts ...GuardOption) *Guard {
	guard := &Guard{
		codec:  codec,
		repo:   repo,
		logger: defLogger{},
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(guard)
		}
	}

	return guard
}

// Authenticate resolves a bearer token of the expected class into an
// AuthContext, short-circuiting with a typed rejection at the first failing
// step. The ban check runs last among the state facts so a banned admin's
// session details never leak through earlier error codes.
func (g *Guard) Authenticate(ctx context.Context, raw string, class TokenClass) (*AuthContext, error) {
	claims, err := g.codec.Verify(raw, class)
	if err != nil {
		return nil, err
	}

	correlationID, err := claims.CorrelationID(class)
	if err != nil {
		g.logger.Debug("guard rejected token with unparsable correlation id", "error", err)
		return nil, ErrTokenInvalid
	}

	session, err := g.lookupSession(ctx, correlationID, class)
	if err != nil {
		return nil, err
	}

	// Re-check the persisted copy of the expiry: defense against clock skew
	// between issuance and verification.
	if !g.persistedExpiry(session, class).After(g.now()) {
		return nil, ErrTokenExpired
	}

	admin, err := g.repo.Admins().GetByID(ctx, session.AdminID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			g.logger.Error("session references missing admin",
				"session_id", session.ID.String(),
				"admin_id", session.AdminID.String(),
			)
			return nil, ErrActorNotFound
		}
		return nil, g.storeFailure(err, "failed to load admin")
	}

	if admin.Banned {
		return nil, ErrActorDeactivated
	}

	return &AuthContext{
		Admin:     admin,
		SessionID: session.ID,
	}, nil
}

// RequireActive enforces the fully-onboarded lifecycle status.
func (g *Guard) RequireActive(auth *AuthContext) error {
	if auth == nil || auth.Admin == nil {
		return ErrActorNotFound
	}
	if auth.Status() != StatusActive {
		return ErrActorNotActive
	}
	return nil
}

// AccessCheck is the caller-side role comparison: the admin's role must be
// at least the required one per the role's total order.
func (g *Guard) AccessCheck(auth *AuthContext, required AdminRole) error {
	if err := g.RequireActive(auth); err != nil {
		return err
	}
	if !auth.Role().IsAtLeast(required) {
		return ErrInsufficientRole
	}
	return nil
}

// Authorize composes the full cascade for ordinary protected endpoints:
// Authenticate, RequireActive, AccessCheck, then a best-effort last-used
// touch on the session.
func (g *Guard) Authorize(ctx context.Context, raw string, class TokenClass, required AdminRole, remoteAddr string) (*AuthContext, error) {
	auth, err := g.Authenticate(ctx, raw, class)
	if err != nil {
		return nil, err
	}

	if err := g.AccessCheck(auth, required); err != nil {
		return nil, err
	}

	if err := g.repo.Sessions().Touch(ctx, auth.SessionID, g.now(), remoteAddr); err != nil {
		g.logger.Warn("session touch failed", "session_id", auth.SessionID.String(), "error", err)
	}

	return auth, nil
}

func (g *Guard) lookupSession(ctx context.Context, correlationID uuid.UUID, class TokenClass) (*Session, error) {
	var session *Session
	var err error

	if class == TokenClassRefresh {
		session, err = g.repo.Sessions().GetByRefreshTokenID(ctx, correlationID)
	} else {
		session, err = g.repo.Sessions().GetByAccessTokenID(ctx, correlationID)
	}

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, g.storeFailure(err, "failed to resolve session")
	}

	return session, nil
}

func (g *Guard) persistedExpiry(session *Session, class TokenClass) time.Time {
	if class == TokenClassRefresh {
		return time.Unix(session.RefreshExpiresAt, 0)
	}
	return time.Unix(session.AccessExpiresAt, 0)
}

func (g *Guard) storeFailure(err error, msg string) error {
	g.logger.Error(msg, "error", err)
	return goerrors.Wrap(err, goerrors.CategoryOperation, msg).
		WithTextCode(TextCodeStoreUnavailable)
}
