package adminauth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

// LoginResult is everything login, refresh, and final registration expose:
// the signed token pair and the admin's role. Nothing else security-relevant
// crosses the boundary.
type LoginResult struct {
	Access  string    `json:"access"`
	Refresh string    `json:"refresh"`
	Role    AdminRole `json:"role"`
}

// Auther orchestrates login, refresh, and logout over the token codec,
// session store, and validation cascade.
type Auther struct {
	repo   RepositoryManager
	codec  *TokenCodec
	store  *SessionStore
	guard  *Guard
	logger Logger
}

// AutherOption customizes an Auther.
type AutherOption func(*Auther)

// WithAutherLogger overrides the authenticator logger.
func WithAutherLogger(logger Logger) AutherOption {
	return func(a *Auther) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithAutherGuard replaces the internally constructed Guard, mainly so tests
// can inject a fixed clock.
func WithAutherGuard(guard *Guard) AutherOption {
	return func(a *Auther) {
		if guard != nil {
			a.guard = guard
		}
	}
}

// WithAutherSessionStore replaces the internally constructed SessionStore.
func WithAutherSessionStore(store *SessionStore) AutherOption {
	return func(a *Auther) {
		if store != nil {
			a.store = store
		}
	}
}

// NewAuther builds the authenticator and its collaborators from one Config.
func NewAuther(cfg Config, repo RepositoryManager, opts ...AutherOption) *Auther {
	cfg.EnsureDefaults()

	codec := NewTokenCodec(cfg)

	a := &Auther{
		repo:   repo,
		codec:  codec,
		store:  NewSessionStore(codec, repo.Sessions()),
		guard:  NewGuard(codec, repo),
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

// Guard returns the validation cascade used by this authenticator.
func (a *Auther) Guard() *Guard {
	return a.guard
}

// SessionStore returns the session store used by this authenticator.
func (a *Auther) SessionStore() *SessionStore {
	return a.store
}

// TokenCodec returns the codec used by this authenticator.
func (a *Auther) TokenCodec() *TokenCodec {
	return a.codec
}

// Login authenticates email + password + one-time code and creates a fresh
// session. Password and code failures are deliberately indistinguishable;
// status and ban failures return their specific reasons.
func (a *Auther) Login(ctx context.Context, email, password, code, remoteAddr string) (*LoginResult, error) {
	admin, err := a.repo.Admins().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// Unknown email folds into the generic credentials rejection.
			return nil, ErrCredentialsIncorrect
		}
		a.logger.Error("login failed to load admin", "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to load admin").
			WithTextCode(TextCodeStoreUnavailable)
	}

	if admin.Status != StatusActive {
		return nil, ErrActorNotActive
	}
	if admin.Banned {
		return nil, ErrActorDeactivated
	}
	if admin.TwoFactorSecret == nil || !admin.TwoFactorEnabled {
		// Violates the active-implies-enrolled invariant; treat as not active
		// rather than leaking enrollment state.
		a.logger.Error("active admin without 2FA secret", "admin_id", admin.ID.String())
		return nil, ErrActorNotActive
	}

	if err := ComparePasswordAndHash(password, admin.PasswordHash); err != nil {
		return nil, ErrCredentialsIncorrect
	}
	if !VerifyTOTP(code, *admin.TwoFactorSecret) {
		return nil, ErrCredentialsIncorrect
	}

	_, pair, err := a.store.Issue(ctx, admin.ID, remoteAddr)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Access:  pair.Access,
		Refresh: pair.Refresh,
		Role:    admin.Role,
	}, nil
}

// Refresh runs the cascade for the refresh class and issues a brand-new
// session. The presented session stays valid until its own expiry or an
// explicit logout.
func (a *Auther) Refresh(ctx context.Context, refreshToken, remoteAddr string) (*LoginResult, error) {
	auth, err := a.guard.Authenticate(ctx, refreshToken, TokenClassRefresh)
	if err != nil {
		return nil, err
	}

	if err := a.guard.RequireActive(auth); err != nil {
		return nil, err
	}

	_, pair, err := a.store.Issue(ctx, auth.AdminID(), remoteAddr)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Access:  pair.Access,
		Refresh: pair.Refresh,
		Role:    auth.Role(),
	}, nil
}

// Logout destroys the session matched by the presented access token's
// correlation id.
func (a *Auther) Logout(ctx context.Context, accessToken string) error {
	auth, err := a.guard.Authenticate(ctx, accessToken, TokenClassAccess)
	if err != nil {
		return err
	}

	return a.store.Destroy(ctx, auth.SessionID)
}
