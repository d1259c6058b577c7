package adminauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// SessionStore couples the token codec to the sessions repository: every
// issuance persists one Session row mirroring the correlation ids and
// expiries embedded in the signed pair. It is the sole source of truth for
// revocation.
type SessionStore struct {
	codec    *TokenCodec
	sessions Sessions
	logger   Logger
	now      func() time.Time
}

// SessionStoreOption customizes the store.
type SessionStoreOption func(*SessionStore)

// WithSessionStoreClock injects a custom clock (useful for tests).
func WithSessionStoreClock(clock func() time.Time) SessionStoreOption {
	return func(s *SessionStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithSessionStoreLogger overrides the store logger.
func WithSessionStoreLogger(logger Logger) SessionStoreOption {
	return func(s *SessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSessionStore returns a store issuing sessions through the given codec.
func NewSessionStore(codec *TokenCodec, sessions Sessions, opts ...SessionStoreOption) *SessionStore {
	store := &SessionStore{
		codec:    codec,
		sessions: sessions,
		logger:   defLogger{},
		now:      time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	return store
}

// Issue signs a fresh token pair and inserts the matching Session row.
// Each call is independent: issuing never touches prior sessions, so
// concurrent logins and refreshes by the same admin all succeed.
func (s *SessionStore) Issue(ctx context.Context, adminID uuid.UUID, remoteAddr string) (*Session, *TokenPair, error) {
	pair, err := s.codec.Issue()
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	session := &Session{
		AdminID:          adminID,
		AccessTokenID:    pair.AccessTokenID,
		RefreshTokenID:   pair.RefreshTokenID,
		AccessExpiresAt:  pair.AccessExpiresAt.Unix(),
		RefreshExpiresAt: pair.RefreshExpiresAt.Unix(),
		IssuedAt:         pair.IssuedAt.Unix(),
		LastUsedAt:       &now,
		LastUsedIP:       remoteAddr,
	}

	created, err := s.sessions.Create(ctx, session)
	if err != nil {
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to create session").
			WithTextCode(TextCodeStoreUnavailable)
	}

	return created, pair, nil
}

// Destroy removes the session. Logout resolves the session via the presented
// access token's correlation id before calling this.
func (s *SessionStore) Destroy(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.sessions.DeleteByID(ctx, sessionID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to destroy session").
			WithTextCode(TextCodeStoreUnavailable)
	}
	return nil
}

// Touch updates last-use metadata best-effort; failures are logged and
// swallowed so the request path never blocks on bookkeeping.
func (s *SessionStore) Touch(ctx context.Context, sessionID uuid.UUID, remoteAddr string) {
	if err := s.sessions.Touch(ctx, sessionID, s.now(), remoteAddr); err != nil {
		s.logger.Warn("session touch failed", "session_id", sessionID.String(), "error", err)
	}
}

// DeleteExpired is the out-of-band reaper; it is never called on the
// authorization-critical path.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}
