// Package adminauth implements the authentication and session-authorization
// core of an administrative backend: dual-token (access/refresh) issuance,
// server-side session tracking, TOTP second-factor enrollment, and a
// role-gated validation cascade over persisted admin state.
//
// Admin lifecycle:
//   - Admins carry an AdminStatus field persisted via Bun. An admin is created
//     invited, confirms the invitation token, completes basic registration
//     (password + profile + 2FA enrollment), and becomes active once a valid
//     one-time code is presented. The banned flag is orthogonal to that
//     progression: a banned admin still resolves through the cascade but is
//     never authorized.
//
// Sessions:
//   - Every successful login, final registration, and refresh creates an
//     independent Session row correlating the issued token pair to its admin.
//     Sessions are destroyed only by explicit logout or when the owning admin
//     is deleted. Refresh does not invalidate the prior session.
//
// Validation cascade:
//   - Guard.Authenticate resolves a bearer token through codec verification,
//     session lookup, persisted-expiry re-check, admin load, and ban check.
//     Status and role requirements are separate caller-side checks so routes
//     with different minimum roles share the same identity resolution.
//
// Every rejection is a typed *errors.Error with a stable text code; callers
// match on the sentinel values in errors.go rather than on messages.
package adminauth
