package adminauth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Stable text codes carried by every rejection. Clients and tests match on
// these, never on messages.
const (
	TextCodeTokenInvalid       = "AUTH_TOKEN_INVALID"
	TextCodeTokenExpired       = "AUTH_TOKEN_EXPIRED"
	TextCodeSessionNotFound    = "AUTH_SESSION_NOT_FOUND"
	TextCodeActorMissing       = "AUTH_ACTOR_MISSING"
	TextCodeAdminNotFound      = "ADMIN_NOT_FOUND"
	TextCodeAccountDeactivated = "AUTH_ACCOUNT_DEACTIVATED"
	TextCodeAccountNotActive   = "AUTH_ACCOUNT_NOT_ACTIVE"
	TextCodeInsufficientRole   = "AUTH_INSUFFICIENT_ROLE"
	TextCodeInvalidCreds       = "AUTH_INVALID_CREDENTIALS"
	TextCodeInvitationInvalid  = "INVITATION_TOKEN_INVALID"
	TextCodeSelfAction         = "SELF_ACTION_FORBIDDEN"
	TextCodeEmailTaken         = "EMAIL_TAKEN"
	TextCodeAlreadyBanned      = "ADMIN_ALREADY_BANNED"
	TextCodeStoreUnavailable   = "STORE_UNAVAILABLE"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
)

// ErrTokenInvalid is returned when a token is malformed or its signature does
// not verify against the class-specific secret.
var ErrTokenInvalid = goerrors.New("token is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid)

// ErrTokenExpired covers both the embedded expiry and the persisted copy on
// the session row.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired)

// ErrSessionNotFound means no session row matches the token's correlation id.
var ErrSessionNotFound = goerrors.New("session not found, please log in again", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionNotFound)

// ErrActorNotFound is an integrity fault: a session references an admin that
// no longer exists. Unlike the other rejections it warrants server-side
// alerting.
var ErrActorNotFound = goerrors.New("session references a missing admin", goerrors.CategoryInternal).
	WithTextCode(TextCodeActorMissing)

// ErrAdminNotFound is the plain lookup miss for management and registration
// operations addressing a specific admin.
var ErrAdminNotFound = goerrors.New("admin not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAdminNotFound)

// ErrActorDeactivated is returned for banned admins even when token and
// session are otherwise valid.
var ErrActorDeactivated = goerrors.New("your account was deactivated by a superadmin", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountDeactivated)

// ErrActorNotActive means the admin's lifecycle status is insufficient for
// the requested operation.
var ErrActorNotActive = goerrors.New("your account is not activated", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountNotActive)

// ErrInsufficientRole is returned by the caller-side access check.
var ErrInsufficientRole = goerrors.New("you are not permitted to do this operation", goerrors.CategoryAuth).
	WithTextCode(TextCodeInsufficientRole)

// ErrCredentialsIncorrect deliberately does not distinguish a wrong password
// from a wrong one-time code.
var ErrCredentialsIncorrect = goerrors.New("incorrect credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds)

// ErrInvitationTokenInvalid covers mismatched and already-consumed
// confirmation tokens alike.
var ErrInvitationTokenInvalid = goerrors.New("token does not match any invitation", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvitationInvalid).
	WithCode(goerrors.CodeBadRequest)

// ErrSelfActionForbidden rejects ban/delete operations targeting the acting
// identity's own record.
var ErrSelfActionForbidden = goerrors.New("you cannot perform this operation on your own account", goerrors.CategoryValidation).
	WithTextCode(TextCodeSelfAction).
	WithCode(goerrors.CodeBadRequest)

// ErrEmailTaken is returned when an invitation addresses an email that is
// already registered.
var ErrEmailTaken = goerrors.New("this email is already in use", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(goerrors.CodeConflict)

// ErrAlreadyBanned rejects banning an admin that is already banned.
var ErrAlreadyBanned = goerrors.New("this account is already deactivated", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadyBanned).
	WithCode(goerrors.CodeConflict)

// ErrStoreUnavailable is a transient store failure, not a security rejection.
// Callers should retry the whole operation.
var ErrStoreUnavailable = goerrors.New("store unavailable", goerrors.CategoryOperation).
	WithTextCode(TextCodeStoreUnavailable)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsSecurityRejection reports whether the error is one of the expected,
// client-facing authorization outcomes as opposed to a transient store or
// integrity fault.
func IsSecurityRejection(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	switch rich.Category {
	case goerrors.CategoryAuth, goerrors.CategoryValidation, goerrors.CategoryConflict, goerrors.CategoryNotFound:
		return true
	default:
		return false
	}
}

// RejectionTextCode extracts the stable text code from a rejection, or the
// empty string for untyped errors.
func RejectionTextCode(err error) string {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.TextCode
	}
	return ""
}
