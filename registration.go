package adminauth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/nyaruka/phonenumbers"
)

// Registration walks an invited admin to the active state: token
// confirmation, basic credentials + 2FA enrollment, then one-time-code
// verification with first-session issuance.
type Registration struct {
	repo      RepositoryManager
	twoFactor *TwoFactorManager
	store     *SessionStore
	logger    Logger
}

// RegistrationOption customizes the registration service.
type RegistrationOption func(*Registration)

// WithRegistrationLogger overrides the registration logger.
func WithRegistrationLogger(logger Logger) RegistrationOption {
	return func(r *Registration) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistration wires the registration service.
func NewRegistration(repo RepositoryManager, twoFactor *TwoFactorManager, store *SessionStore, opts ...RegistrationOption) *Registration {
	r := &Registration{
		repo:      repo,
		twoFactor: twoFactor,
		store:     store,
		logger:    defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// ConfirmInvitation matches a single-use confirmation token and advances the
// admin to pending-email-confirm. The token is consumed on match: a second
// confirmation with the same token fails.
func (r *Registration) ConfirmInvitation(ctx context.Context, token string) (*Admin, error) {
	if token == "" {
		return nil, ErrInvitationTokenInvalid
	}

	admin, err := r.repo.Admins().GetByConfirmationToken(ctx, token)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvitationTokenInvalid
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to resolve confirmation token").
			WithTextCode(TextCodeStoreUnavailable)
	}

	if admin.Status != StatusInvited {
		return nil, ErrInvitationTokenInvalid
	}

	if err := r.repo.Admins().MarkConfirmed(ctx, admin.ID); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume confirmation token")
	}

	admin.Status = StatusPendingEmailConfirm
	admin.ConfirmationToken = nil
	return admin, nil
}

// BasicRegistrationMessage supplies the credentials and profile data for the
// second registration step.
type BasicRegistrationMessage struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
}

// Validate enforces the message's structural rules. Phone is optional but
// must parse as a real number when present.
func (m BasicRegistrationMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.Email),
		validation.Field(&m.Password, validation.Required, validation.Length(8, 0)),
		validation.Field(&m.FirstName, validation.Required),
		validation.Field(&m.LastName, validation.Required),
		validation.Field(&m.Phone, validation.By(validatePhone)),
	)
}

func validatePhone(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}

	parsed, err := phonenumbers.Parse(raw, "")
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid phone number")
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return goerrors.New("invalid phone number", goerrors.CategoryValidation)
	}
	return nil
}

// RegisterBasic sets password and profile on a confirmed admin, enrolls the
// second factor, and advances to pending-2fa-enroll. The returned artifact
// is the only place the provisioning QR code is exposed.
func (r *Registration) RegisterBasic(ctx context.Context, msg BasicRegistrationMessage) (*ProvisioningArtifact, error) {
	if err := msg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	admin, err := r.repo.Admins().GetByEmail(ctx, msg.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAdminNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to load admin").
			WithTextCode(TextCodeStoreUnavailable)
	}

	if admin.Status != StatusPendingEmailConfirm {
		return nil, ErrActorNotActive
	}

	hash, err := HashPassword(msg.Password)
	if err != nil {
		return nil, err
	}

	admin.PasswordHash = hash
	admin.FirstName = msg.FirstName
	admin.LastName = msg.LastName
	admin.Phone = msg.Phone

	if _, err := r.repo.Admins().Update(ctx, admin); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store credentials")
	}

	artifact, err := r.twoFactor.Enroll(ctx, admin)
	if err != nil {
		return nil, err
	}

	if err := r.repo.Admins().SetStatus(ctx, admin.ID, StatusPending2FAEnroll); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to advance registration status")
	}
	admin.Status = StatusPending2FAEnroll

	return artifact, nil
}

// RegisterFinal verifies the first one-time code, activates the admin, and
// issues the first session. Final registration without prior enrollment
// fails on the status check, never proceeds.
func (r *Registration) RegisterFinal(ctx context.Context, email, code, remoteAddr string) (*LoginResult, error) {
	admin, err := r.repo.Admins().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAdminNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to load admin").
			WithTextCode(TextCodeStoreUnavailable)
	}

	if admin.Status != StatusPending2FAEnroll {
		return nil, ErrActorNotActive
	}
	if !admin.TwoFactorEnabled || admin.TwoFactorSecret == nil {
		return nil, ErrActorNotActive
	}

	if !VerifyTOTP(code, *admin.TwoFactorSecret) {
		return nil, ErrCredentialsIncorrect
	}

	if err := r.repo.Admins().SetStatus(ctx, admin.ID, StatusActive); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to activate admin")
	}
	admin.Status = StatusActive

	_, pair, err := r.store.Issue(ctx, admin.ID, remoteAddr)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Access:  pair.Access,
		Refresh: pair.Refresh,
		Role:    admin.Role,
	}, nil
}
