package adminauth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AdminService implements the superadmin-gated management operations: ban,
// unban, role changes, deletion, and the bootstrap superadmin. Every method
// takes the acting identity explicitly and runs the caller-side access
// check.
type AdminService struct {
	repo      RepositoryManager
	guard     *Guard
	store     *SessionStore
	twoFactor *TwoFactorManager
	logger    Logger
}

// AdminServiceOption customizes the service.
type AdminServiceOption func(*AdminService)

// WithAdminServiceLogger overrides the service logger.
func WithAdminServiceLogger(logger Logger) AdminServiceOption {
	return func(s *AdminService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewAdminService wires the management service.
func NewAdminService(repo RepositoryManager, guard *Guard, store *SessionStore, twoFactor *TwoFactorManager, opts ...AdminServiceOption) *AdminService {
	s := &AdminService{
		repo:      repo,
		guard:     guard,
		store:     store,
		twoFactor: twoFactor,
		logger:    defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Ban flips the banned flag on. Banning yourself and banning an already
// banned admin are both refused.
func (s *AdminService) Ban(ctx context.Context, actor *AuthContext, adminID uuid.UUID) error {
	if err := s.guard.AccessCheck(actor, RoleSuperadmin); err != nil {
		return err
	}
	if actor.AdminID() == adminID {
		return ErrSelfActionForbidden
	}

	admin, err := s.loadAdmin(ctx, adminID)
	if err != nil {
		return err
	}

	if admin.Banned {
		return ErrAlreadyBanned
	}

	return s.repo.Admins().SetBanned(ctx, adminID, true)
}

// Unban flips the banned flag off. Unbanning a non-banned admin succeeds,
// unbanning yourself is refused like the other self-targeted mutations.
func (s *AdminService) Unban(ctx context.Context, actor *AuthContext, adminID uuid.UUID) error {
	if err := s.guard.AccessCheck(actor, RoleSuperadmin); err != nil {
		return err
	}
	if actor.AdminID() == adminID {
		return ErrSelfActionForbidden
	}

	if _, err := s.loadAdmin(ctx, adminID); err != nil {
		return err
	}

	return s.repo.Admins().SetBanned(ctx, adminID, false)
}

// ChangeRole sets the target admin's role.
func (s *AdminService) ChangeRole(ctx context.Context, actor *AuthContext, email string, role AdminRole) error {
	if err := s.guard.AccessCheck(actor, RoleSuperadmin); err != nil {
		return err
	}
	if !role.IsValid() {
		return goerrors.New("unknown role", goerrors.CategoryValidation)
	}

	admin, err := s.repo.Admins().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrAdminNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to load admin").
			WithTextCode(TextCodeStoreUnavailable)
	}

	return s.repo.Admins().SetRole(ctx, admin.ID, role)
}

// Delete permanently removes an admin and cascades its sessions. Deleting
// the acting identity's own record is refused.
func (s *AdminService) Delete(ctx context.Context, actor *AuthContext, adminID uuid.UUID) error {
	if err := s.guard.AccessCheck(actor, RoleSuperadmin); err != nil {
		return err
	}
	if actor.AdminID() == adminID {
		return ErrSelfActionForbidden
	}

	if _, err := s.loadAdmin(ctx, adminID); err != nil {
		return err
	}

	return s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.repo.Sessions().DeleteForAdminTx(ctx, tx, adminID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to cascade session deletion")
		}
		if err := s.repo.Admins().DeleteTx(ctx, tx, adminID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete admin")
		}
		return nil
	})
}

// CreateSuperadminMessage bootstraps the first superadmin directly, skipping
// the invitation flow.
type CreateSuperadminMessage struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Validate enforces the message's structural rules.
func (m CreateSuperadminMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.Email),
		validation.Field(&m.Password, validation.Required, validation.Length(8, 0)),
	)
}

// BootstrapResult is returned by CreateSuperadmin: the first token pair plus
// the 2FA provisioning artifact for the new account.
type BootstrapResult struct {
	Access   string                `json:"access"`
	Refresh  string                `json:"refresh"`
	Artifact *ProvisioningArtifact `json:"artifact"`
}

// CreateSuperadmin creates an active superadmin with enrolled second factor
// and issues its first session. It is meant for initial provisioning and
// carries no actor gate; deployments must not expose it past bootstrap.
func (s *AdminService) CreateSuperadmin(ctx context.Context, msg CreateSuperadminMessage, remoteAddr string) (*BootstrapResult, error) {
	if err := msg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid superadmin payload")
	}

	if _, err := s.repo.Admins().GetByEmail(ctx, msg.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to check superadmin email").
			WithTextCode(TextCodeStoreUnavailable)
	}

	hash, err := HashPassword(msg.Password)
	if err != nil {
		return nil, err
	}

	admin := &Admin{
		Email:        msg.Email,
		PasswordHash: hash,
		FirstName:    msg.FirstName,
		LastName:     msg.LastName,
		Role:         RoleSuperadmin,
		Status:       StatusPendingEmailConfirm,
	}

	created, err := s.repo.Admins().Create(ctx, admin)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create superadmin")
	}

	artifact, err := s.twoFactor.Enroll(ctx, created)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Admins().SetStatus(ctx, created.ID, StatusActive); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to activate superadmin")
	}
	created.Status = StatusActive

	_, pair, err := s.store.Issue(ctx, created.ID, remoteAddr)
	if err != nil {
		return nil, err
	}

	return &BootstrapResult{
		Access:   pair.Access,
		Refresh:  pair.Refresh,
		Artifact: artifact,
	}, nil
}

func (s *AdminService) loadAdmin(ctx context.Context, adminID uuid.UUID) (*Admin, error) {
	admin, err := s.repo.Admins().GetByID(ctx, adminID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAdminNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to load admin").
			WithTextCode(TextCodeStoreUnavailable)
	}
	return admin, nil
}
