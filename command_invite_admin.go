package adminauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// InviteNotification is handed to the Notifier when an invitation is
// created. Dispatching email is a downstream concern.
type InviteNotification struct {
	Email             string
	ConfirmationToken string
}

// Notifier delivers invitation notifications. Implementations must be safe
// for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, n InviteNotification) error
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, InviteNotification) error { return nil }

// InviteAdminMessage creates an invited admin record with a single-use
// confirmation token. Only superadmins may invite.
type InviteAdminMessage struct {
	Actor      *AuthContext `json:"-"`
	Email      string       `json:"email"`
	Role       AdminRole    `json:"role"`
	OnResponse func(resp *InviteAdminResponse)
}

func (m InviteAdminMessage) Type() string { return "admin.invite" }

// Validate enforces the message's structural rules.
func (m InviteAdminMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.Email),
		validation.Field(&m.Role, validation.By(func(any) error {
			if !m.Role.IsValid() {
				return goerrors.New("unknown role", goerrors.CategoryValidation)
			}
			return nil
		})),
	)
}

// InviteAdminResponse carries the created record and its confirmation token
// back to the dispatcher.
type InviteAdminResponse struct {
	Admin             *Admin
	ConfirmationToken string
	Success           bool
}

// InviteAdminHandler executes InviteAdminMessage.
type InviteAdminHandler struct {
	repo     RepositoryManager
	guard    *Guard
	notifier Notifier
	logger   Logger
}

// NewInviteAdminHandler wires the handler. A nil notifier is replaced with a
// no-op.
func NewInviteAdminHandler(repo RepositoryManager, guard *Guard, notifier Notifier) *InviteAdminHandler {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &InviteAdminHandler{
		repo:     repo,
		guard:    guard,
		notifier: notifier,
		logger:   defLogger{},
	}
}

// WithLogger overrides the handler logger.
func (h *InviteAdminHandler) WithLogger(logger Logger) *InviteAdminHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InviteAdminHandler) Execute(ctx context.Context, event InviteAdminMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during admin invitation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InviteAdminHandler) execute(ctx context.Context, event InviteAdminMessage) error {
	if err := h.guard.AccessCheck(event.Actor, RoleSuperadmin); err != nil {
		return err
	}

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid invitation payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	resp := &InviteAdminResponse{}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.Admins().GetByEmail(ctx, event.Email); err == nil {
			return ErrEmailTaken
		} else if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check invitation email")
		}

		token, err := randomToken(20)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate confirmation token")
		}

		admin := &Admin{
			Email:             event.Email,
			Role:              event.Role,
			Status:            StatusInvited,
			ConfirmationToken: &token,
			PasswordHash:      RandomPasswordHash(),
		}
		if id, err := hashid.NewUUID(event.Email); err == nil {
			admin.ID = id
		}

		created, err := h.repo.Admins().CreateTx(ctx, tx, admin)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create invited admin")
		}

		resp.Admin = created
		resp.ConfirmationToken = token

		go h.notify(InviteNotification{
			Email:             created.Email,
			ConfirmationToken: token,
		})

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "admin invitation transaction failed")
	}

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func (h *InviteAdminHandler) notify(n InviteNotification) {
	if err := h.notifier.Notify(context.Background(), n); err != nil {
		h.logger.Warn("invite notification failed", "email", n.Email, "error", err)
	}
}

// randomToken returns n random bytes hex-encoded.
func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
