package adminauth

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Admins is the persistence surface for administrative accounts. Lookup
// misses are reported with repository.IsRecordNotFound; callers translate
// them into domain rejections.
type Admins interface {
	Create(ctx context.Context, record *Admin) (*Admin, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Admin) (*Admin, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Admin, error)
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	GetByConfirmationToken(ctx context.Context, token string) (*Admin, error)
	Update(ctx context.Context, record *Admin) (*Admin, error)
	MarkConfirmed(ctx context.Context, id uuid.UUID) error
	SetStatus(ctx context.Context, id uuid.UUID, status AdminStatus) error
	SetBanned(ctx context.Context, id uuid.UUID, banned bool) error
	SetRole(ctx context.Context, id uuid.UUID, role AdminRole) error
	SetTwoFactor(ctx context.Context, id uuid.UUID, secret string) error
	DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type admins struct {
	repository.Repository[*Admin]
	db *bun.DB
}

var _ Admins = (*admins)(nil)

// NewAdminsRepository wires the Admin model into the generic bun repository.
func NewAdminsRepository(db *bun.DB) Admins {
	repo := repository.NewRepository[*Admin](db, repository.ModelHandlers[*Admin]{
		NewRecord: func() *Admin { return &Admin{} },
		GetID: func(a *Admin) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Admin, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &admins{
		Repository: repo,
		db:         db,
	}
}

func (a *admins) Create(ctx context.Context, record *Admin) (*Admin, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *admins) CreateTx(ctx context.Context, tx bun.IDB, record *Admin) (*Admin, error) {
	if record != nil {
		record.EnsureStatus()
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
	}
	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *admins) GetByID(ctx context.Context, id uuid.UUID) (*Admin, error) {
	return a.getWhere(ctx, "?TableAlias.id = ?", id)
}

func (a *admins) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	return a.getWhere(ctx, "?TableAlias.email = ?", email)
}

func (a *admins) GetByConfirmationToken(ctx context.Context, token string) (*Admin, error) {
	return a.getWhere(ctx, "?TableAlias.confirmation_token = ?", token)
}

func (a *admins) getWhere(ctx context.Context, where string, value any) (*Admin, error) {
	record := &Admin{}
	err := a.db.NewSelect().
		Model(record).
		Where(where, value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"where": where,
				})
		}
		return nil, err
	}

	record.EnsureStatus()
	return record, nil
}

func (a *admins) Update(ctx context.Context, record *Admin) (*Admin, error) {
	return a.Repository.UpdateTx(ctx, a.db, record, repository.UpdateByID(record.ID.String()))
}

// MarkConfirmed consumes the confirmation token: once matched, the admin is
// no longer discoverable by it.
func (a *admins) MarkConfirmed(ctx context.Context, id uuid.UUID) error {
	_, err := a.db.NewUpdate().
		Model((*Admin)(nil)).
		Set("status = ?", StatusPendingEmailConfirm).
		Set("confirmation_token = NULL").
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (a *admins) SetStatus(ctx context.Context, id uuid.UUID, status AdminStatus) error {
	return a.set(ctx, id, "status = ?", status)
}

func (a *admins) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	return a.set(ctx, id, "banned = ?", banned)
}

func (a *admins) SetRole(ctx context.Context, id uuid.UUID, role AdminRole) error {
	return a.set(ctx, id, "role = ?", role)
}

func (a *admins) SetTwoFactor(ctx context.Context, id uuid.UUID, secret string) error {
	_, err := a.db.NewUpdate().
		Model((*Admin)(nil)).
		Set("two_factor_secret = ?", secret).
		Set("two_factor_enabled = TRUE").
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (a *admins) set(ctx context.Context, id uuid.UUID, expr string, value any) error {
	_, err := a.db.NewUpdate().
		Model((*Admin)(nil)).
		Set(expr, value).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (a *admins) DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*Admin)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
