package adminauth

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Sessions is the persistence surface for issued token pairs. Both
// correlation columns are unique-indexed so lookups are exact-match.
type Sessions interface {
	Create(ctx context.Context, record *Session) (*Session, error)
	GetByAccessTokenID(ctx context.Context, id uuid.UUID) (*Session, error)
	GetByRefreshTokenID(ctx context.Context, id uuid.UUID) (*Session, error)
	Touch(ctx context.Context, id uuid.UUID, when time.Time, remoteAddr string) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteForAdminTx(ctx context.Context, tx bun.IDB, adminID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	CountForAdmin(ctx context.Context, adminID uuid.UUID) (int, error)
}

type sessions struct {
	repository.Repository[*Session]
	db *bun.DB
}

var _ Sessions = (*sessions)(nil)

// NewSessionsRepository wires the Session model into the generic bun
// repository.
func NewSessionsRepository(db *bun.DB) Sessions {
	repo := repository.NewRepository[*Session](db, repository.ModelHandlers[*Session]{
		NewRecord: func() *Session { return &Session{} },
		GetID: func(s *Session) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Session, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
	})

	return &sessions{
		Repository: repo,
		db:         db,
	}
}

func (s *sessions) Create(ctx context.Context, record *Session) (*Session, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return s.Repository.CreateTx(ctx, s.db, record)
}

func (s *sessions) GetByAccessTokenID(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.getWhere(ctx, "?TableAlias.access_token_id = ?", id)
}

func (s *sessions) GetByRefreshTokenID(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.getWhere(ctx, "?TableAlias.refresh_token_id = ?", id)
}

func (s *sessions) getWhere(ctx context.Context, where string, value any) (*Session, error) {
	record := &Session{}
	err := s.db.NewSelect().
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

	return record, nil
}

// Touch records last-use metadata. It is called best-effort off the
// authorization path; failures are logged by the caller, never surfaced.
func (s *sessions) Touch(ctx context.Context, id uuid.UUID, when time.Time, remoteAddr string) error {
	_, err := s.db.NewUpdate().
		Model((*Session)(nil)).
		Set("last_used_at = ?", when).
		Set("last_used_ip = ?", remoteAddr).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (s *sessions) DeleteByID(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.NewDelete().
		Model((*Session)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (s *sessions) DeleteForAdminTx(ctx context.Context, tx bun.IDB, adminID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*Session)(nil)).
		Where("admin_id = ?", adminID).
		Exec(ctx)
	return err
}

// DeleteExpired removes rows whose refresh expiry has passed. It exists for
// out-of-band housekeeping only; expired rows are already rejected at
// validation time.
func (s *sessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*Session)(nil)).
		Where("refresh_expires_at <= ?", now.Unix()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}

func (s *sessions) CountForAdmin(ctx context.Context, adminID uuid.UUID) (int, error) {
	return s.db.NewSelect().
		Model((*Session)(nil)).
		Where("admin_id = ?", adminID).
		Count(ctx)
}
