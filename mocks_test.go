package adminauth_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	adminauth "github.com/ledgerops/go-adminauth"
)

// MockAdmins implements adminauth.Admins
type MockAdmins struct {
	mock.Mock
}

func (m *MockAdmins) Create(ctx context.Context, record *adminauth.Admin) (*adminauth.Admin, error) {
	args := m.Called(ctx, record)
	return adminRet(args.Get(0)), args.Error(1)
}

func (m *MockAdmins) CreateTx(ctx context.Context, tx bun.IDB, record *adminauth.Admin) (*adminauth.Admin, error) {
	args := m.Called(ctx, tx, record)
	return adminRet(args.Get(0)), args.Error(1)
}

func (m *MockAdmins) GetByID(ctx context.Context, id uuid.UUID) (*adminauth.Admin, error) {
	args := m.Called(ctx, id)
	return adminRet(args.Get(0)), args.Error(1)
}

func (m *MockAdmins) GetByEmail(ctx context.Context, email string) (*adminauth.Admin, error) {
	args := m.Called(ctx, email)
	return adminRet(args.Get(0)), args.Error(1)
}

func (m *MockAdmins) GetByConfirmationToken(ctx context.Context, token string) (*adminauth.Admin, error) {
	args := m.Called(ctx, token)
	return adminRet(args.Get(0)), args.Error(1)
}

func (m *MockAdmins) Update(ctx context.Context, record *adminauth.Admin) (*adminauth.Admin, error) {
	args := m.Called(ctx, record)
	return adminRet(args.Get(0)), args.Error(1)
}

func (m *MockAdmins) MarkConfirmed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAdmins) SetStatus(ctx context.Context, id uuid.UUID, status adminauth.AdminStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockAdmins) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	args := m.Called(ctx, id, banned)
	return args.Error(0)
}

func (m *MockAdmins) SetRole(ctx context.Context, id uuid.UUID, role adminauth.AdminRole) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *MockAdmins) SetTwoFactor(ctx context.Context, id uuid.UUID, secret string) error {
	args := m.Called(ctx, id, secret)
	return args.Error(0)
}

func (m *MockAdmins) DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func adminRet(v any) *adminauth.Admin {
	if v == nil {
		return nil
	}
	return v.(*adminauth.Admin)
}

// MockSessions implements adminauth.Sessions
type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Create(ctx context.Context, record *adminauth.Session) (*adminauth.Session, error) {
	args := m.Called(ctx, record)
	return sessionRet(args.Get(0)), args.Error(1)
}

func (m *MockSessions) GetByAccessTokenID(ctx context.Context, id uuid.UUID) (*adminauth.Session, error) {
	args := m.Called(ctx, id)
	return sessionRet(args.Get(0)), args.Error(1)
}

func (m *MockSessions) GetByRefreshTokenID(ctx context.Context, id uuid.UUID) (*adminauth.Session, error) {
	args := m.Called(ctx, id)
	return sessionRet(args.Get(0)), args.Error(1)
}

func (m *MockSessions) Touch(ctx context.Context, id uuid.UUID, when time.Time, remoteAddr string) error {
	args := m.Called(ctx, id, when, remoteAddr)
	return args.Error(0)
}

func (m *MockSessions) DeleteByID(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessions) DeleteForAdminTx(ctx context.Context, tx bun.IDB, adminID uuid.UUID) error {
	args := m.Called(ctx, tx, adminID)
	return args.Error(0)
}

func (m *MockSessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessions) CountForAdmin(ctx context.Context, adminID uuid.UUID) (int, error) {
	args := m.Called(ctx, adminID)
	return args.Int(0), args.Error(1)
}

func sessionRet(v any) *adminauth.Session {
	if v == nil {
		return nil
	}
	return v.(*adminauth.Session)
}

// mockRepoManager wires the two mocks behind the RepositoryManager surface.
// RunInTx invokes the callback with a zero transaction handle; the mocks
// ignore it.
type mockRepoManager struct {
	admins   *MockAdmins
	sessions *MockSessions
}

func newMockRepoManager() *mockRepoManager {
	return &mockRepoManager{
		admins:   new(MockAdmins),
		sessions: new(MockSessions),
	}
}

func (m *mockRepoManager) Validate() error { return nil }

func (m *mockRepoManager) MustValidate() {}

func (m *mockRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *mockRepoManager) Admins() adminauth.Admins { return m.admins }

func (m *mockRepoManager) Sessions() adminauth.Sessions { return m.sessions }
