package adminauth_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adminauth "github.com/ledgerops/go-adminauth"
)

type serviceFixture struct {
	repo       adminauth.RepositoryManager
	auther     *adminauth.Auther
	service    *adminauth.AdminService
	superadmin *adminauth.Admin
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	repo := setupTestRepo(t)
	cfg := testConfig()
	auther := adminauth.NewAuther(cfg, repo)
	twoFactor := adminauth.NewTwoFactorManager(cfg, repo.Admins())

	return &serviceFixture{
		repo:       repo,
		auther:     auther,
		service:    adminauth.NewAdminService(repo, auther.Guard(), auther.SessionStore(), twoFactor),
		superadmin: seedAdmin(t, repo, nil),
	}
}

func (f *serviceFixture) actor() *adminauth.AuthContext {
	return actorFor(f.superadmin)
}

func TestBanRevokesAccess(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	target := seedAdmin(t, f.repo, func(a *adminauth.Admin) {
		a.Role = adminauth.RoleAdmin
	})

	// The target logs in before being banned.
	code := totpCode(t, *target.TwoFactorSecret)
	login, err := f.auther.Login(ctx, target.Email, testPassword, code, "")
	require.NoError(t, err)

	require.NoError(t, f.service.Ban(ctx, f.actor(), target.ID))

	// The surviving session no longer authorizes anything.
	_, err = f.auther.Guard().Authenticate(ctx, login.Access, adminauth.TokenClassAccess)
	assert.ErrorIs(t, err, adminauth.ErrActorDeactivated)
	_, err = f.auther.Refresh(ctx, login.Refresh, "")
	assert.ErrorIs(t, err, adminauth.ErrActorDeactivated)
}

func TestBanSelfForbidden(t *testing.T) {
	f := newServiceFixture(t)

	err := f.service.Ban(context.Background(), f.actor(), f.superadmin.ID)
	assert.ErrorIs(t, err, adminauth.ErrSelfActionForbidden)

	stored, loadErr := f.repo.Admins().GetByID(context.Background(), f.superadmin.ID)
	require.NoError(t, loadErr)
	assert.False(t, stored.Banned)
}

func TestBanAlreadyBanned(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	target := seedAdmin(t, f.repo, func(a *adminauth.Admin) {
		a.Banned = true
	})

	err := f.service.Ban(ctx, f.actor(), target.ID)
	assert.ErrorIs(t, err, adminauth.ErrAlreadyBanned)
}

func TestBanUnknownAdmin(t *testing.T) {
	f := newServiceFixture(t)

	err := f.service.Ban(context.Background(), f.actor(), uuid.New())
	assert.ErrorIs(t, err, adminauth.ErrAdminNotFound)
}

func TestUnbanIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	target := seedAdmin(t, f.repo, func(a *adminauth.Admin) {
		a.Banned = true
	})

	require.NoError(t, f.service.Unban(ctx, f.actor(), target.ID))

	stored, err := f.repo.Admins().GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.False(t, stored.Banned)

	// Unbanning an admin that is not banned succeeds quietly.
	assert.NoError(t, f.service.Unban(ctx, f.actor(), target.ID))
}

func TestUnbanSelfForbidden(t *testing.T) {
	f := newServiceFixture(t)

	err := f.service.Unban(context.Background(), f.actor(), f.superadmin.ID)
	assert.ErrorIs(t, err, adminauth.ErrSelfActionForbidden)
}

func TestManagementRequiresSuperadmin(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	plain := seedAdmin(t, f.repo, func(a *adminauth.Admin) {
		a.Role = adminauth.RoleAdmin
	})
	target := seedAdmin(t, f.repo, nil)

	actor := actorFor(plain)

	assert.ErrorIs(t, f.service.Ban(ctx, actor, target.ID), adminauth.ErrInsufficientRole)
	assert.ErrorIs(t, f.service.Unban(ctx, actor, target.ID), adminauth.ErrInsufficientRole)
	assert.ErrorIs(t, f.service.ChangeRole(ctx, actor, target.Email, adminauth.RoleAdmin), adminauth.ErrInsufficientRole)
	assert.ErrorIs(t, f.service.Delete(ctx, actor, target.ID), adminauth.ErrInsufficientRole)
}

func TestChangeRole(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	target := seedAdmin(t, f.repo, func(a *adminauth.Admin) {
		a.Role = adminauth.RoleAdmin
	})

	require.NoError(t, f.service.ChangeRole(ctx, f.actor(), target.Email, adminauth.RoleSuperadmin))

	stored, err := f.repo.Admins().GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, adminauth.RoleSuperadmin, stored.Role)
}

func TestChangeRoleUnknownEmail(t *testing.T) {
	f := newServiceFixture(t)

	err := f.service.ChangeRole(context.Background(), f.actor(), "ghost@example.com", adminauth.RoleAdmin)
	assert.ErrorIs(t, err, adminauth.ErrAdminNotFound)
}

func TestChangeRoleRejectsUnknownRole(t *testing.T) {
	f := newServiceFixture(t)

	err := f.service.ChangeRole(context.Background(), f.actor(), f.superadmin.Email, adminauth.AdminRole(42))
	assert.Error(t, err)
}

func TestDeleteCascadesSessions(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	target := seedAdmin(t, f.repo, func(a *adminauth.Admin) {
		a.Role = adminauth.RoleAdmin
	})

	code := totpCode(t, *target.TwoFactorSecret)
	_, err := f.auther.Login(ctx, target.Email, testPassword, code, "")
	require.NoError(t, err)

	count, err := f.repo.Sessions().CountForAdmin(ctx, target.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, f.service.Delete(ctx, f.actor(), target.ID))

	count, err = f.repo.Sessions().CountForAdmin(ctx, target.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = f.repo.Admins().GetByID(ctx, target.ID)
	assert.Error(t, err)
}

func TestDeleteSelfForbidden(t *testing.T) {
	f := newServiceFixture(t)

	err := f.service.Delete(context.Background(), f.actor(), f.superadmin.ID)
	assert.ErrorIs(t, err, adminauth.ErrSelfActionForbidden)
}

func TestCreateSuperadminBootstrap(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	result, err := f.service.CreateSuperadmin(ctx, adminauth.CreateSuperadminMessage{
		Email:     "root@example.com",
		Password:  "Secret7!pass",
		FirstName: "Root",
		LastName:  "Operator",
	}, "127.0.0.1")
	require.NoError(t, err)
	require.NotNil(t, result.Artifact)
	assert.NotEmpty(t, result.Access)
	assert.NotEmpty(t, result.Refresh)
	assert.True(t, strings.HasPrefix(result.Artifact.QRCode, "data:image/png;base64,"))

	stored, err := f.repo.Admins().GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, adminauth.StatusActive, stored.Status)
	assert.Equal(t, adminauth.RoleSuperadmin, stored.Role)
	assert.True(t, stored.TwoFactorEnabled)

	// The bootstrap pair authenticates immediately.
	auth, err := f.auther.Guard().Authenticate(ctx, result.Access, adminauth.TokenClassAccess)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, auth.AdminID())

	// And the account can log in with password plus a code from the artifact.
	login, err := f.auther.Login(ctx, "root@example.com", "Secret7!pass", totpCode(t, result.Artifact.Secret), "")
	require.NoError(t, err)
	assert.Equal(t, adminauth.RoleSuperadmin, login.Role)
}

func TestCreateSuperadminDuplicateEmail(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.CreateSuperadmin(context.Background(), adminauth.CreateSuperadminMessage{
		Email:    f.superadmin.Email,
		Password: "Secret7!pass",
	}, "")
	assert.ErrorIs(t, err, adminauth.ErrEmailTaken)
}

func TestCreateSuperadminValidatesPayload(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.CreateSuperadmin(context.Background(), adminauth.CreateSuperadminMessage{
		Email:    "not-an-email",
		Password: "short",
	}, "")
	assert.Error(t, err)
}
