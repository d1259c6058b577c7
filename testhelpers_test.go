package adminauth_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	adminauth "github.com/ledgerops/go-adminauth"
)

const (
	sqliteCreateAdmins = `CREATE TABLE admins (
    id TEXT NOT NULL PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT,
    first_name TEXT,
    last_name TEXT,
    phone_number TEXT,
    role INTEGER NOT NULL,
    status TEXT NOT NULL,
    banned BOOLEAN NOT NULL DEFAULT FALSE,
    confirmation_token TEXT,
    two_factor_secret TEXT,
    two_factor_enabled BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`
	sqliteCreateSessions = `CREATE TABLE admin_sessions (
    id TEXT NOT NULL PRIMARY KEY,
    admin_id TEXT NOT NULL,
    access_token_id TEXT NOT NULL UNIQUE,
    refresh_token_id TEXT NOT NULL UNIQUE,
    access_expires_at INTEGER NOT NULL,
    refresh_expires_at INTEGER NOT NULL,
    issued_at INTEGER NOT NULL,
    last_used_at TIMESTAMP,
    last_used_ip TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`
)

// setupTestRepo opens a named shared-cache in-memory database so that
// transactions and plain queries can coexist on separate pool connections.
func setupTestRepo(t *testing.T) adminauth.RepositoryManager {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec(sqliteCreateAdmins)
	require.NoError(t, err)
	_, err = bunDB.Exec(sqliteCreateSessions)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = bunDB.Close()
		_ = db.Close()
	})

	repo := adminauth.NewRepositoryManager(bunDB)
	repo.MustValidate()
	return repo
}

func testConfig() adminauth.Config {
	return adminauth.Config{
		AccessSecret:    []byte("access-secret-0123456789-0123456789"),
		RefreshSecret:   []byte("refresh-secret-0123456789-012345678"),
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 30 * 24 * time.Hour,
		Issuer:          "adminauth-test",
	}
}

const testPassword = "Secret7!pass"

// seedAdmin inserts a fully onboarded superadmin unless mutate overrides the
// defaults. The returned record carries the cleartext-compatible hash of
// testPassword and an enrolled 2FA secret.
func seedAdmin(t *testing.T, repo adminauth.RepositoryManager, mutate func(*adminauth.Admin)) *adminauth.Admin {
	t.Helper()

	hash, err := adminauth.HashPassword(testPassword)
	require.NoError(t, err)

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "adminauth-test",
		AccountName: "fixture@example.com",
	})
	require.NoError(t, err)
	secret := key.Secret()

	admin := &adminauth.Admin{
		ID:               uuid.New(),
		Email:            fmt.Sprintf("admin-%s@example.com", uuid.New().String()[:8]),
		PasswordHash:     hash,
		FirstName:        "Avery",
		LastName:         "Quinn",
		Role:             adminauth.RoleSuperadmin,
		Status:           adminauth.StatusActive,
		TwoFactorSecret:  &secret,
		TwoFactorEnabled: true,
	}

	if mutate != nil {
		mutate(admin)
	}

	created, err := repo.Admins().Create(context.Background(), admin)
	require.NoError(t, err)
	return created
}

// totpCode computes the current one-time code for the given secret.
func totpCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	return code
}

// wrongTOTPCode is structurally invalid (seven digits) so it can never match
// any window.
const wrongTOTPCode = "0000000"

func actorFor(admin *adminauth.Admin) *adminauth.AuthContext {
	return &adminauth.AuthContext{
		Admin:     admin,
		SessionID: uuid.New(),
	}
}
