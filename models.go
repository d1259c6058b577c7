package adminauth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AdminStatus is the lifecycle state of an administrative account.
type AdminStatus = string

const (
	// StatusInvited means a superadmin created the record and a confirmation
	// token is pending.
	StatusInvited AdminStatus = "invited"
	// StatusPendingEmailConfirm means the confirmation token was consumed and
	// credentials have not been set yet.
	StatusPendingEmailConfirm AdminStatus = "pending_email_confirm"
	// StatusPending2FAEnroll means credentials are set and a second-factor
	// secret was generated but never verified.
	StatusPending2FAEnroll AdminStatus = "pending_2fa_enroll"
	// StatusActive means the admin completed onboarding and may authenticate.
	StatusActive AdminStatus = "active"
)

// Admin is an administrative identity. An active admin always carries a
// non-nil TwoFactorSecret; the banned flag is orthogonal to Status.
type Admin struct {
	bun.BaseModel `bun:"table:admins,alias:adm"`

	ID                uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email             string      `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash      string      `bun:"password_hash" json:"-"`
	FirstName         string      `bun:"first_name" json:"first_name,omitempty"`
	LastName          string      `bun:"last_name" json:"last_name,omitempty"`
	Phone             string      `bun:"phone_number" json:"phone_number,omitempty"`
	Role              AdminRole   `bun:"role,notnull" json:"role,omitempty"`
	Status            AdminStatus `bun:"status,notnull" json:"status,omitempty"`
	Banned            bool        `bun:"banned,notnull,default:false" json:"banned,omitempty"`
	ConfirmationToken *string     `bun:"confirmation_token,nullzero" json:"-"`
	TwoFactorSecret   *string     `bun:"two_factor_secret,nullzero" json:"-"`
	TwoFactorEnabled  bool        `bun:"two_factor_enabled,notnull,default:false" json:"two_factor_enabled,omitempty"`
	CreatedAt         *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// EnsureStatus backfills the zero value for records created before the
// status column existed.
func (a *Admin) EnsureStatus() {
	if a.Status == "" {
		a.Status = StatusInvited
	}
}

// FullName joins first and last name for display purposes.
func (a *Admin) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	default:
		return a.FirstName + " " + a.LastName
	}
}

// Session is the persisted record of one issued token pair. Correlation ids
// mirror the claims embedded in the signed tokens; expiries are stored as
// epoch seconds and re-checked on every authorization, so expired rows are
// inert even before the reaper removes them.
type Session struct {
	bun.BaseModel `bun:"table:admin_sessions,alias:sess"`

	ID               uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AdminID          uuid.UUID  `bun:"admin_id,notnull,type:uuid" json:"admin_id,omitempty"`
	Admin            *Admin     `bun:"rel:belongs-to,join:admin_id=id" json:"admin,omitempty"`
	AccessTokenID    uuid.UUID  `bun:"access_token_id,notnull,unique,type:uuid" json:"access_token_id,omitempty"`
	RefreshTokenID   uuid.UUID  `bun:"refresh_token_id,notnull,unique,type:uuid" json:"refresh_token_id,omitempty"`
	AccessExpiresAt  int64      `bun:"access_expires_at,notnull" json:"access_expires_at,omitempty"`
	RefreshExpiresAt int64      `bun:"refresh_expires_at,notnull" json:"refresh_expires_at,omitempty"`
	IssuedAt         int64      `bun:"issued_at,notnull" json:"issued_at,omitempty"`
	LastUsedAt       *time.Time `bun:"last_used_at,nullzero" json:"last_used_at,omitempty"`
	LastUsedIP       string     `bun:"last_used_ip" json:"last_used_ip,omitempty"`
	CreatedAt        *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
