package adminauth

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/png"

	goerrors "github.com/goliatone/go-errors"
	"github.com/pquerna/otp/totp"
)

// ProvisioningArtifact is returned by enrollment. Only the QRCode data URI is
// exposed at the boundary; Secret and URL exist for tests and for clients
// that cannot scan images.
type ProvisioningArtifact struct {
	// Secret is the base32-encoded shared secret.
	Secret string `json:"-"`
	// URL is the otpauth:// provisioning URI embedding secret and issuer.
	URL string `json:"-"`
	// QRCode is a data:image/png;base64 URI encoding the provisioning URL.
	QRCode string `json:"qr_code"`
}

// TwoFactorManager generates and persists TOTP enrollment material for
// admins. Code verification is stateless and lives in VerifyTOTP.
type TwoFactorManager struct {
	issuer string
	admins Admins
	logger Logger
}

// TwoFactorOption customizes the manager.
type TwoFactorOption func(*TwoFactorManager)

// WithTwoFactorLogger overrides the manager logger.
func WithTwoFactorLogger(logger Logger) TwoFactorOption {
	return func(m *TwoFactorManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewTwoFactorManager returns a manager labeling enrollments with the
// configured issuer.
func NewTwoFactorManager(cfg Config, admins Admins, opts ...TwoFactorOption) *TwoFactorManager {
	cfg.EnsureDefaults()

	m := &TwoFactorManager{
		issuer: cfg.TwoFactorIssuer,
		admins: admins,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// Enroll generates a fresh shared secret for the admin, persists it together
// with the enabled flag, and returns the provisioning artifact. Re-enrolling
// overwrites the previous secret and invalidates already-configured
// authenticator apps, so callers must only enroll during the
// pending-email-confirm to pending-2fa-enroll transition.
func (m *TwoFactorManager) Enroll(ctx context.Context, admin *Admin) (*ProvisioningArtifact, error) {
	if admin == nil {
		return nil, goerrors.New("admin is required", goerrors.CategoryBadInput)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      m.issuer,
		AccountName: admin.Email,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate 2FA secret")
	}

	img, err := key.Image(256, 256)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render 2FA QR code")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode 2FA QR code")
	}

	secret := key.Secret()
	if err := m.admins.SetTwoFactor(ctx, admin.ID, secret); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist 2FA secret")
	}

	admin.TwoFactorSecret = &secret
	admin.TwoFactorEnabled = true

	return &ProvisioningArtifact{
		Secret: secret,
		URL:    key.URL(),
		QRCode: "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// VerifyTOTP checks a 6-digit, 30-second-step code against the shared secret
// for the current window, tolerating one window of clock drift on either
// side. It is stateless and side-effect free.
func VerifyTOTP(code, secret string) bool {
	if code == "" || secret == "" {
		return false
	}
	return totp.Validate(code, secret)
}
