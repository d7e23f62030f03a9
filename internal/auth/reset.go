package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
	"unicode"

	"kotiva.org/internal/ids"
)

const (
	defaultResetTokenTTL = time.Hour
	resetTokenBytes      = 32 // 256 bits of entropy
)

// Mailer delivers the reset link out-of-band. A false return is a hard
// failure: a link that was never sent must not look like success.
type Mailer interface {
	SendPasswordResetEmail(ctx context.Context, to, displayName, resetURL string) bool
}

// ResetManager drives the single-use password reset token lifecycle. Only
// the SHA-256 of a token is persisted; the token's own entropy makes a
// fast hash sufficient, unlike the adaptive hash guarding passwords.
type ResetManager struct {
	store   Store
	mailer  Mailer
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

// ResetOption configures the manager.
type ResetOption func(*ResetManager)

// WithResetTokenTTL overrides the default one-hour token lifetime.
func WithResetTokenTTL(d time.Duration) ResetOption {
	return func(m *ResetManager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithResetClock overrides the time source (useful for tests).
func WithResetClock(fn func() time.Time) ResetOption {
	return func(m *ResetManager) {
		if fn != nil {
			m.now = fn
		}
	}
}

// NewResetManager constructs a manager. baseURL is the public origin the
// reset link points at, e.g. "https://app.kotiva.org".
func NewResetManager(store Store, mailer Mailer, baseURL string, opts ...ResetOption) *ResetManager {
	m := &ResetManager{
		store:   store,
		mailer:  mailer,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     defaultResetTokenTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RequestMeta captures request metadata persisted with the token row.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Request issues a reset token for the address, if it belongs to an active
// user. The caller must answer with the same generic success either way:
// this method deliberately reports nil for unknown or inactive addresses so
// the flow cannot be used to enumerate accounts.
func (m *ResetManager) Request(ctx context.Context, email string, meta RequestMeta) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return ErrMissingFields
	}
	user, err := m.store.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil || !user.IsActive {
		return nil
	}

	raw := make([]byte, resetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	now := m.now().UTC()
	rec := &PasswordResetToken{
		ID:               ids.New(),
		UserID:           user.ID,
		TokenHash:        hashResetToken(token),
		ExpiresAt:        now.Add(m.ttl),
		CreatedIP:        meta.IP,
		CreatedUserAgent: meta.UserAgent,
		CreatedAt:        now,
	}
	if err := m.store.CreatePasswordResetToken(ctx, rec); err != nil {
		return err
	}

	resetURL := m.baseURL + "/reset-password?token=" + url.QueryEscape(token)
	if !m.mailer.SendPasswordResetEmail(ctx, user.Email, user.DisplayName(), resetURL) {
		return ErrEmailSendFailed
	}
	return nil
}

// Reset consumes a token and sets the new password. Every rejection is
// terminal: there is no retry path with the same token once any check
// fails after the single-use transition.
func (m *ResetManager) Reset(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		return ErrMissingFields
	}
	if err := ValidatePasswordComplexity(newPassword); err != nil {
		return err
	}

	tokenHash := hashResetToken(token)
	rec, err := m.store.GetPasswordResetTokenByHash(ctx, tokenHash)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrInvalidToken
	}
	if m.now().After(rec.ExpiresAt) {
		return ErrTokenExpired
	}
	if rec.IsUsed {
		return ErrTokenUsed
	}
	// The row was fetched by this hash, so a mismatch means the stored
	// value is corrupt rather than the token merely unknown.
	if subtle.ConstantTimeCompare([]byte(rec.TokenHash), []byte(tokenHash)) != 1 {
		return ErrTokenHashMismatch
	}

	user, err := m.store.GetUser(ctx, rec.UserID)
	if err != nil {
		return err
	}
	if user == nil || !user.IsActive {
		return ErrUserNotFound
	}

	// Claim the token before writing the password so two concurrent resets
	// against the same token produce exactly one success.
	won, err := m.store.MarkPasswordResetTokenUsed(ctx, rec.ID)
	if err != nil {
		return err
	}
	if !won {
		return ErrTokenUsed
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := m.store.UpdateUser(ctx, user.ID, UserPatch{PasswordHash: &hash}); err != nil {
		return err
	}

	// Opportunistic hygiene; neither failure affects the reset outcome.
	_, _ = m.store.CleanupExpiredPasswordResetTokens(ctx, m.now().UTC())
	_ = m.store.DeleteUserSessions(ctx, user.ID)
	return nil
}

// PurgeExpired removes expired token rows; used by the background sweeper.
func (m *ResetManager) PurgeExpired(ctx context.Context) (int64, error) {
	return m.store.CleanupExpiredPasswordResetTokens(ctx, m.now().UTC())
}

// ValidatePasswordComplexity enforces the minimum password rules: at least
// 8 characters with an upper-case letter, a lower-case letter and a digit.
func ValidatePasswordComplexity(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return ErrPasswordTooWeak
	}
	return nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
