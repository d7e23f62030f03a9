package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"kotiva.org/internal/ids"
)

const (
	defaultSessionLifetime = 7 * 24 * time.Hour
	defaultCookieName      = "kotiva_session"
	cookieIssuer           = "kotiva"
)

// SessionManager owns the durable session lifecycle. Sessions are rows in
// the backing store; the cookie is an HS256-signed wrapper around the
// opaque session id, so possession of the cookie proves nothing once the
// row is gone.
type SessionManager struct {
	store      Store
	secret     []byte
	cookieName string
	lifetime   time.Duration
	secure     bool
	now        func() time.Time
}

// SessionOption configures the manager.
type SessionOption func(*SessionManager)

// WithSessionLifetime overrides the default 7-day sliding lifetime.
func WithSessionLifetime(d time.Duration) SessionOption {
	return func(m *SessionManager) {
		if d > 0 {
			m.lifetime = d
		}
	}
}

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) SessionOption {
	return func(m *SessionManager) {
		if strings.TrimSpace(name) != "" {
			m.cookieName = name
		}
	}
}

// WithSecureCookies toggles the Secure cookie attribute (off for local dev).
func WithSecureCookies(secure bool) SessionOption {
	return func(m *SessionManager) { m.secure = secure }
}

// WithSessionClock overrides the time source (useful for tests).
func WithSessionClock(fn func() time.Time) SessionOption {
	return func(m *SessionManager) {
		if fn != nil {
			m.now = fn
		}
	}
}

// NewSessionManager constructs a manager. The signing secret is required.
func NewSessionManager(store Store, secret string, opts ...SessionOption) (*SessionManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session secret is required")
	}
	m := &SessionManager{
		store:      store,
		secret:     []byte(secret),
		cookieName: defaultCookieName,
		lifetime:   defaultSessionLifetime,
		secure:     true,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Lifetime returns the configured session lifetime.
func (m *SessionManager) Lifetime() time.Duration { return m.lifetime }

// Create persists a fresh session for the user. A new id is minted on every
// login so a pre-authentication cookie can never be promoted (session
// fixation prevention).
func (m *SessionManager) Create(ctx context.Context, user *User) (*Session, error) {
	if user == nil || user.ID == "" {
		return nil, ErrInvalidInput
	}
	now := m.now().UTC()
	s := &Session{
		ID:         ids.New(),
		UserID:     user.ID,
		Role:       user.Role,
		CreatedAt:  now,
		ExpiresAt:  now.Add(m.lifetime),
		LastSeenAt: now,
	}
	if err := m.store.CreateSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Cookie returns the signed, httpOnly cookie for the session.
func (m *SessionManager) Cookie(s *Session) (*http.Cookie, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    cookieIssuer,
		Subject:   s.ID,
		IssuedAt:  jwt.NewNumericDate(m.now().UTC()),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.ExpiresAt,
	}, nil
}

// ClearCookie returns an expired cookie that removes the session cookie.
func (m *SessionManager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
}

// FromRequest authenticates the request's cookie and loads the session row.
// A missing, tampered or expired cookie — and a cookie whose session row no
// longer exists — all yield ErrNoSession; any other error is storage
// failure.
func (m *SessionManager) FromRequest(r *http.Request) (*Session, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return nil, ErrNoSession
	}
	sid, err := m.verifyCookie(c.Value)
	if err != nil {
		return nil, ErrNoSession
	}
	s, err := m.store.GetSession(r.Context(), sid)
	if err != nil {
		return nil, err
	}
	if s == nil || m.now().After(s.ExpiresAt) {
		return nil, ErrNoSession
	}
	return s, nil
}

func (m *SessionManager) verifyCookie(value string) (string, error) {
	parsed, err := jwt.ParseWithClaims(value, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrNoSession
		}
		return m.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Issuer != cookieIssuer || claims.Subject == "" {
		return "", ErrNoSession
	}
	return claims.Subject, nil
}

// Touch extends the session only when more than a quarter of its lifetime
// has elapsed, trading write volume for slightly coarser freshness. The
// write is best-effort: a failed touch never fails the request.
func (m *SessionManager) Touch(ctx context.Context, s *Session) (*Session, bool) {
	now := m.now().UTC()
	issuedAt := s.ExpiresAt.Add(-m.lifetime)
	if now.Sub(issuedAt) <= m.lifetime/4 {
		return s, false
	}
	extended := *s
	extended.ExpiresAt = now.Add(m.lifetime)
	extended.LastSeenAt = now
	if err := m.store.TouchSession(ctx, s.ID, extended.ExpiresAt, extended.LastSeenAt); err != nil {
		return s, false
	}
	return &extended, true
}

// Destroy removes the session row. Destroying an already-absent session is
// not an error.
func (m *SessionManager) Destroy(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return m.store.DeleteSession(ctx, sessionID)
}

// DestroyUserSessions removes every session belonging to the user.
func (m *SessionManager) DestroyUserSessions(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return m.store.DeleteUserSessions(ctx, userID)
}

// PurgeExpired removes expired session rows.
func (m *SessionManager) PurgeExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpiredSessions(ctx, m.now().UTC())
}
