package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kotiva.org/internal/auth"
)

// fakeStore implements auth.Store with overridable function fields; unset
// fields behave like an empty database.
type fakeStore struct {
	getUser               func(ctx context.Context, id string) (*auth.User, error)
	getUserByEmail        func(ctx context.Context, email string) (*auth.User, error)
	updateUser            func(ctx context.Context, id string, patch auth.UserPatch) error
	getMemberships        func(ctx context.Context, userID string) ([]auth.Membership, error)
	firstDemoOrganization func(ctx context.Context) (*auth.Organization, error)
	getBuilding           func(ctx context.Context, id string) (*auth.Building, error)
	getResidence          func(ctx context.Context, id string) (*auth.Residence, error)
	getUserResidences     func(ctx context.Context, userID string) ([]auth.Residence, error)
	hasRolePermission     func(ctx context.Context, role auth.Role, permission string) (bool, error)
	listPermissions       func(ctx context.Context) ([]auth.Permission, error)
	getDocument           func(ctx context.Context, id string) (*auth.Document, error)
	createDocument        func(ctx context.Context, doc *auth.Document) error
	deleteDocument        func(ctx context.Context, id string) error
	createSession         func(ctx context.Context, s *auth.Session) error
	getSession            func(ctx context.Context, id string) (*auth.Session, error)
	touchSession          func(ctx context.Context, id string, expiresAt, lastSeenAt time.Time) error
	deleteSession         func(ctx context.Context, id string) error
	deleteUserSessions    func(ctx context.Context, userID string) error
	createResetToken      func(ctx context.Context, tok *auth.PasswordResetToken) error
	getResetTokenByHash   func(ctx context.Context, tokenHash string) (*auth.PasswordResetToken, error)
	markResetTokenUsed    func(ctx context.Context, id string) (bool, error)
}

var _ auth.Store = (*fakeStore)(nil)

func (s *fakeStore) GetUser(ctx context.Context, id string) (*auth.User, error) {
	if s.getUser != nil {
		return s.getUser(ctx, id)
	}
	return nil, nil
}

func (s *fakeStore) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.getUserByEmail != nil {
		return s.getUserByEmail(ctx, email)
	}
	return nil, nil
}

func (s *fakeStore) UpdateUser(ctx context.Context, id string, patch auth.UserPatch) error {
	if s.updateUser != nil {
		return s.updateUser(ctx, id, patch)
	}
	return nil
}

func (s *fakeStore) GetMemberships(ctx context.Context, userID string) ([]auth.Membership, error) {
	if s.getMemberships != nil {
		return s.getMemberships(ctx, userID)
	}
	return nil, nil
}

func (s *fakeStore) FirstDemoOrganization(ctx context.Context) (*auth.Organization, error) {
	if s.firstDemoOrganization != nil {
		return s.firstDemoOrganization(ctx)
	}
	return nil, nil
}

func (s *fakeStore) GetBuilding(ctx context.Context, id string) (*auth.Building, error) {
	if s.getBuilding != nil {
		return s.getBuilding(ctx, id)
	}
	return nil, nil
}

func (s *fakeStore) GetResidence(ctx context.Context, id string) (*auth.Residence, error) {
	if s.getResidence != nil {
		return s.getResidence(ctx, id)
	}
	return nil, nil
}

func (s *fakeStore) GetUserResidences(ctx context.Context, userID string) ([]auth.Residence, error) {
	if s.getUserResidences != nil {
		return s.getUserResidences(ctx, userID)
	}
	return nil, nil
}

func (s *fakeStore) HasRolePermission(ctx context.Context, role auth.Role, permission string) (bool, error) {
	if s.hasRolePermission != nil {
		return s.hasRolePermission(ctx, role, permission)
	}
	return false, nil
}

func (s *fakeStore) ListPermissions(ctx context.Context) ([]auth.Permission, error) {
	if s.listPermissions != nil {
		return s.listPermissions(ctx)
	}
	return nil, nil
}

func (s *fakeStore) EnsurePermissions(ctx context.Context, perms []auth.Permission) error {
	return nil
}

func (s *fakeStore) GetDocument(ctx context.Context, id string) (*auth.Document, error) {
	if s.getDocument != nil {
		return s.getDocument(ctx, id)
	}
	return nil, nil
}

func (s *fakeStore) CreateDocument(ctx context.Context, doc *auth.Document) error {
	if s.createDocument != nil {
		return s.createDocument(ctx, doc)
	}
	return nil
}

func (s *fakeStore) DeleteDocument(ctx context.Context, id string) error {
	if s.deleteDocument != nil {
		return s.deleteDocument(ctx, id)
	}
	return nil
}

func (s *fakeStore) CreateSession(ctx context.Context, sess *auth.Session) error {
	if s.createSession != nil {
		return s.createSession(ctx, sess)
	}
	return nil
}

func (s *fakeStore) GetSession(ctx context.Context, id string) (*auth.Session, error) {
	if s.getSession != nil {
		return s.getSession(ctx, id)
	}
	return nil, nil
}

func (s *fakeStore) TouchSession(ctx context.Context, id string, expiresAt, lastSeenAt time.Time) error {
	if s.touchSession != nil {
		return s.touchSession(ctx, id, expiresAt, lastSeenAt)
	}
	return nil
}

func (s *fakeStore) DeleteSession(ctx context.Context, id string) error {
	if s.deleteSession != nil {
		return s.deleteSession(ctx, id)
	}
	return nil
}

func (s *fakeStore) DeleteUserSessions(ctx context.Context, userID string) error {
	if s.deleteUserSessions != nil {
		return s.deleteUserSessions(ctx, userID)
	}
	return nil
}

func (s *fakeStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (s *fakeStore) CreatePasswordResetToken(ctx context.Context, tok *auth.PasswordResetToken) error {
	if s.createResetToken != nil {
		return s.createResetToken(ctx, tok)
	}
	return nil
}

func (s *fakeStore) GetPasswordResetTokenByHash(ctx context.Context, tokenHash string) (*auth.PasswordResetToken, error) {
	if s.getResetTokenByHash != nil {
		return s.getResetTokenByHash(ctx, tokenHash)
	}
	return nil, nil
}

func (s *fakeStore) MarkPasswordResetTokenUsed(ctx context.Context, id string) (bool, error) {
	if s.markResetTokenUsed != nil {
		return s.markResetTokenUsed(ctx, id)
	}
	return false, nil
}

func (s *fakeStore) CleanupExpiredPasswordResetTokens(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

// fakeCache records invalidations.
type fakeCache struct {
	invalidated [][2]string
}

func (c *fakeCache) Invalidate(_ context.Context, namespace, key string) error {
	c.invalidated = append(c.invalidated, [2]string{namespace, key})
	return nil
}

type okMailer struct{}

func (okMailer) SendPasswordResetEmail(context.Context, string, string, string) bool { return true }

// testAPI wires an API around the fake store with in-memory sessions.
func testAPI(t *testing.T, store *fakeStore) (*API, *fakeCache) {
	t.Helper()
	sessions, err := auth.NewSessionManager(store, "test-secret", auth.WithSecureCookies(false))
	require.NoError(t, err)
	cache := &fakeCache{}
	api := New(Deps{
		Store:    store,
		Sessions: sessions,
		Resolver: auth.NewPermissionResolver(store),
		Policy:   auth.NewPolicyEngine(store),
		Reset:    auth.NewResetManager(store, okMailer{}, "https://app.kotiva.test"),
		Cache:    cache,
		Version:  "test",
	})
	return api, cache
}

// sessionStore backs the fake with a single live session and user.
func withSession(store *fakeStore, user *auth.User) *auth.Session {
	now := time.Now().UTC()
	sess := &auth.Session{
		ID:         "sess-1",
		UserID:     user.ID,
		Role:       user.Role,
		CreatedAt:  now,
		ExpiresAt:  now.Add(7 * 24 * time.Hour),
		LastSeenAt: now,
	}
	store.getSession = func(_ context.Context, id string) (*auth.Session, error) {
		if id == sess.ID {
			cp := *sess
			return &cp, nil
		}
		return nil, nil
	}
	store.getUser = func(_ context.Context, id string) (*auth.User, error) {
		if id == user.ID {
			cp := *user
			return &cp, nil
		}
		return nil, nil
	}
	return sess
}

// authedRequest builds a request carrying a valid session cookie.
func authedRequest(t *testing.T, api *API, sess *auth.Session, method, target string, body io.Reader) *http.Request {
	t.Helper()
	r := httptest.NewRequest(method, target, body)
	c, err := api.deps.Sessions.Cookie(sess)
	require.NoError(t, err)
	r.AddCookie(c)
	return r
}
