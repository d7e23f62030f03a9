package auth

import (
	"context"
	"time"
)

// stubStore implements Store with overridable function fields. Unset fields
// behave like an empty database.
type stubStore struct {
	getUser               func(ctx context.Context, id string) (*User, error)
	getUserByEmail        func(ctx context.Context, email string) (*User, error)
	updateUser            func(ctx context.Context, id string, patch UserPatch) error
	getMemberships        func(ctx context.Context, userID string) ([]Membership, error)
	firstDemoOrganization func(ctx context.Context) (*Organization, error)
	getBuilding           func(ctx context.Context, id string) (*Building, error)
	getResidence          func(ctx context.Context, id string) (*Residence, error)
	getUserResidences     func(ctx context.Context, userID string) ([]Residence, error)
	hasRolePermission     func(ctx context.Context, role Role, permission string) (bool, error)
	listPermissions       func(ctx context.Context) ([]Permission, error)
	ensurePermissions     func(ctx context.Context, perms []Permission) error
	getDocument           func(ctx context.Context, id string) (*Document, error)
	createDocument        func(ctx context.Context, doc *Document) error
	deleteDocument        func(ctx context.Context, id string) error
	createSession         func(ctx context.Context, s *Session) error
	getSession            func(ctx context.Context, id string) (*Session, error)
	touchSession          func(ctx context.Context, id string, expiresAt, lastSeenAt time.Time) error
	deleteSession         func(ctx context.Context, id string) error
	deleteUserSessions    func(ctx context.Context, userID string) error
	deleteExpired         func(ctx context.Context, now time.Time) (int64, error)
	createResetToken      func(ctx context.Context, tok *PasswordResetToken) error
	getResetTokenByHash   func(ctx context.Context, tokenHash string) (*PasswordResetToken, error)
	markResetTokenUsed    func(ctx context.Context, id string) (bool, error)
	cleanupResetTokens    func(ctx context.Context, now time.Time) (int64, error)
}

var _ Store = (*stubStore)(nil)

func (s *stubStore) GetUser(ctx context.Context, id string) (*User, error) {
	if s.getUser != nil {
		return s.getUser(ctx, id)
	}
	return nil, nil
}

func (s *stubStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	if s.getUserByEmail != nil {
		return s.getUserByEmail(ctx, email)
	}
	return nil, nil
}

func (s *stubStore) UpdateUser(ctx context.Context, id string, patch UserPatch) error {
	if s.updateUser != nil {
		return s.updateUser(ctx, id, patch)
	}
	return nil
}

func (s *stubStore) GetMemberships(ctx context.Context, userID string) ([]Membership, error) {
	if s.getMemberships != nil {
		return s.getMemberships(ctx, userID)
	}
	return nil, nil
}

func (s *stubStore) FirstDemoOrganization(ctx context.Context) (*Organization, error) {
	if s.firstDemoOrganization != nil {
		return s.firstDemoOrganization(ctx)
	}
	return nil, nil
}

func (s *stubStore) GetBuilding(ctx context.Context, id string) (*Building, error) {
	if s.getBuilding != nil {
		return s.getBuilding(ctx, id)
	}
	return nil, nil
}

func (s *stubStore) GetResidence(ctx context.Context, id string) (*Residence, error) {
	if s.getResidence != nil {
		return s.getResidence(ctx, id)
	}
	return nil, nil
}

func (s *stubStore) GetUserResidences(ctx context.Context, userID string) ([]Residence, error) {
	if s.getUserResidences != nil {
		return s.getUserResidences(ctx, userID)
	}
	return nil, nil
}

func (s *stubStore) HasRolePermission(ctx context.Context, role Role, permission string) (bool, error) {
	if s.hasRolePermission != nil {
		return s.hasRolePermission(ctx, role, permission)
	}
	return false, nil
}

func (s *stubStore) ListPermissions(ctx context.Context) ([]Permission, error) {
	if s.listPermissions != nil {
		return s.listPermissions(ctx)
	}
	return nil, nil
}

func (s *stubStore) EnsurePermissions(ctx context.Context, perms []Permission) error {
	if s.ensurePermissions != nil {
		return s.ensurePermissions(ctx, perms)
	}
	return nil
}

func (s *stubStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	if s.getDocument != nil {
		return s.getDocument(ctx, id)
	}
	return nil, nil
}

func (s *stubStore) CreateDocument(ctx context.Context, doc *Document) error {
	if s.createDocument != nil {
		return s.createDocument(ctx, doc)
	}
	return nil
}

func (s *stubStore) DeleteDocument(ctx context.Context, id string) error {
	if s.deleteDocument != nil {
		return s.deleteDocument(ctx, id)
	}
	return nil
}

func (s *stubStore) CreateSession(ctx context.Context, sess *Session) error {
	if s.createSession != nil {
		return s.createSession(ctx, sess)
	}
	return nil
}

func (s *stubStore) GetSession(ctx context.Context, id string) (*Session, error) {
	if s.getSession != nil {
		return s.getSession(ctx, id)
	}
	return nil, nil
}

func (s *stubStore) TouchSession(ctx context.Context, id string, expiresAt, lastSeenAt time.Time) error {
	if s.touchSession != nil {
		return s.touchSession(ctx, id, expiresAt, lastSeenAt)
	}
	return nil
}

func (s *stubStore) DeleteSession(ctx context.Context, id string) error {
	if s.deleteSession != nil {
		return s.deleteSession(ctx, id)
	}
	return nil
}

func (s *stubStore) DeleteUserSessions(ctx context.Context, userID string) error {
	if s.deleteUserSessions != nil {
		return s.deleteUserSessions(ctx, userID)
	}
	return nil
}

func (s *stubStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	if s.deleteExpired != nil {
		return s.deleteExpired(ctx, now)
	}
	return 0, nil
}

func (s *stubStore) CreatePasswordResetToken(ctx context.Context, tok *PasswordResetToken) error {
	if s.createResetToken != nil {
		return s.createResetToken(ctx, tok)
	}
	return nil
}

func (s *stubStore) GetPasswordResetTokenByHash(ctx context.Context, tokenHash string) (*PasswordResetToken, error) {
	if s.getResetTokenByHash != nil {
		return s.getResetTokenByHash(ctx, tokenHash)
	}
	return nil, nil
}

func (s *stubStore) MarkPasswordResetTokenUsed(ctx context.Context, id string) (bool, error) {
	if s.markResetTokenUsed != nil {
		return s.markResetTokenUsed(ctx, id)
	}
	return false, nil
}

func (s *stubStore) CleanupExpiredPasswordResetTokens(ctx context.Context, now time.Time) (int64, error) {
	if s.cleanupResetTokens != nil {
		return s.cleanupResetTokens(ctx, now)
	}
	return 0, nil
}
