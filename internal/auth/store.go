package auth

import (
	"context"
	"time"
)

// Store describes the persistence operations the authorization engine needs.
// Lookup methods return (nil, nil) when the row does not exist: "not found"
// is a routine deny-path input here, not an error. A non-nil error always
// means infrastructure failure and is handled fail-closed by every caller.
type Store interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) error

	// GetMemberships returns the user's active organization rows only.
	GetMemberships(ctx context.Context, userID string) ([]Membership, error)
	FirstDemoOrganization(ctx context.Context) (*Organization, error)

	GetBuilding(ctx context.Context, id string) (*Building, error)
	GetResidence(ctx context.Context, id string) (*Residence, error)
	GetUserResidences(ctx context.Context, userID string) ([]Residence, error)

	// HasRolePermission joins role_permissions to permissions; a missing
	// row means deny, never error.
	HasRolePermission(ctx context.Context, role Role, permission string) (bool, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	EnsurePermissions(ctx context.Context, perms []Permission) error

	GetDocument(ctx context.Context, id string) (*Document, error)
	CreateDocument(ctx context.Context, doc *Document) error
	DeleteDocument(ctx context.Context, id string) error

	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	TouchSession(ctx context.Context, id string, expiresAt, lastSeenAt time.Time) error
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	CreatePasswordResetToken(ctx context.Context, tok *PasswordResetToken) error
	GetPasswordResetTokenByHash(ctx context.Context, tokenHash string) (*PasswordResetToken, error)
	// MarkPasswordResetTokenUsed flips is_used only when it is still false
	// and reports whether this call won the transition. Two concurrent
	// resets against one token must see exactly one true.
	MarkPasswordResetTokenUsed(ctx context.Context, id string) (bool, error)
	CleanupExpiredPasswordResetTokens(ctx context.Context, now time.Time) (int64, error)
}
