package auth

import "time"

// User is an account holder. Accounts are deactivated, never hard-deleted.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name,omitempty"`
	LastName     string     `json:"last_name,omitempty"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// DisplayName returns a human-friendly name for outbound email.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}

// Organization is the root of the tenancy tree. Type may be "demo".
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrgTypeDemo marks organizations used for demo provisioning.
const OrgTypeDemo = "demo"

// Building belongs to exactly one organization.
type Building struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
}

// Residence belongs to exactly one building.
type Residence struct {
	ID         string    `json:"id"`
	BuildingID string    `json:"building_id"`
	UnitNumber string    `json:"unit_number,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Membership is a user's row in an organization (the user_organizations
// join table). CanAccessAllOrganizations is a super-grant that overrides
// organization scoping for that membership.
type Membership struct {
	UserID                    string    `json:"user_id"`
	OrganizationID            string    `json:"organization_id"`
	IsActive                  bool      `json:"is_active"`
	CanAccessAllOrganizations bool      `json:"can_access_all_organizations"`
	CreatedAt                 time.Time `json:"created_at"`
}

// Permission is immutable reference data keyed by name, e.g. "read:bill".
type Permission struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Document is any entity-scoped record subject to the policy engine. At
// most one of ResidenceID/BuildingID/OrganizationID is authoritative for
// scope resolution; ResidenceID wins when more than one is set.
type Document struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	ResidenceID        string    `json:"residence_id,omitempty"`
	BuildingID         string    `json:"building_id,omitempty"`
	OrganizationID     string    `json:"organization_id,omitempty"`
	UploadedBy         string    `json:"uploaded_by"`
	IsVisibleToTenants bool      `json:"is_visible_to_tenants"`
	CreatedAt          time.Time `json:"created_at"`
}

// CreateScope is the target location for a document that does not exist
// yet; CanCreate authorizes against it instead of a document row.
type CreateScope struct {
	ResidenceID    string `json:"residence_id,omitempty"`
	BuildingID     string `json:"building_id,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
}

// PasswordResetToken stores the SHA-256 of a single-use reset token. The
// plaintext is transmitted once and never persisted.
type PasswordResetToken struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	TokenHash        string    `json:"-"`
	ExpiresAt        time.Time `json:"expires_at"`
	IsUsed           bool      `json:"is_used"`
	CreatedIP        string    `json:"created_ip,omitempty"`
	CreatedUserAgent string    `json:"created_user_agent,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Session is a durable server-side session row. The cookie only carries the
// opaque session id; the row is the source of truth so sessions can be
// destroyed the moment a user goes inactive.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// UserPatch updates a subset of user fields. Nil fields are left untouched.
type UserPatch struct {
	PasswordHash *string
	IsActive     *bool
	Role         *Role
	LastLoginAt  *time.Time
}
