package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"kotiva.org/internal/auth"
	"kotiva.org/internal/ids"
)

const userColumns = `id, email, password_hash, first_name, last_name, role, is_active, last_login_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*auth.User, error) {
	var (
		u         auth.User
		first     sql.NullString
		last      sql.NullString
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &first, &last, &u.Role, &u.IsActive, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.FirstName = first.String
	u.LastName = last.String
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*auth.User, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	row := s.db.QueryRowContext(ctx, `
		select `+userColumns+`
		from users
		where id = $1
	`, id)
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	row := s.db.QueryRowContext(ctx, `
		select `+userColumns+`
		from users
		where lower(email) = lower($1)
	`, email)
	return scanUser(row)
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch auth.UserPatch) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	var (
		sets []string
		args []any
		idx  = 1
	)
	if patch.PasswordHash != nil {
		sets = append(sets, fmt.Sprintf("password_hash = $%d", idx))
		args = append(args, *patch.PasswordHash)
		idx++
	}
	if patch.IsActive != nil {
		sets = append(sets, fmt.Sprintf("is_active = $%d", idx))
		args = append(args, *patch.IsActive)
		idx++
	}
	if patch.Role != nil {
		sets = append(sets, fmt.Sprintf("role = $%d", idx))
		args = append(args, string(*patch.Role))
		idx++
	}
	if patch.LastLoginAt != nil {
		sets = append(sets, fmt.Sprintf("last_login_at = $%d", idx))
		args = append(args, *patch.LastLoginAt)
		idx++
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = now()")
	query := fmt.Sprintf(`update users set %s where id = $%d`, strings.Join(sets, ", "), idx)
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *Store) GetMemberships(ctx context.Context, userID string) ([]auth.Membership, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select user_id, organization_id, is_active, can_access_all_organizations, created_at
		from user_organizations
		where user_id = $1 and is_active
		order by organization_id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []auth.Membership
	for rows.Next() {
		var m auth.Membership
		if err := rows.Scan(&m.UserID, &m.OrganizationID, &m.IsActive, &m.CanAccessAllOrganizations, &m.CreatedAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return memberships, nil
}

func (s *Store) FirstDemoOrganization(ctx context.Context) (*auth.Organization, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	var org auth.Organization
	err := s.db.QueryRowContext(ctx, `
		select id, name, type, created_at, updated_at
		from organizations
		where type = $1
		order by created_at
		limit 1
	`, auth.OrgTypeDemo).Scan(&org.ID, &org.Name, &org.Type, &org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (s *Store) GetBuilding(ctx context.Context, id string) (*auth.Building, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	var b auth.Building
	err := s.db.QueryRowContext(ctx, `
		select id, organization_id, name, created_at
		from buildings
		where id = $1
	`, id).Scan(&b.ID, &b.OrganizationID, &b.Name, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) GetResidence(ctx context.Context, id string) (*auth.Residence, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	var (
		r    auth.Residence
		unit sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		select id, building_id, unit_number, created_at
		from residences
		where id = $1
	`, id).Scan(&r.ID, &r.BuildingID, &unit, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.UnitNumber = unit.String
	return &r, nil
}

func (s *Store) GetUserResidences(ctx context.Context, userID string) ([]auth.Residence, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select r.id, r.building_id, r.unit_number, r.created_at
		from user_residences ur
		join residences r on r.id = ur.residence_id
		where ur.user_id = $1
		order by r.id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var residences []auth.Residence
	for rows.Next() {
		var (
			r    auth.Residence
			unit sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.BuildingID, &unit, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.UnitNumber = unit.String
		residences = append(residences, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return residences, nil
}

func (s *Store) HasRolePermission(ctx context.Context, role auth.Role, permission string) (bool, error) {
	if s.db == nil {
		return false, errors.New("database connection unavailable")
	}
	var count int
	err := s.db.QueryRowContext(ctx, `
		select count(*)
		from role_permissions rp
		join permissions p on p.id = rp.permission_id
		where rp.role = $1 and p.name = $2
	`, string(role), permission).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) ListPermissions(ctx context.Context) ([]auth.Permission, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, name
		from permissions
		order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []auth.Permission
	for rows.Next() {
		var p auth.Permission
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

func (s *Store) EnsurePermissions(ctx context.Context, perms []auth.Permission) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range perms {
		id := p.ID
		if id == "" {
			id = ids.New()
		}
		if _, err := tx.ExecContext(ctx, `
			insert into permissions (id, name)
			values ($1, $2)
			on conflict (name) do nothing
		`, id, p.Name); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) GetDocument(ctx context.Context, id string) (*auth.Document, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	var (
		d    auth.Document
		res  sql.NullString
		bld  sql.NullString
		org  sql.NullString
		name sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		select id, name, residence_id, building_id, organization_id, uploaded_by, is_visible_to_tenants, created_at
		from documents
		where id = $1
	`, id).Scan(&d.ID, &name, &res, &bld, &org, &d.UploadedBy, &d.IsVisibleToTenants, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d.Name = name.String
	d.ResidenceID = res.String
	d.BuildingID = bld.String
	d.OrganizationID = org.String
	return &d, nil
}

func (s *Store) CreateDocument(ctx context.Context, doc *auth.Document) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	_, err := s.db.ExecContext(ctx, `
		insert into documents (id, name, residence_id, building_id, organization_id, uploaded_by, is_visible_to_tenants)
		values ($1, $2, nullif($3,''), nullif($4,''), nullif($5,''), $6, $7)
	`, doc.ID, doc.Name, doc.ResidenceID, doc.BuildingID, doc.OrganizationID, doc.UploadedBy, doc.IsVisibleToTenants)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return auth.ErrConflict
			case pgErrForeignKeyViolation:
				return auth.ErrNotFound
			}
		}
		return err
	}
	return nil
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	res, err := s.db.ExecContext(ctx, `delete from documents where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}
