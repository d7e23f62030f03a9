package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"kotiva.org/internal/auth"
)

func (s *Store) CreateSession(ctx context.Context, sess *auth.Session) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	_, err := s.db.ExecContext(ctx, `
		insert into sessions (id, user_id, role, created_at, expires_at, last_seen_at)
		values ($1, $2, $3, $4, $5, $6)
	`, sess.ID, sess.UserID, string(sess.Role), sess.CreatedAt, sess.ExpiresAt, sess.LastSeenAt)
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

func (s *Store) GetSession(ctx context.Context, id string) (*auth.Session, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	var sess auth.Session
	err := s.db.QueryRowContext(ctx, `
		select id, user_id, role, created_at, expires_at, last_seen_at
		from sessions
		where id = $1
	`, id).Scan(&sess.ID, &sess.UserID, &sess.Role, &sess.CreatedAt, &sess.ExpiresAt, &sess.LastSeenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Store) TouchSession(ctx context.Context, id string, expiresAt, lastSeenAt time.Time) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	_, err := s.db.ExecContext(ctx, `
		update sessions set expires_at = $2, last_seen_at = $3 where id = $1
	`, id, expiresAt, lastSeenAt)
	return err
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	_, err := s.db.ExecContext(ctx, `delete from sessions where id = $1`, id)
	return err
}

func (s *Store) DeleteUserSessions(ctx context.Context, userID string) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	_, err := s.db.ExecContext(ctx, `delete from sessions where user_id = $1`, userID)
	return err
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	if s.db == nil {
		return 0, errors.New("database connection unavailable")
	}
	res, err := s.db.ExecContext(ctx, `delete from sessions where expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) CreatePasswordResetToken(ctx context.Context, tok *auth.PasswordResetToken) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	_, err := s.db.ExecContext(ctx, `
		insert into password_reset_tokens (id, user_id, token_hash, expires_at, is_used, created_ip, created_user_agent, created_at)
		values ($1, $2, $3, $4, false, nullif($5,''), nullif($6,''), $7)
	`, tok.ID, tok.UserID, tok.TokenHash, tok.ExpiresAt, tok.CreatedIP, tok.CreatedUserAgent, tok.CreatedAt)
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

func (s *Store) GetPasswordResetTokenByHash(ctx context.Context, tokenHash string) (*auth.PasswordResetToken, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	var (
		tok auth.PasswordResetToken
		ip  sql.NullString
		ua  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		select id, user_id, token_hash, expires_at, is_used, created_ip, created_user_agent, created_at
		from password_reset_tokens
		where token_hash = $1
	`, tokenHash).Scan(&tok.ID, &tok.UserID, &tok.TokenHash, &tok.ExpiresAt, &tok.IsUsed, &ip, &ua, &tok.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	tok.CreatedIP = ip.String
	tok.CreatedUserAgent = ua.String
	return &tok, nil
}

// MarkPasswordResetTokenUsed flips is_used under a conditional update so
// concurrent resets with the same token see exactly one winner.
func (s *Store) MarkPasswordResetTokenUsed(ctx context.Context, id string) (bool, error) {
	if s.db == nil {
		return false, errors.New("database connection unavailable")
	}
	res, err := s.db.ExecContext(ctx, `
		update password_reset_tokens
		set is_used = true, used_at = now()
		where id = $1 and is_used = false
	`, id)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return aff > 0, nil
}

func (s *Store) CleanupExpiredPasswordResetTokens(ctx context.Context, now time.Time) (int64, error) {
	if s.db == nil {
		return 0, errors.New("database connection unavailable")
	}
	res, err := s.db.ExecContext(ctx, `
		delete from password_reset_tokens
		where expires_at < $1 or is_used
	`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
