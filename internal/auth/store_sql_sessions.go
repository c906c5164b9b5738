// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"

	"github.com/sistema-fontes/fontes/internal/platform/database"
	"github.com/sistema-fontes/fontes/internal/platform/dberr"
)

// # Session Repository

const sessionColumns = `id, user_id, token_hash, created_at, expires_at, is_active, ip_address, user_agent`

// SQLSessionRepository implements [SessionRepository] on PostgreSQL or SQLite.
type SQLSessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a SQL implementation of the SessionRepository.
func NewSessionRepository(db *database.DB) *SQLSessionRepository {
	return &SQLSessionRepository{db: db}
}

/*
Create persists a new session row.

Parameters:
  - context: context.Context
  - session: *Session (TokenHash, UserID and both timestamps must be set)

Returns:
  - error: ErrUserNotFound when the owner no longer exists, or ErrStorageUnavailable
*/
func (repository *SQLSessionRepository) Create(context context.Context, session *Session) error {
	const query = `
		INSERT INTO sessions (user_id, token_hash, created_at, expires_at, is_active, ip_address, user_agent)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	err := repository.db.QueryRowxContext(context, repository.db.Rebind(query),
		session.UserID,
		session.TokenHash,
		session.CreatedAt.UTC(),
		session.ExpiresAt.UTC(),
		true,
		session.IPAddress,
		session.UserAgent,
	).Scan(&session.ID)

	if err != nil {
		if dberr.IsForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return dberr.Wrap(err, "sql_session_create")
	}

	session.IsActive = true
	return nil
}

// FindByTokenHash returns the session stored under tokenHash, active or not.
func (repository *SQLSessionRepository) FindByTokenHash(context context.Context, tokenHash string) (*Session, error) {
	query := repository.db.Rebind(`SELECT ` + sessionColumns + ` FROM sessions WHERE token_hash = ?`)

	var session Session
	if err := repository.db.GetContext(context, &session, query, tokenHash); err != nil {
		if dberr.IsNoRows(err) {
			return nil, ErrSessionInvalid
		}
		return nil, dberr.Wrap(err, "sql_session_find")
	}

	return &session, nil
}

// Deactivate marks the session inactive. Repeating it is harmless.
func (repository *SQLSessionRepository) Deactivate(context context.Context, id int64) error {
	const query = `UPDATE sessions SET is_active = ? WHERE id = ? AND is_active = ?`

	_, err := repository.db.ExecContext(context, repository.db.Rebind(query), false, id, true)
	return dberr.Wrap(err, "sql_session_deactivate")
}

// DeactivateByTokenHash marks the session inactive. Unknown hashes are ignored.
func (repository *SQLSessionRepository) DeactivateByTokenHash(context context.Context, tokenHash string) error {
	const query = `UPDATE sessions SET is_active = ? WHERE token_hash = ? AND is_active = ?`

	_, err := repository.db.ExecContext(context, repository.db.Rebind(query), false, tokenHash, true)
	return dberr.Wrap(err, "sql_session_deactivate_token")
}

// DeactivateAllForUser revokes every active session of userID.
func (repository *SQLSessionRepository) DeactivateAllForUser(context context.Context, userID int64) (int64, error) {
	const query = `UPDATE sessions SET is_active = ? WHERE user_id = ? AND is_active = ?`

	result, err := repository.db.ExecContext(context, repository.db.Rebind(query), false, userID, true)
	if err != nil {
		return 0, dberr.Wrap(err, "sql_session_deactivate_user")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, dberr.Wrap(err, "sql_session_deactivate_user")
	}

	return affected, nil
}
