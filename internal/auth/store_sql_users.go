// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sistema-fontes/fontes/internal/platform/database"
	"github.com/sistema-fontes/fontes/internal/platform/dberr"
	"github.com/sistema-fontes/fontes/internal/platform/sec"
)

// # User Repository

// userColumns is the projection scanned into [User].
const userColumns = `id, username, password_hash, full_name, email, role, is_active,
	created_at, last_login_at, failed_login_count, locked_until`

// SQLUserRepository implements [UserRepository] on PostgreSQL or SQLite.
//
// Queries use '?' placeholders and are rebound to the engine's style.
type SQLUserRepository struct {
	db *database.DB
}

// NewUserRepository creates a SQL implementation of the UserRepository.
func NewUserRepository(db *database.DB) *SQLUserRepository {
	return &SQLUserRepository{db: db}
}

/*
Create persists a new user record and assigns its generated ID.

Parameters:
  - context: context.Context
  - user: *User (CreatedAt must already be set)

Returns:
  - error: ErrDuplicateUsername or ErrStorageUnavailable
*/
func (repository *SQLUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users (username, password_hash, full_name, email, role, is_active, created_at, failed_login_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)
		RETURNING id`

	err := repository.db.QueryRowxContext(context, repository.db.Rebind(query),
		user.Username,
		user.PasswordHash,
		user.FullName,
		user.Email,
		string(user.Role),
		user.IsActive,
		user.CreatedAt.UTC(),
	).Scan(&user.ID)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return dberr.Wrap(err, "sql_user_create")
	}

	return nil
}

// FindByID returns the account with the given ID.
func (repository *SQLUserRepository) FindByID(context context.Context, id int64) (*User, error) {
	return repository.findOne(context, repository.db, "id = ?", id)
}

// FindByUsername returns the account whose username matches exactly.
func (repository *SQLUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	return repository.findOne(context, repository.db, "username = ?", username)
}

func (repository *SQLUserRepository) findOne(context context.Context, queryer sqlx.QueryerContext, where string, arg any) (*User, error) {
	query := repository.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + where)

	var user User
	if err := sqlx.GetContext(context, queryer, &user, query, arg); err != nil {
		if dberr.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, dberr.Wrap(err, "sql_user_find")
	}

	return &user, nil
}

// List returns all accounts ordered newest-created first.
func (repository *SQLUserRepository) List(context context.Context) ([]User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`

	users := []User{}
	if err := repository.db.SelectContext(context, &users, query); err != nil {
		return nil, dberr.Wrap(err, "sql_user_list")
	}

	return users, nil
}

/*
Update persists the mutable profile fields and the role.

Demoting the last active administrator is refused inside the same transaction
that performs the write.

Returns:
  - error: ErrUserNotFound, ErrDuplicateUsername, ErrLastAdmin or ErrStorageUnavailable
*/
func (repository *SQLUserRepository) Update(context context.Context, user *User) error {
	err := repository.db.InTx(context, func(tx *sqlx.Tx) error {
		current, err := repository.findOne(context, tx, "id = ?", user.ID)
		if err != nil {
			return err
		}

		if current.IsActiveAdmin() && user.Role != sec.RoleAdmin {
			if err := repository.ensureAnotherActiveAdmin(context, tx, user.ID); err != nil {
				return err
			}
		}

		const query = `UPDATE users SET username = ?, full_name = ?, email = ?, role = ? WHERE id = ?`
		_, err = tx.ExecContext(context, repository.db.Rebind(query),
			user.Username, user.FullName, user.Email, string(user.Role), user.ID)
		if dberr.IsUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return err
	})

	return dberr.Wrap(err, "sql_user_update")
}

// UpdatePassword replaces the hash and clears the failure counter and lock.
func (repository *SQLUserRepository) UpdatePassword(context context.Context, id int64, hash string) error {
	const query = `UPDATE users SET password_hash = ?, failed_login_count = 0, locked_until = NULL WHERE id = ?`
	return repository.execOne(context, "sql_user_update_password", query, hash, id)
}

// RehashPassword replaces the hash without touching any counter.
func (repository *SQLUserRepository) RehashPassword(context context.Context, id int64, hash string) error {
	const query = `UPDATE users SET password_hash = ? WHERE id = ?`
	return repository.execOne(context, "sql_user_rehash", query, hash, id)
}

/*
SetActive toggles the active flag.

Deactivating the last active administrator fails with ErrLastAdmin. Session
revocation is the caller's responsibility.
*/
func (repository *SQLUserRepository) SetActive(context context.Context, id int64, active bool) error {
	if active {
		return repository.execOne(context, "sql_user_activate", `UPDATE users SET is_active = ? WHERE id = ?`, true, id)
	}

	err := repository.db.InTx(context, func(tx *sqlx.Tx) error {
		current, err := repository.findOne(context, tx, "id = ?", id)
		if err != nil {
			return err
		}

		if current.IsActiveAdmin() {
			if err := repository.ensureAnotherActiveAdmin(context, tx, id); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(context, repository.db.Rebind(`UPDATE users SET is_active = ? WHERE id = ?`), false, id)
		return err
	})

	return dberr.Wrap(err, "sql_user_deactivate")
}

/*
Delete removes the account and its sessions in one transaction.

Audit entries referencing the user are not touched.

Returns:
  - error: ErrUserNotFound, ErrLastAdmin or ErrStorageUnavailable
*/
func (repository *SQLUserRepository) Delete(context context.Context, id int64) error {
	err := repository.db.InTx(context, func(tx *sqlx.Tx) error {
		current, err := repository.findOne(context, tx, "id = ?", id)
		if err != nil {
			return err
		}

		if current.IsActiveAdmin() {
			if err := repository.ensureAnotherActiveAdmin(context, tx, id); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(context, repository.db.Rebind(`DELETE FROM sessions WHERE user_id = ?`), id); err != nil {
			return err
		}

		_, err = tx.ExecContext(context, repository.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
		return err
	})

	return dberr.Wrap(err, "sql_user_delete")
}

// RecordLoginSuccess resets the counter and lock and stamps last_login_at.
func (repository *SQLUserRepository) RecordLoginSuccess(context context.Context, id int64, at time.Time) error {
	const query = `UPDATE users SET failed_login_count = 0, locked_until = NULL, last_login_at = ? WHERE id = ?`
	return repository.execOne(context, "sql_user_login_success", query, at.UTC(), id)
}

// RecordLoginFailure increments the counter in a single statement so
// concurrent failures are never lost.
func (repository *SQLUserRepository) RecordLoginFailure(context context.Context, id int64) (int, error) {
	const query = `UPDATE users SET failed_login_count = failed_login_count + 1 WHERE id = ? RETURNING failed_login_count`

	var count int
	if err := repository.db.QueryRowxContext(context, repository.db.Rebind(query), id).Scan(&count); err != nil {
		if dberr.IsNoRows(err) {
			return 0, ErrUserNotFound
		}
		return 0, dberr.Wrap(err, "sql_user_login_failure")
	}

	return count, nil
}

// CountActiveAdmins reports how many accounts are both active and admin.
func (repository *SQLUserRepository) CountActiveAdmins(context context.Context) (int, error) {
	return repository.countActiveAdmins(context, repository.db, 0)
}

// ensureAnotherActiveAdmin fails with ErrLastAdmin unless some active admin
// other than excludeID exists.
func (repository *SQLUserRepository) ensureAnotherActiveAdmin(context context.Context, queryer sqlx.QueryerContext, excludeID int64) error {
	count, err := repository.countActiveAdmins(context, queryer, excludeID)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrLastAdmin
	}
	return nil
}

func (repository *SQLUserRepository) countActiveAdmins(context context.Context, queryer sqlx.QueryerContext, excludeID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE role = ? AND is_active = ? AND id <> ?`

	var count int
	err := sqlx.GetContext(context, queryer, &count, repository.db.Rebind(query), string(sec.RoleAdmin), true, excludeID)
	if err != nil {
		return 0, dberr.Wrap(err, "sql_user_count_admins")
	}
	return count, nil
}

// execOne runs a single-row UPDATE and maps "no row changed" to ErrUserNotFound.
func (repository *SQLUserRepository) execOne(context context.Context, action, query string, args ...any) error {
	result, err := repository.db.ExecContext(context, repository.db.Rebind(query), args...)
	if err != nil {
		return dberr.Wrap(err, action)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return dberr.Wrap(err, action)
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// # Lockout Repository (relational)

// SQLLockoutRepository keeps login bans in the users.locked_until column.
// It is used when no Redis instance is configured.
type SQLLockoutRepository struct {
	db *database.DB
}

// NewSQLLockoutRepository creates the relational lockout store.
func NewSQLLockoutRepository(db *database.DB) *SQLLockoutRepository {
	return &SQLLockoutRepository{db: db}
}

// LockedUntil returns the stored ban end, or the zero time.
func (repository *SQLLockoutRepository) LockedUntil(context context.Context, userID int64) (time.Time, error) {
	var until *time.Time
	err := repository.db.GetContext(context, &until, repository.db.Rebind(`SELECT locked_until FROM users WHERE id = ?`), userID)
	if err != nil {
		if dberr.IsNoRows(err) {
			return time.Time{}, nil
		}
		return time.Time{}, dberr.Wrap(err, "sql_lockout_get")
	}
	if until == nil {
		return time.Time{}, nil
	}
	return *until, nil
}

// Lock stores the ban end.
func (repository *SQLLockoutRepository) Lock(context context.Context, userID int64, until time.Time) error {
	_, err := repository.db.ExecContext(context, repository.db.Rebind(`UPDATE users SET locked_until = ? WHERE id = ?`), until.UTC(), userID)
	return dberr.Wrap(err, "sql_lockout_set")
}

// Clear removes the ban.
func (repository *SQLLockoutRepository) Clear(context context.Context, userID int64) error {
	_, err := repository.db.ExecContext(context, repository.db.Rebind(`UPDATE users SET locked_until = NULL WHERE id = ?`), userID)
	return dberr.Wrap(err, "sql_lockout_clear")
}
