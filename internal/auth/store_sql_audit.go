// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"

	"github.com/sistema-fontes/fontes/internal/platform/database"
	"github.com/sistema-fontes/fontes/internal/platform/dberr"
)

// # Audit Repository

const auditColumns = `id, user_id, username, action, occurred_at, success, details, ip_address`

// SQLAuditRepository implements [AuditRepository] on PostgreSQL or SQLite.
// Entries are only ever inserted.
type SQLAuditRepository struct {
	db *database.DB
}

// NewAuditRepository creates a SQL implementation of the AuditRepository.
func NewAuditRepository(db *database.DB) *SQLAuditRepository {
	return &SQLAuditRepository{db: db}
}

// Append writes entry and assigns its ID.
func (repository *SQLAuditRepository) Append(context context.Context, entry *AccessLogEntry) error {
	const query = `
		INSERT INTO access_logs (user_id, username, action, occurred_at, success, details, ip_address)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	err := repository.db.QueryRowxContext(context, repository.db.Rebind(query),
		entry.UserID,
		entry.Username,
		string(entry.Action),
		entry.Timestamp.UTC(),
		entry.Success,
		entry.Details,
		entry.IPAddress,
	).Scan(&entry.ID)

	return dberr.Wrap(err, "sql_audit_append")
}

// ListByUser returns the newest entries recorded for userID.
func (repository *SQLAuditRepository) ListByUser(context context.Context, userID int64, limit int) ([]AccessLogEntry, error) {
	query := repository.db.Rebind(`SELECT ` + auditColumns + ` FROM access_logs
		WHERE user_id = ?
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?`)

	entries := []AccessLogEntry{}
	if err := repository.db.SelectContext(context, &entries, query, userID, limit); err != nil {
		return nil, dberr.Wrap(err, "sql_audit_list_user")
	}

	return entries, nil
}

// ListRecent returns the newest entries across all users.
func (repository *SQLAuditRepository) ListRecent(context context.Context, limit int) ([]AccessLogEntry, error) {
	query := repository.db.Rebind(`SELECT ` + auditColumns + ` FROM access_logs
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?`)

	entries := []AccessLogEntry{}
	if err := repository.db.SelectContext(context, &entries, query, limit); err != nil {
		return nil, dberr.Wrap(err, "sql_audit_list_recent")
	}

	return entries, nil
}
