// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/sistema-fontes/fontes/internal/platform/constants"
	"github.com/sistema-fontes/fontes/internal/platform/ctxutil"
	"github.com/sistema-fontes/fontes/internal/platform/metrics"
	"github.com/sistema-fontes/fontes/pkg/pagination"
)

// Event describes one auditable occurrence before it is timestamped.
type Event struct {
	UserID   *int64
	Username string
	Action   Action
	Success  bool
	Details  string

	// IPAddress defaults to the client address carried by the context.
	IPAddress string
}

// Auditor appends and reads the access log.
//
// Recording is best effort: a failed write is logged and counted, and the
// operation that triggered it proceeds unchanged.
type Auditor struct {
	repository AuditRepository
	now        func() time.Time
}

// NewAuditor constructs an [Auditor].
func NewAuditor(repository AuditRepository, now func() time.Time) *Auditor {
	if now == nil {
		now = time.Now
	}
	return &Auditor{repository: repository, now: now}
}

/*
Record appends event to the access log.

The write is detached from the caller's cancellation and bounded by its own
timeout, so an aborted request still leaves its trail.
*/
func (auditor *Auditor) Record(ctx context.Context, event Event) {
	if event.IPAddress == "" {
		event.IPAddress = ctxutil.GetClientIP(ctx, constants.UnknownIP)
	}

	entry := &AccessLogEntry{
		UserID:    event.UserID,
		Username:  event.Username,
		Action:    event.Action,
		Timestamp: auditor.now().UTC(),
		Success:   event.Success,
		Details:   event.Details,
		IPAddress: event.IPAddress,
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()

	if err := auditor.repository.Append(writeCtx, entry); err != nil {
		metrics.AuditWriteFailures.Inc()
		ctxutil.GetLogger(ctx).WarnContext(ctx, "audit_write_failed",
			slog.String("action", string(entry.Action)),
			slog.String("username", entry.Username),
			slog.Any("error", err),
		)
	}
}

// QueryByUser returns the newest entries for userID, at most [UserHistoryLimit].
func (auditor *Auditor) QueryByUser(ctx context.Context, userID int64) ([]AccessLogEntry, error) {
	return auditor.repository.ListByUser(ctx, userID, UserHistoryLimit)
}

// QueryRecent returns the newest entries across all users. The limit is
// clamped to the pagination bounds.
func (auditor *Auditor) QueryRecent(ctx context.Context, limit int) ([]AccessLogEntry, error) {
	return auditor.repository.ListRecent(ctx, pagination.Clamp(limit))
}
