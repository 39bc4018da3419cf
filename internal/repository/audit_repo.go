package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blapoker/loyalty/internal/domain"
)

// AuditRepo is the append-only audit sink. Appends are best-effort:
// failures are logged, never propagated, so an audit outage cannot
// fail a ledger operation. Retention keeps only the newest entries.
type AuditRepo struct {
	db        *pgxpool.Pool
	retention int
}

func NewAuditRepo(db *pgxpool.Pool, retention int) *AuditRepo {
	return &AuditRepo{db: db, retention: retention}
}

func (r *AuditRepo) Append(ctx context.Context, entry domain.AuditEntry) {
	at := entry.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO audit_log (entry_type, actor_id, metadata, created_at) VALUES ($1, $2, $3, $4)`,
		string(entry.Type), entry.ActorID, metadata, at)
	if err != nil {
		slog.Error("append audit entry", "type", entry.Type, "error", err)
		return
	}

	_, err = r.db.Exec(ctx,
		`DELETE FROM audit_log
		 WHERE id NOT IN (SELECT id FROM audit_log ORDER BY id DESC LIMIT $1)`,
		r.retention)
	if err != nil {
		slog.Error("trim audit log", "error", err)
	}
}

func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, entry_type, actor_id, metadata, created_at
		 FROM audit_log ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var entryType string
		if err := rows.Scan(&e.ID, &entryType, &e.ActorID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Type = domain.AuditType(entryType)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
