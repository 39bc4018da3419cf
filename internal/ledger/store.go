package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/blapoker/loyalty/internal/domain"
)

// Store is the persistence collaborator. CommitUserMutation must run
// fn against the current ledger of one user and persist the result as
// a single transaction; if fn returns an error nothing is written and
// that error is returned unchanged.
type Store interface {
	LoadLedger(ctx context.Context, userID uuid.UUID) (*domain.Ledger, error)
	CommitUserMutation(ctx context.Context, userID uuid.UUID, fn func(*domain.Ledger) error) error
}

// AuditSink receives append-only audit entries. Appends are
// best-effort and must not fail the surrounding operation.
type AuditSink interface {
	Append(ctx context.Context, entry domain.AuditEntry)
}
