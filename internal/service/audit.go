package service

import (
	"context"

	"github.com/blapoker/loyalty/internal/domain"
	"github.com/blapoker/loyalty/internal/ledger"
)

// Notifier pushes notable audit events to an out-of-band channel for
// staff. Implementations must be best-effort and non-blocking.
type Notifier interface {
	Notify(entry domain.AuditEntry)
}

// AuditService persists every entry and forwards it to the notifier.
type AuditService struct {
	sink     ledger.AuditSink
	notifier Notifier
}

func NewAuditService(sink ledger.AuditSink, notifier Notifier) *AuditService {
	return &AuditService{sink: sink, notifier: notifier}
}

func (s *AuditService) Append(ctx context.Context, entry domain.AuditEntry) {
	s.sink.Append(ctx, entry)
	if s.notifier != nil {
		s.notifier.Notify(entry)
	}
}
