package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/blapoker/loyalty/internal/domain"
	"github.com/blapoker/loyalty/internal/service"
)

// UserOps is the user-facing slice of the user service.
type UserOps interface {
	Register(ctx context.Context, email, password, displayName string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.User, error)
	Rename(ctx context.Context, id uuid.UUID, displayName string, actorID uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error
}

// LedgerOps is the slice of the ledger service the handlers use.
type LedgerOps interface {
	CheckIn(ctx context.Context, userID uuid.UUID, token string) (*domain.CheckIn, error)
	Redeem(ctx context.Context, userID, actorID uuid.UUID) error
	DeleteCheckIn(ctx context.Context, userID, checkInID, actorID uuid.UUID) error
	Ledger(ctx context.Context, userID uuid.UUID) (*domain.Ledger, error)
	Coupons(ctx context.Context, userID uuid.UUID) (service.CouponUpdate, error)
}

// AuditReader exposes the recent audit trail to admins.
type AuditReader interface {
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}

// Handler holds all dependencies needed by the HTTP handlers.
type Handler struct {
	users  UserOps
	ledger LedgerOps
	audit  AuditReader
	feed   *service.Feed
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Users  UserOps
	Ledger LedgerOps
	Audit  AuditReader
	Feed   *service.Feed
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		users:  deps.Users,
		ledger: deps.Ledger,
		audit:  deps.Audit,
		feed:   deps.Feed,
	}
}
