package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/blapoker/loyalty/internal/domain"
	"github.com/blapoker/loyalty/internal/ledger"
)

// LedgerService fronts the ledger engine and publishes change-feed
// snapshots after every committed mutation.
type LedgerService struct {
	engine *ledger.Engine
	store  ledger.Store
	users  UserStore
	feed   *Feed
}

func NewLedgerService(engine *ledger.Engine, store ledger.Store, users UserStore, feed *Feed) *LedgerService {
	return &LedgerService{engine: engine, store: store, users: users, feed: feed}
}

func (s *LedgerService) CheckIn(ctx context.Context, userID uuid.UUID, token string) (*domain.CheckIn, error) {
	ci, err := s.engine.CheckIn(ctx, userID, token)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, userID)
	return ci, nil
}

func (s *LedgerService) Redeem(ctx context.Context, userID, actorID uuid.UUID) error {
	if err := s.engine.Redeem(ctx, userID, actorID); err != nil {
		return err
	}
	s.publish(ctx, userID)
	return nil
}

func (s *LedgerService) DeleteCheckIn(ctx context.Context, userID, checkInID, actorID uuid.UUID) error {
	if err := s.engine.DeleteCheckIn(ctx, userID, checkInID, actorID); err != nil {
		return err
	}
	s.publish(ctx, userID)
	return nil
}

// Ledger returns the full ledger snapshot of one user.
func (s *LedgerService) Ledger(ctx context.Context, userID uuid.UUID) (*domain.Ledger, error) {
	return s.store.LoadLedger(ctx, userID)
}

// Coupons returns the coupon history and available count of one user.
func (s *LedgerService) Coupons(ctx context.Context, userID uuid.UUID) (CouponUpdate, error) {
	l, err := s.store.LoadLedger(ctx, userID)
	if err != nil {
		return CouponUpdate{}, err
	}
	return CouponUpdate{History: l.Coupons, Available: l.CouponsAvailable}, nil
}

func (s *LedgerService) publish(ctx context.Context, userID uuid.UUID) {
	if s.feed == nil {
		return
	}
	if users, err := s.users.List(ctx); err == nil {
		s.feed.PublishUsers(users)
	}
	if l, err := s.store.LoadLedger(ctx, userID); err == nil {
		s.feed.PublishCoupons(userID, CouponUpdate{History: l.Coupons, Available: l.CouponsAvailable})
	}
}
