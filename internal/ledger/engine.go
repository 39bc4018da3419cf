package ledger

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blapoker/loyalty/internal/domain"
)

// Engine owns the check-in, redemption and deletion rules and keeps
// the derived ledger fields (total count, coupon history, available
// count, last check-in timestamp) consistent across all three.
type Engine struct {
	store Store
	audit AuditSink
	gate  *Gate

	token       string
	interval    time.Duration
	couponEvery int

	now func() time.Time
}

type Config struct {
	Token       string
	Interval    time.Duration
	CouponEvery int
}

func New(store Store, audit AuditSink, gate *Gate, cfg Config) *Engine {
	return &Engine{
		store:       store,
		audit:       audit,
		gate:        gate,
		token:       cfg.Token,
		interval:    cfg.Interval,
		couponEvery: cfg.CouponEvery,
		now:         time.Now,
	}
}

// CheckIn validates the presented token and appends a check-in for the
// user. Guards run in a fixed order: global rate limit, duplicate-scan
// suppression, token validity, clock anomaly, minimum interval. On the
// Nth check-in a coupon is granted in the same transaction.
func (e *Engine) CheckIn(ctx context.Context, userID uuid.UUID, token string) (*domain.CheckIn, error) {
	now := e.now()

	if err := e.gate.Admit(now, token); err != nil {
		return nil, err
	}
	if token != e.token {
		return nil, domain.ErrInvalidToken
	}

	var created domain.CheckIn
	var granted *domain.Coupon

	err := e.store.CommitUserMutation(ctx, userID, func(l *domain.Ledger) error {
		if l.LastCheckInAt != nil {
			if now.Before(*l.LastCheckInAt) {
				return domain.ErrTimeAnomaly
			}
			if now.Sub(*l.LastCheckInAt) < e.interval {
				return domain.ErrTooSoon
			}
		}

		created = domain.CheckIn{ID: uuid.New(), UserID: userID, CreatedAt: now}
		l.CheckIns = append(l.CheckIns, created)
		l.TotalCheckIns = len(l.CheckIns)
		at := created.CreatedAt
		l.LastCheckInAt = &at

		if l.TotalCheckIns%e.couponEvery == 0 {
			c := domain.Coupon{ID: uuid.New(), UserID: userID, CreatedAt: now}
			l.Coupons = append(l.Coupons, c)
			granted = &c
		}
		l.CouponsAvailable = l.UnredeemedCoupons()
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrTimeAnomaly) {
			e.audit.Append(ctx, domain.AuditEntry{
				Type:    domain.AuditClockAnomaly,
				ActorID: &userID,
				Metadata: map[string]string{
					"user_id":      userID.String(),
					"attempted_at": now.UTC().Format(time.RFC3339Nano),
				},
				CreatedAt: now,
			})
		}
		return nil, err
	}

	e.audit.Append(ctx, domain.AuditEntry{
		Type:    domain.AuditCheckInAdd,
		ActorID: &userID,
		Metadata: map[string]string{
			"user_id":     userID.String(),
			"check_in_id": created.ID.String(),
		},
		CreatedAt: now,
	})
	if granted != nil {
		e.audit.Append(ctx, domain.AuditEntry{
			Type:    domain.AuditCouponCreate,
			ActorID: &userID,
			Metadata: map[string]string{
				"user_id":   userID.String(),
				"coupon_id": granted.ID.String(),
			},
			CreatedAt: now,
		})
	}
	return &created, nil
}

// Redeem consumes the earliest unredeemed coupon of the user.
func (e *Engine) Redeem(ctx context.Context, userID, actorID uuid.UUID) error {
	now := e.now()
	var redeemed uuid.UUID

	err := e.store.CommitUserMutation(ctx, userID, func(l *domain.Ledger) error {
		if l.CouponsAvailable == 0 {
			return domain.ErrNoCoupon
		}
		idx := -1
		for i := range l.Coupons {
			if l.Coupons[i].RedeemedAt == nil {
				if idx < 0 || l.Coupons[i].CreatedAt.Before(l.Coupons[idx].CreatedAt) {
					idx = i
				}
			}
		}
		if idx < 0 {
			return domain.ErrNoCoupon
		}
		at := now
		l.Coupons[idx].RedeemedAt = &at
		redeemed = l.Coupons[idx].ID
		l.CouponsAvailable = l.UnredeemedCoupons()
		return nil
	})
	if err != nil {
		return err
	}

	e.audit.Append(ctx, domain.AuditEntry{
		Type:    domain.AuditCouponRedeem,
		ActorID: &actorID,
		Metadata: map[string]string{
			"user_id":   userID.String(),
			"coupon_id": redeemed.String(),
		},
		CreatedAt: now,
	})
	return nil
}

// DeleteCheckIn removes one past check-in and recomputes all derived
// state as if it had never happened. Coupons are matched positionally
// against creation order: the earned count of existing coupons stay
// exactly as they are, redemption state included, so an old redemption
// survives edits that do not drop the count below its position.
func (e *Engine) DeleteCheckIn(ctx context.Context, userID, checkInID, actorID uuid.UUID) error {
	now := e.now()
	var invalidated []uuid.UUID

	err := e.store.CommitUserMutation(ctx, userID, func(l *domain.Ledger) error {
		idx := -1
		for i := range l.CheckIns {
			if l.CheckIns[i].ID == checkInID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return domain.ErrCheckInNotFound
		}
		l.CheckIns = append(l.CheckIns[:idx], l.CheckIns[idx+1:]...)
		l.TotalCheckIns = len(l.CheckIns)

		target := l.TotalCheckIns / e.couponEvery

		sort.SliceStable(l.Coupons, func(i, j int) bool {
			return l.Coupons[i].CreatedAt.Before(l.Coupons[j].CreatedAt)
		})

		invalidated = invalidated[:0]
		switch {
		case target < len(l.Coupons):
			for _, c := range l.Coupons[target:] {
				if c.RedeemedAt != nil {
					invalidated = append(invalidated, c.ID)
				}
			}
			l.Coupons = l.Coupons[:target]
		case target > len(l.Coupons):
			// Concurrent or out-of-order deletions can leave the
			// history short; pad with fresh unredeemed coupons.
			for len(l.Coupons) < target {
				l.Coupons = append(l.Coupons, domain.Coupon{ID: uuid.New(), UserID: userID, CreatedAt: now})
			}
		}

		l.CouponsAvailable = l.UnredeemedCoupons()

		if len(l.CheckIns) == 0 {
			l.LastCheckInAt = nil
		} else {
			latest := l.CheckIns[0].CreatedAt
			for _, ci := range l.CheckIns[1:] {
				if ci.CreatedAt.After(latest) {
					latest = ci.CreatedAt
				}
			}
			l.LastCheckInAt = &latest
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(invalidated) > 0 {
		ids := make([]string, len(invalidated))
		for i, id := range invalidated {
			ids[i] = id.String()
		}
		e.audit.Append(ctx, domain.AuditEntry{
			Type:    domain.AuditCouponInvalidate,
			ActorID: &actorID,
			Metadata: map[string]string{
				"user_id":    userID.String(),
				"coupon_ids": strings.Join(ids, ","),
				"count":      strconv.Itoa(len(ids)),
			},
			CreatedAt: now,
		})
	}
	e.audit.Append(ctx, domain.AuditEntry{
		Type:    domain.AuditCheckInDelete,
		ActorID: &actorID,
		Metadata: map[string]string{
			"user_id":     userID.String(),
			"check_in_id": checkInID.String(),
		},
		CreatedAt: now,
	})
	return nil
}

// Ledger returns the current ledger snapshot for a user.
func (e *Engine) Ledger(ctx context.Context, userID uuid.UUID) (*domain.Ledger, error) {
	return e.store.LoadLedger(ctx, userID)
}
