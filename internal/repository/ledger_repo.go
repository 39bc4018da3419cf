package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blapoker/loyalty/internal/domain"
)

// LedgerStore persists per-user ledgers. Every mutation runs inside
// one transaction that locks the user row first, so writers to the
// same user serialize while different users proceed independently.
type LedgerStore struct {
	db *pgxpool.Pool
}

func NewLedgerStore(db *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{db: db}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *LedgerStore) LoadLedger(ctx context.Context, userID uuid.UUID) (*domain.Ledger, error) {
	return s.load(ctx, s.db, userID, false)
}

func (s *LedgerStore) CommitUserMutation(ctx context.Context, userID uuid.UUID, fn func(*domain.Ledger) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return wrapConflict(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx)

	l, err := s.load(ctx, tx, userID, true)
	if err != nil {
		return err
	}

	prevCheckIns := make(map[uuid.UUID]struct{}, len(l.CheckIns))
	for _, ci := range l.CheckIns {
		prevCheckIns[ci.ID] = struct{}{}
	}
	prevCoupons := make(map[uuid.UUID]domain.Coupon, len(l.Coupons))
	for _, c := range l.Coupons {
		prevCoupons[c.ID] = c
	}

	if err := fn(l); err != nil {
		return err
	}

	if err := s.writeDelta(ctx, tx, l, prevCheckIns, prevCoupons); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapConflict(fmt.Errorf("commit: %w", err))
	}
	return nil
}

func (s *LedgerStore) load(ctx context.Context, q querier, userID uuid.UUID, forUpdate bool) (*domain.Ledger, error) {
	l := &domain.Ledger{UserID: userID}

	userSQL := `SELECT last_check_in_at, total_check_ins, coupons_available FROM users WHERE id = $1`
	if forUpdate {
		userSQL += ` FOR UPDATE`
	}
	err := q.QueryRow(ctx, userSQL, userID).Scan(&l.LastCheckInAt, &l.TotalCheckIns, &l.CouponsAvailable)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, wrapConflict(fmt.Errorf("lock user: %w", err))
	}

	rows, err := q.Query(ctx,
		`SELECT id, created_at FROM check_ins WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("load check-ins: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		ci := domain.CheckIn{UserID: userID}
		if err := rows.Scan(&ci.ID, &ci.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		l.CheckIns = append(l.CheckIns, ci)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check-ins: %w", err)
	}

	rows, err = q.Query(ctx,
		`SELECT id, created_at, redeemed_at FROM coupons WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("load coupons: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c := domain.Coupon{UserID: userID}
		if err := rows.Scan(&c.ID, &c.CreatedAt, &c.RedeemedAt); err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		l.Coupons = append(l.Coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupons: %w", err)
	}

	return l, nil
}

func (s *LedgerStore) writeDelta(ctx context.Context, tx pgx.Tx, l *domain.Ledger, prevCheckIns map[uuid.UUID]struct{}, prevCoupons map[uuid.UUID]domain.Coupon) error {
	nextCheckIns := make(map[uuid.UUID]struct{}, len(l.CheckIns))
	for _, ci := range l.CheckIns {
		nextCheckIns[ci.ID] = struct{}{}
		if _, ok := prevCheckIns[ci.ID]; !ok {
			_, err := tx.Exec(ctx,
				`INSERT INTO check_ins (id, user_id, created_at) VALUES ($1, $2, $3)`,
				ci.ID, l.UserID, ci.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert check-in: %w", err)
			}
		}
	}
	var droppedCheckIns []uuid.UUID
	for id := range prevCheckIns {
		if _, ok := nextCheckIns[id]; !ok {
			droppedCheckIns = append(droppedCheckIns, id)
		}
	}
	if len(droppedCheckIns) > 0 {
		_, err := tx.Exec(ctx, `DELETE FROM check_ins WHERE id = ANY($1)`, droppedCheckIns)
		if err != nil {
			return fmt.Errorf("delete check-ins: %w", err)
		}
	}

	nextCoupons := make(map[uuid.UUID]struct{}, len(l.Coupons))
	for _, c := range l.Coupons {
		nextCoupons[c.ID] = struct{}{}
		prev, existed := prevCoupons[c.ID]
		switch {
		case !existed:
			_, err := tx.Exec(ctx,
				`INSERT INTO coupons (id, user_id, created_at, redeemed_at) VALUES ($1, $2, $3, $4)`,
				c.ID, l.UserID, c.CreatedAt, c.RedeemedAt)
			if err != nil {
				return fmt.Errorf("insert coupon: %w", err)
			}
		case redemptionChanged(prev, c):
			_, err := tx.Exec(ctx,
				`UPDATE coupons SET redeemed_at = $2 WHERE id = $1`, c.ID, c.RedeemedAt)
			if err != nil {
				return fmt.Errorf("update coupon: %w", err)
			}
		}
	}
	var droppedCoupons []uuid.UUID
	for id := range prevCoupons {
		if _, ok := nextCoupons[id]; !ok {
			droppedCoupons = append(droppedCoupons, id)
		}
	}
	if len(droppedCoupons) > 0 {
		_, err := tx.Exec(ctx, `DELETE FROM coupons WHERE id = ANY($1)`, droppedCoupons)
		if err != nil {
			return fmt.Errorf("delete coupons: %w", err)
		}
	}

	_, err := tx.Exec(ctx,
		`UPDATE users
		 SET last_check_in_at = $2, total_check_ins = $3, coupons_available = $4, updated_at = now()
		 WHERE id = $1`,
		l.UserID, l.LastCheckInAt, l.TotalCheckIns, l.CouponsAvailable)
	if err != nil {
		return fmt.Errorf("update user ledger fields: %w", err)
	}
	return nil
}

func redemptionChanged(prev, next domain.Coupon) bool {
	if (prev.RedeemedAt == nil) != (next.RedeemedAt == nil) {
		return true
	}
	return prev.RedeemedAt != nil && !prev.RedeemedAt.Equal(*next.RedeemedAt)
}

// wrapConflict maps serialization and deadlock failures onto the
// transient storage error so callers can retry the whole operation.
func wrapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01") {
		return fmt.Errorf("%w: %v", domain.ErrStorageConflict, err)
	}
	return err
}
