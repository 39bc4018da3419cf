package domain

import (
	"time"

	"github.com/google/uuid"
)

// Ledger is the mutable per-user check-in state handed to a mutation
// inside a single storage transaction. CheckIns and Coupons are kept
// in creation order; the counters are derived and must match them
// when the mutation returns.
type Ledger struct {
	UserID           uuid.UUID
	LastCheckInAt    *time.Time
	TotalCheckIns    int
	CouponsAvailable int
	CheckIns         []CheckIn
	Coupons          []Coupon
}

// UnredeemedCoupons counts coupons without a redemption timestamp.
func (l *Ledger) UnredeemedCoupons() int {
	n := 0
	for i := range l.Coupons {
		if l.Coupons[i].RedeemedAt == nil {
			n++
		}
	}
	return n
}
