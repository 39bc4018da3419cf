package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	IsActive     bool

	// Derived ledger state
	LastCheckInAt    *time.Time
	TotalCheckIns    int
	CouponsAvailable int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CheckInsTowardCoupon reports how many check-ins count toward the
// next coupon.
func (u *User) CheckInsTowardCoupon(every int) int {
	if every <= 0 {
		return 0
	}
	return u.TotalCheckIns % every
}
