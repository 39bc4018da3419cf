package domain

import (
	"time"

	"github.com/google/uuid"
)

type Coupon struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	CreatedAt  time.Time
	RedeemedAt *time.Time
}

func (c *Coupon) Redeemed() bool {
	return c.RedeemedAt != nil
}
