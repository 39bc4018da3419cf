package handler

import (
	"time"

	"github.com/blapoker/loyalty/internal/domain"
)

type userView struct {
	ID               string     `json:"id"`
	Email            string     `json:"email,omitempty"`
	DisplayName      string     `json:"display_name"`
	IsAdmin          bool       `json:"is_admin"`
	IsActive         bool       `json:"is_active"`
	LastCheckInAt    *time.Time `json:"last_check_in_at,omitempty"`
	TotalCheckIns    int        `json:"total_check_ins"`
	CouponsAvailable int        `json:"coupons_available"`
}

func toUserView(u *domain.User) userView {
	return userView{
		ID:               u.ID.String(),
		Email:            u.Email,
		DisplayName:      u.DisplayName,
		IsAdmin:          u.IsAdmin,
		IsActive:         u.IsActive,
		LastCheckInAt:    u.LastCheckInAt,
		TotalCheckIns:    u.TotalCheckIns,
		CouponsAvailable: u.CouponsAvailable,
	}
}

type leaderboardEntry struct {
	DisplayName   string `json:"display_name"`
	TotalCheckIns int    `json:"total_check_ins"`
}

type couponView struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
}

func toCouponViews(coupons []domain.Coupon) []couponView {
	out := make([]couponView, len(coupons))
	for i, c := range coupons {
		out[i] = couponView{ID: c.ID.String(), CreatedAt: c.CreatedAt, RedeemedAt: c.RedeemedAt}
	}
	return out
}

type checkInView struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type auditView struct {
	ID        int64             `json:"id"`
	Type      string            `json:"type"`
	ActorID   string            `json:"actor_id,omitempty"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}
