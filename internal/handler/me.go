package handler

import (
	"net/http"

	"github.com/blapoker/loyalty/internal/config"
	"github.com/blapoker/loyalty/internal/domain"
	"github.com/blapoker/loyalty/internal/middleware"
)

type meResponse struct {
	User             userView `json:"user"`
	TowardNextCoupon int      `json:"toward_next_coupon"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, domain.ErrInvalidCredentials)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{
		User:             toUserView(user),
		TowardNextCoupon: user.CheckInsTowardCoupon(config.CouponEvery),
	})
}

type couponsResponse struct {
	History   []couponView `json:"history"`
	Available int          `json:"available"`
}

func (h *Handler) handleMyCoupons(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, domain.ErrInvalidCredentials)
		return
	}
	update, err := h.ledger.Coupons(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, couponsResponse{
		History:   toCouponViews(update.History),
		Available: update.Available,
	})
}
