package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/blapoker/loyalty/internal/domain"
	"github.com/blapoker/loyalty/internal/middleware"
	"github.com/blapoker/loyalty/internal/service"
)

// handleUserEvents streams the full user set over SSE whenever any
// user record changes. An initial snapshot is sent on connect.
func (h *Handler) handleUserEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch, cancel := h.feed.SubscribeUsers()
	defer cancel()

	setSSEHeaders(w)

	if users, err := h.users.List(r.Context()); err == nil {
		writeSSE(w, usersPayload(users))
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case users := <-ch:
			writeSSE(w, usersPayload(users))
			flusher.Flush()
		}
	}
}

// handleMyCouponEvents streams the caller's coupon history and
// available count whenever it changes.
func (h *Handler) handleMyCouponEvents(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, domain.ErrInvalidCredentials)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch, cancel := h.feed.SubscribeUserCoupons(user.ID)
	defer cancel()

	setSSEHeaders(w)

	if update, err := h.ledger.Coupons(r.Context(), user.ID); err == nil {
		writeSSE(w, couponsPayload(update))
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case update := <-ch:
			writeSSE(w, couponsPayload(update))
			flusher.Flush()
		}
	}
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

func writeSSE(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func usersPayload(users []domain.User) []userView {
	out := make([]userView, len(users))
	for i := range users {
		out[i] = toUserView(&users[i])
	}
	return out
}

func couponsPayload(update service.CouponUpdate) couponsResponse {
	return couponsResponse{
		History:   toCouponViews(update.History),
		Available: update.Available,
	}
}
