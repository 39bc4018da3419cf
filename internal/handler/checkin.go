package handler

import (
	"encoding/json"
	"net/http"

	"github.com/blapoker/loyalty/internal/domain"
	"github.com/blapoker/loyalty/internal/middleware"
)

type checkInRequest struct {
	Token string `json:"token"`
}

type checkInResponse struct {
	CheckIn checkInView `json:"check_in"`
	User    userView    `json:"user"`
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, domain.ErrInvalidCredentials)
		return
	}

	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ci, err := h.ledger.CheckIn(r.Context(), user.ID, req.Token)
	if err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.users.GetByID(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkInResponse{
		CheckIn: checkInView{ID: ci.ID.String(), CreatedAt: ci.CreatedAt},
		User:    toUserView(updated),
	})
}
