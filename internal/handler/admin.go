package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/blapoker/loyalty/internal/config"
	"github.com/blapoker/loyalty/internal/middleware"
)

func (h *Handler) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usersPayload(users))
}

func (h *Handler) handleAdminUserCheckIns(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	l, err := h.ledger.Ledger(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]checkInView, len(l.CheckIns))
	for i, ci := range l.CheckIns {
		views[i] = checkInView{ID: ci.ID.String(), CreatedAt: ci.CreatedAt}
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) handleAdminRedeem(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUser(r.Context())
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	if err := h.ledger.Redeem(r.Context(), userID, admin.ID); err != nil {
		writeError(w, err)
		return
	}
	update, err := h.ledger.Coupons(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, couponsPayload(update))
}

func (h *Handler) handleAdminDeleteCheckIn(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUser(r.Context())
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	checkInID, ok := pathUUID(w, r, "checkInID")
	if !ok {
		return
	}
	if err := h.ledger.DeleteCheckIn(r.Context(), userID, checkInID, admin.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAdminDeactivate(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUser(r.Context())
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	if err := h.users.Deactivate(r.Context(), userID, admin.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAdminRestore(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUser(r.Context())
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	if err := h.users.Restore(r.Context(), userID, admin.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type renameRequest struct {
	DisplayName string `json:"display_name"`
}

func (h *Handler) handleAdminRename(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUser(r.Context())
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		writeBadRequest(w, "display_name is required")
		return
	}
	if err := h.users.Rename(r.Context(), userID, req.DisplayName, admin.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.audit.ListRecent(r.Context(), config.AuditRetention)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]auditView, len(entries))
	for i, e := range entries {
		v := auditView{
			ID:        e.ID,
			Type:      string(e.Type),
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		}
		if e.ActorID != nil {
			v.ActorID = e.ActorID.String()
		}
		views[i] = v
	}
	writeJSON(w, http.StatusOK, views)
}

func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeBadRequest(w, "invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}
