package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/blapoker/loyalty/internal/domain"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorMapping translates the closed set of domain error kinds into
// HTTP responses. Message text lives here, not in the ledger rules.
var errorMapping = []struct {
	err     error
	status  int
	code    string
	message string
}{
	{domain.ErrBusy, http.StatusTooManyRequests, "busy", "Another scan just finished. Try again in a moment."},
	{domain.ErrDuplicateScan, http.StatusConflict, "duplicate", "That scan was already counted."},
	{domain.ErrInvalidToken, http.StatusUnprocessableEntity, "invalid_token", "That QR code is not valid here."},
	{domain.ErrTimeAnomaly, http.StatusUnprocessableEntity, "time_anomaly", "Your device clock looks wrong. Check-in refused."},
	{domain.ErrTooSoon, http.StatusTooManyRequests, "too_soon", "Too soon since your last check-in. Come back next week."},
	{domain.ErrNoCoupon, http.StatusConflict, "no_coupon", "No coupon available to redeem."},
	{domain.ErrDuplicateEmail, http.StatusConflict, "duplicate_email", "That email is already registered."},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "Wrong email or password."},
	{domain.ErrUserNotFound, http.StatusNotFound, "user_not_found", "User not found."},
	{domain.ErrCheckInNotFound, http.StatusNotFound, "checkin_not_found", "Check-in not found."},
	{domain.ErrStorageConflict, http.StatusServiceUnavailable, "transient", "Temporary storage conflict. Please retry."},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			writeJSON(w, m.status, errorResponse{Code: m.code, Message: m.message})
			return
		}
	}
	slog.Error("request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "internal", Message: "Internal server error."})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Message: message})
}
