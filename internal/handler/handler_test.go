package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/blapoker/loyalty/internal/config"
	"github.com/blapoker/loyalty/internal/domain"
	"github.com/blapoker/loyalty/internal/service"
)

type stubSessions struct {
	byToken map[string]*domain.User
}

func (s *stubSessions) VerifySession(token string) (uuid.UUID, error) {
	if u, ok := s.byToken[token]; ok {
		return u.ID, nil
	}
	return uuid.Nil, domain.ErrInvalidCredentials
}

func (s *stubSessions) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	for _, u := range s.byToken {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type stubUsers struct {
	registered  *domain.User
	registerErr error
	list        []domain.User
	board       []domain.User
	byID        map[uuid.UUID]*domain.User
	renameErr   error
	lastRename  string
}

func (s *stubUsers) Register(_ context.Context, _, _, _ string) (*domain.User, error) {
	return s.registered, s.registerErr
}

func (s *stubUsers) Login(_ context.Context, _, _ string) (string, *domain.User, error) {
	return "", nil, domain.ErrInvalidCredentials
}

func (s *stubUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUsers) List(_ context.Context) ([]domain.User, error) { return s.list, nil }

func (s *stubUsers) Leaderboard(_ context.Context, _ int) ([]domain.User, error) {
	return s.board, nil
}

func (s *stubUsers) Rename(_ context.Context, _ uuid.UUID, displayName string, _ uuid.UUID) error {
	s.lastRename = displayName
	return s.renameErr
}

func (s *stubUsers) Deactivate(_ context.Context, _ uuid.UUID, _ uuid.UUID) error { return nil }

func (s *stubUsers) Restore(_ context.Context, _ uuid.UUID, _ uuid.UUID) error { return nil }

type stubLedger struct {
	checkIn    *domain.CheckIn
	checkInErr error
	redeemErr  error
	deleteErr  error
	ledger     *domain.Ledger
	coupons    service.CouponUpdate
}

func (s *stubLedger) CheckIn(_ context.Context, _ uuid.UUID, _ string) (*domain.CheckIn, error) {
	return s.checkIn, s.checkInErr
}

func (s *stubLedger) Redeem(_ context.Context, _, _ uuid.UUID) error { return s.redeemErr }

func (s *stubLedger) DeleteCheckIn(_ context.Context, _, _, _ uuid.UUID) error {
	return s.deleteErr
}

func (s *stubLedger) Ledger(_ context.Context, _ uuid.UUID) (*domain.Ledger, error) {
	return s.ledger, nil
}

func (s *stubLedger) Coupons(_ context.Context, _ uuid.UUID) (service.CouponUpdate, error) {
	return s.coupons, nil
}

type stubAudit struct {
	entries []domain.AuditEntry
}

func (s *stubAudit) ListRecent(_ context.Context, _ int) ([]domain.AuditEntry, error) {
	return s.entries, nil
}

type fixture struct {
	router http.Handler
	member *domain.User
	admin  *domain.User
	users  *stubUsers
	ledger *stubLedger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	member := &domain.User{ID: uuid.New(), Email: "ivy@example.com", DisplayName: "Ivy", IsActive: true}
	admin := &domain.User{ID: uuid.New(), Email: "admin@example.com", DisplayName: "Admin", IsActive: true, IsAdmin: true}

	sessions := &stubSessions{byToken: map[string]*domain.User{
		"member-token": member,
		"admin-token":  admin,
	}}
	users := &stubUsers{byID: map[uuid.UUID]*domain.User{member.ID: member, admin.ID: admin}}
	ledgerStub := &stubLedger{}

	h := New(Deps{
		Users:  users,
		Ledger: ledgerStub,
		Audit:  &stubAudit{},
		Feed:   service.NewFeed(),
	})
	return &fixture{
		router: NewRouter(h, sessions),
		member: member,
		admin:  admin,
		users:  users,
		ledger: ledgerStub,
	}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestRouter_AuthRequired(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/me", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckIn_Success(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.ledger.checkIn = &domain.CheckIn{ID: uuid.New(), UserID: f.member.ID, CreatedAt: now}

	rec := f.do(t, http.MethodPost, "/checkin", "member-token", checkInRequest{Token: config.CheckInToken})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp checkInResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, f.ledger.checkIn.ID.String(), resp.CheckIn.ID)
	require.Equal(t, f.member.ID.String(), resp.User.ID)
}

func TestCheckIn_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"busy", domain.ErrBusy, http.StatusTooManyRequests, "busy"},
		{"duplicate", domain.ErrDuplicateScan, http.StatusConflict, "duplicate"},
		{"invalid token", domain.ErrInvalidToken, http.StatusUnprocessableEntity, "invalid_token"},
		{"time anomaly", domain.ErrTimeAnomaly, http.StatusUnprocessableEntity, "time_anomaly"},
		{"too soon", domain.ErrTooSoon, http.StatusTooManyRequests, "too_soon"},
		{"storage conflict", domain.ErrStorageConflict, http.StatusServiceUnavailable, "transient"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.ledger.checkInErr = tc.err

			rec := f.do(t, http.MethodPost, "/checkin", "member-token", checkInRequest{Token: config.CheckInToken})
			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, tc.code, decodeError(t, rec).Code)
		})
	}
}

func TestAdmin_ForbiddenForMembers(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/admin/users", "member-token", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdmin_RedeemNoCoupon(t *testing.T) {
	f := newFixture(t)
	f.ledger.redeemErr = domain.ErrNoCoupon

	rec := f.do(t, http.MethodPost, "/admin/users/"+f.member.ID.String()+"/redeem", "admin-token", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "no_coupon", decodeError(t, rec).Code)
}

func TestAdmin_DeleteCheckIn(t *testing.T) {
	f := newFixture(t)

	path := "/admin/users/" + f.member.ID.String() + "/checkins/" + uuid.NewString()
	rec := f.do(t, http.MethodDelete, path, "admin-token", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	f.ledger.deleteErr = domain.ErrCheckInNotFound
	rec = f.do(t, http.MethodDelete, path, "admin-token", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "checkin_not_found", decodeError(t, rec).Code)
}

func TestAdmin_Rename(t *testing.T) {
	f := newFixture(t)

	path := "/admin/users/" + f.member.ID.String() + "/rename"
	rec := f.do(t, http.MethodPost, path, "admin-token", renameRequest{DisplayName: "Ivy R."})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "Ivy R.", f.users.lastRename)

	rec = f.do(t, http.MethodPost, path, "admin-token", renameRequest{DisplayName: "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.users.registerErr = domain.ErrDuplicateEmail

	rec := f.do(t, http.MethodPost, "/auth/register", "", registerRequest{
		Email: "ivy@example.com", Password: "hunter22", DisplayName: "Ivy",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "duplicate_email", decodeError(t, rec).Code)
}

func TestLeaderboard(t *testing.T) {
	f := newFixture(t)
	f.users.board = []domain.User{
		{DisplayName: "Ivy", TotalCheckIns: 12},
		{DisplayName: "Max", TotalCheckIns: 7},
	}

	rec := f.do(t, http.MethodGet, "/leaderboard", "member-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []leaderboardEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	require.Len(t, entries, 2)
	require.Equal(t, "Ivy", entries[0].DisplayName)
	require.Equal(t, 12, entries[0].TotalCheckIns)
}
