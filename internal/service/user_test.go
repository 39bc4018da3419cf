package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/blapoker/loyalty/internal/domain"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users []*domain.User
}

func (s *fakeUserStore) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrDuplicateEmail
		}
	}
	cp := *u
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	s.users = append(s.users, &cp)
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *fakeUserStore) List(_ context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.User, len(s.users))
	for i, u := range s.users {
		out[i] = *u
	}
	return out, nil
}

func (s *fakeUserStore) ListActiveRanked(_ context.Context, limit int) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.User
	for _, u := range s.users {
		if u.IsActive {
			out = append(out, *u)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].TotalCheckIns > out[i].TotalCheckIns {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeUserStore) UpdateDisplayName(_ context.Context, id uuid.UUID, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			u.DisplayName = displayName
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (s *fakeUserStore) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			u.IsActive = active
			return nil
		}
	}
	return domain.ErrUserNotFound
}

type recordSink struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (s *recordSink) Append(_ context.Context, entry domain.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

func (s *recordSink) byType(t domain.AuditType) []domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.AuditEntry
	for _, e := range s.entries {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newUserService(t *testing.T) (*UserService, *fakeUserStore, *recordSink) {
	t.Helper()
	store := &fakeUserStore{}
	sink := &recordSink{}
	return NewUserService(store, sink, NewFeed(), "test-secret", time.Hour), store, sink
}

func TestRegister_CreatesZeroedLedger(t *testing.T) {
	svc, _, sink := newUserService(t)

	u, err := svc.Register(context.Background(), "ivy@example.com", "hunter22", "Ivy")
	require.NoError(t, err)
	require.True(t, u.IsActive)
	require.False(t, u.IsAdmin)
	require.Equal(t, 0, u.TotalCheckIns)
	require.Equal(t, 0, u.CouponsAvailable)
	require.Nil(t, u.LastCheckInAt)
	require.Len(t, sink.byType(domain.AuditUserCreate), 1)
}

func TestRegister_DuplicateEmailCaseInsensitive(t *testing.T) {
	svc, _, _ := newUserService(t)

	_, err := svc.Register(context.Background(), "ivy@example.com", "hunter22", "Ivy")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "IVY@Example.COM", "other", "Imposter")
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestLogin_RoundTrip(t *testing.T) {
	svc, _, _ := newUserService(t)

	u, err := svc.Register(context.Background(), "ivy@example.com", "hunter22", "Ivy")
	require.NoError(t, err)

	token, loggedIn, err := svc.Login(context.Background(), "ivy@example.com", "hunter22")
	require.NoError(t, err)
	require.Equal(t, u.ID, loggedIn.ID)

	id, err := svc.VerifySession(token)
	require.NoError(t, err)
	require.Equal(t, u.ID, id)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _ := newUserService(t)

	_, err := svc.Register(context.Background(), "ivy@example.com", "hunter22", "Ivy")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "ivy@example.com", "nope")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _, _ := newUserService(t)

	_, _, err := svc.Login(context.Background(), "ghost@example.com", "whatever")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_DeactivatedUser(t *testing.T) {
	svc, _, _ := newUserService(t)

	u, err := svc.Register(context.Background(), "ivy@example.com", "hunter22", "Ivy")
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(context.Background(), u.ID, u.ID))

	_, _, err = svc.Login(context.Background(), "ivy@example.com", "hunter22")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestVerifySession_Garbage(t *testing.T) {
	svc, _, _ := newUserService(t)

	_, err := svc.VerifySession("not-a-token")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestSeedAdmin_Idempotent(t *testing.T) {
	svc, store, sink := newUserService(t)

	require.NoError(t, svc.SeedAdmin(context.Background(), "admin@example.com", "secret", "Admin"))
	require.NoError(t, svc.SeedAdmin(context.Background(), "admin@example.com", "secret", "Admin"))

	users, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.True(t, users[0].IsAdmin)
	require.Len(t, sink.byType(domain.AuditUserCreate), 1)
}

func TestRename_UpdatesNameOnly(t *testing.T) {
	svc, _, sink := newUserService(t)

	admin, err := svc.Register(context.Background(), "admin@example.com", "secret", "Admin")
	require.NoError(t, err)
	u, err := svc.Register(context.Background(), "ivy@example.com", "hunter22", "Ivy")
	require.NoError(t, err)

	require.NoError(t, svc.Rename(context.Background(), u.ID, "Ivy R.", admin.ID))

	got, err := svc.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, "Ivy R.", got.DisplayName)
	require.Equal(t, "ivy@example.com", got.Email)

	renames := sink.byType(domain.AuditUserRename)
	require.Len(t, renames, 1)
	require.Equal(t, admin.ID, *renames[0].ActorID)
}

func TestDeactivateRestore_Leaderboard(t *testing.T) {
	svc, _, sink := newUserService(t)

	admin, err := svc.Register(context.Background(), "admin@example.com", "secret", "Admin")
	require.NoError(t, err)
	u, err := svc.Register(context.Background(), "ivy@example.com", "hunter22", "Ivy")
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), u.ID, admin.ID))

	board, err := svc.Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	for _, entry := range board {
		require.NotEqual(t, u.ID, entry.ID)
	}
	require.Len(t, sink.byType(domain.AuditUserDeactivate), 1)

	require.NoError(t, svc.Restore(context.Background(), u.ID, admin.ID))
	got, err := svc.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.True(t, got.IsActive)
	require.Len(t, sink.byType(domain.AuditUserRestore), 1)
}
