package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/blapoker/loyalty/internal/domain"
	"github.com/blapoker/loyalty/internal/ledger"
)

// UserStore is the persistence surface the user service needs.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	ListActiveRanked(ctx context.Context, limit int) ([]domain.User, error)
	UpdateDisplayName(ctx context.Context, id uuid.UUID, displayName string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type UserService struct {
	users      UserStore
	audit      ledger.AuditSink
	feed       *Feed
	jwtSecret  []byte
	sessionTTL time.Duration
}

func NewUserService(users UserStore, audit ledger.AuditSink, feed *Feed, jwtSecret string, sessionTTL time.Duration) *UserService {
	return &UserService{
		users:      users,
		audit:      audit,
		feed:       feed,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
	}
}

func (s *UserService) Register(ctx context.Context, email, password, displayName string) (*domain.User, error) {
	u, err := s.create(ctx, email, password, displayName, false)
	if err != nil {
		return nil, err
	}
	s.publishUsers(ctx)
	return u, nil
}

func (s *UserService) create(ctx context.Context, email, password, displayName string, isAdmin bool) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		ID:           uuid.New(),
		Email:        strings.TrimSpace(email),
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
		IsAdmin:      isAdmin,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.audit.Append(ctx, domain.AuditEntry{
		Type:    domain.AuditUserCreate,
		ActorID: &u.ID,
		Metadata: map[string]string{
			"user_id":      u.ID.String(),
			"email":        u.Email,
			"display_name": u.DisplayName,
		},
		CreatedAt: time.Now(),
	})
	return u, nil
}

// SeedAdmin makes sure the configured admin account exists. An
// existing row is left untouched.
func (s *UserService) SeedAdmin(ctx context.Context, email, password, displayName string) error {
	if email == "" {
		return nil
	}
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}
	if _, err := s.create(ctx, email, password, displayName, true); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}

// Login verifies the credentials of an active user and issues a
// session token with the user id as subject.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !u.IsActive {
		return "", nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   u.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}
	return signed, u, nil
}

// VerifySession validates a session token and returns the user id.
func (s *UserService) VerifySession(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, domain.ErrInvalidCredentials
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return uuid.Nil, domain.ErrInvalidCredentials
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidCredentials
	}
	return id, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// Leaderboard ranks active users by total check-ins. Soft-deleted
// accounts are excluded but keep their ledger data.
func (s *UserService) Leaderboard(ctx context.Context, limit int) ([]domain.User, error) {
	return s.users.ListActiveRanked(ctx, limit)
}

func (s *UserService) Rename(ctx context.Context, id uuid.UUID, displayName string, actorID uuid.UUID) error {
	if err := s.users.UpdateDisplayName(ctx, id, strings.TrimSpace(displayName)); err != nil {
		return err
	}
	s.audit.Append(ctx, domain.AuditEntry{
		Type:    domain.AuditUserRename,
		ActorID: &actorID,
		Metadata: map[string]string{
			"user_id":      id.String(),
			"display_name": displayName,
		},
		CreatedAt: time.Now(),
	})
	s.publishUsers(ctx)
	return nil
}

func (s *UserService) Deactivate(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	return s.setActive(ctx, id, false, actorID, domain.AuditUserDeactivate)
}

func (s *UserService) Restore(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	return s.setActive(ctx, id, true, actorID, domain.AuditUserRestore)
}

func (s *UserService) setActive(ctx context.Context, id uuid.UUID, active bool, actorID uuid.UUID, auditType domain.AuditType) error {
	if err := s.users.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.audit.Append(ctx, domain.AuditEntry{
		Type:      auditType,
		ActorID:   &actorID,
		Metadata:  map[string]string{"user_id": id.String()},
		CreatedAt: time.Now(),
	})
	s.publishUsers(ctx)
	return nil
}

func (s *UserService) publishUsers(ctx context.Context) {
	if s.feed == nil {
		return
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return
	}
	s.feed.PublishUsers(users)
}
