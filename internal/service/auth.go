package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bamboowoods/internal/clock"
	"bamboowoods/internal/database"
	"bamboowoods/internal/domain"
	"bamboowoods/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	loginAttempts = 10
	loginWindow   = 15 * time.Minute
)

type AuthService struct {
	admins domain.AdminRepository
	state  domain.StateRepository
	clock  clock.Clock
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewAuthService(admins domain.AdminRepository, state domain.StateRepository, clk clock.Clock, ttl time.Duration, logger *zerolog.Logger) *AuthService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if ttl <= 0 {
		ttl = models.DefaultSessionTTL
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &AuthService{admins: admins, state: state, clock: clk, ttl: ttl, logger: logger}
}

// EnsureAdmin creates the operator account when it does not exist yet.
// Empty credentials are ignored.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return false, nil
	}

	_, err := s.admins.GetAdminByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return false, storeErr("get admin", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	if err := s.admins.CreateAdmin(ctx, &models.Admin{Email: email, PasswordHash: string(hash)}); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return false, nil
		}
		return false, storeErr("create admin", err)
	}

	s.logger.Info().Str("email", strings.ToLower(email)).Msg("admin account created")
	return true, nil
}

// Login checks the password and opens a session. client identifies the
// caller for attempt throttling.
func (s *AuthService) Login(ctx context.Context, email, password, client string) (*models.Session, error) {
	allowed, err := s.state.CheckRateLimit(ctx, "login:"+client, loginAttempts, loginWindow)
	if err != nil {
		s.logger.Warn().Err(err).Msg("login rate limit check failed")
	} else if !allowed {
		return nil, ErrRateLimited
	}

	admin, err := s.admins.GetAdminByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeErr("get admin", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn().Str("email", admin.Email).Msg("admin login rejected")
		return nil, ErrInvalidCredentials
	}

	session := &models.Session{
		Token:     uuid.NewString(),
		AdminID:   admin.ID,
		Email:     admin.Email,
		ExpiresAt: s.clock.Now().Add(s.ttl),
	}
	if err := s.state.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.Info().Str("email", admin.Email).Msg("admin logged in")
	return session, nil
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	session, err := s.state.GetSession(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil || session.Expired(s.clock.Now()) {
		return nil, ErrUnauthorized
	}
	return session, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.state.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := s.state.ClearDashboardState(ctx, token); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear dashboard state on logout")
	}
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, email, current, next string) error {
	if len(next) < 8 {
		return validationf("new password must be at least 8 characters")
	}
	admin, err := s.admins.GetAdminByEmail(ctx, email)
	if err != nil {
		return storeErr("get admin", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return storeErr("update admin password", s.admins.UpdateAdminPassword(ctx, admin.ID, string(hash)))
}
