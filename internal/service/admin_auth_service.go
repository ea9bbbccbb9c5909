package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/accounts_admin/internal/models"
	"github.com/GTDGit/accounts_admin/internal/utils"
)

// MinPasswordLength is enforced when creating accounts.
const MinPasswordLength = 8

// AdminAccountStore is the persistence used by AdminAuthService.
type AdminAccountStore interface {
	GetByEmail(ctx context.Context, email string) (*models.UserAccount, error)
	UpdateLastLogin(ctx context.Context, id int, at time.Time) error
	Create(ctx context.Context, u *models.UserAccount) error
}

// LoginLimiter throttles login attempts per client IP.
type LoginLimiter interface {
	Attempt(ctx context.Context, ip string) (bool, error)
	Reset(ctx context.Context, ip string) error
}

// TokenIssuer signs admin session tokens.
type TokenIssuer interface {
	Generate(userID int, email string) (string, error)
}

// AdminAuthService authenticates back-office users.
type AdminAuthService struct {
	accounts AdminAccountStore
	limiter  LoginLimiter
	tokens   TokenIssuer
	now      func() time.Time
	compare  func(hash, password []byte) error
}

// NewAdminAuthService constructs an AdminAuthService. limiter may be nil;
// tokens may be nil when the service is only used to create accounts.
func NewAdminAuthService(accounts AdminAccountStore, limiter LoginLimiter, tokens TokenIssuer) *AdminAuthService {
	return &AdminAuthService{
		accounts: accounts,
		limiter:  limiter,
		tokens:   tokens,
		now:      time.Now,
		compare:  bcrypt.CompareHashAndPassword,
	}
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// unknownAccountHash is compared against when the email has no account, so
// that lookups for missing accounts cost as much as a wrong password.
func unknownAccountHash() []byte {
	dummyHashOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("unknown-account"), bcrypt.DefaultCost)
		if err != nil {
			log.Error().Err(err).Msg("Failed to generate placeholder password hash")
			return
		}
		dummyHash = h
	})
	return dummyHash
}

// Login verifies the credentials of an active admin account and returns a
// signed session token. Successful logins update last_login.
func (s *AdminAuthService) Login(ctx context.Context, email, password, ip string) (string, error) {
	log.Debug().Str("email", email).Str("ip", ip).Msg("Login attempt")

	if s.limiter != nil {
		allowed, err := s.limiter.Attempt(ctx, ip)
		if err != nil {
			// Redis outages must not lock every admin out.
			log.Error().Err(err).Str("ip", ip).Msg("Login throttle unavailable")
		} else if !allowed {
			log.Warn().Str("ip", ip).Msg("Too many failed login attempts")
			return "", utils.ErrTooManyAttempts
		}
	}

	user, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, utils.ErrAccountNotFound) {
			log.Error().Err(err).Str("email", email).Msg("Failed to get account by email")
		}
		_ = s.compare(unknownAccountHash(), []byte(password))
		return "", utils.ErrInvalidCredentials
	}

	if err := s.compare([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("email", email).Msg("Password verification failed")
		return "", utils.ErrInvalidCredentials
	}

	// Credentials are verified; the attempt no longer counts against ip.
	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, ip); err != nil {
			log.Error().Err(err).Str("ip", ip).Msg("Failed to reset login throttle")
		}
	}

	if !user.IsActive {
		log.Warn().Str("email", email).Msg("Account is inactive")
		return "", utils.ErrAccountInactive
	}
	if !user.IsAdmin {
		log.Warn().Str("email", email).Msg("Account has no admin access")
		return "", utils.ErrNotAdmin
	}

	if s.tokens == nil {
		return "", errors.New("token issuer not configured")
	}
	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return "", err
	}

	if err := s.accounts.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		log.Error().Err(err).Int("user_id", user.ID).Msg("Failed to update last_login")
	}

	log.Info().Int("user_id", user.ID).Str("email", user.Email).Msg("Login successful")
	return token, nil
}

// CreateSuperuser creates an active admin account.
func (s *AdminAuthService) CreateSuperuser(ctx context.Context, email, password string) (*models.UserAccount, error) {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email address %q", email)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.UserAccount{
		Email:        email,
		PasswordHash: string(hashed),
		IsActive:     true,
		IsAdmin:      true,
	}
	if err := s.accounts.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
