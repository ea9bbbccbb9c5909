package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/accounts_admin/internal/cache"
	"github.com/GTDGit/accounts_admin/internal/config"
	"github.com/GTDGit/accounts_admin/internal/handler"
	"github.com/GTDGit/accounts_admin/internal/models"
	"github.com/GTDGit/accounts_admin/internal/service"
	"github.com/GTDGit/accounts_admin/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memCounter struct {
	mu     sync.Mutex
	values map[string]int64
}

func (m *memCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key]++
	return m.values[key], nil
}

func (m *memCounter) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

type singleAccountStore struct {
	account *models.UserAccount
}

func (s *singleAccountStore) GetByEmail(_ context.Context, email string) (*models.UserAccount, error) {
	if email != s.account.Email {
		return nil, utils.ErrAccountNotFound
	}
	return s.account, nil
}

func (s *singleAccountStore) UpdateLastLogin(context.Context, int, time.Time) error { return nil }

func (s *singleAccountStore) Create(context.Context, *models.UserAccount) error { return nil }

func newLoginRouter(t *testing.T, trustedProxies []string) *gin.Engine {
	t.Helper()
	pw, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := utils.NewJWTManager("secret", time.Hour)
	require.NoError(t, err)

	store := &singleAccountStore{account: &models.UserAccount{
		ID: 1, Email: "admin@example.com", PasswordHash: string(pw), IsActive: true, IsAdmin: true,
	}}
	throttle := cache.NewLoginThrottle(&memCounter{values: map[string]int64{}}, 5, time.Minute)
	auth := handler.NewAuthHandler(service.NewAdminAuthService(store, throttle, tokens))

	router, err := newRouter(&config.Config{TrustedProxies: trustedProxies})
	require.NoError(t, err)
	router.POST("/v1/admin/auth/login", auth.Login)
	return router
}

func badLogins(router *gin.Engine, n int) []int {
	codes := make([]int, 0, n)
	for i := 0; i < n; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/admin/auth/login",
			strings.NewReader(`{"email":"admin@example.com","password":"wrong"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i+1))
		req.RemoteAddr = "203.0.113.9:4321"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	return codes
}

func TestNewRouter_ThrottleIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	codes := badLogins(newLoginRouter(t, nil), 6)

	assert.Equal(t, []int{401, 401, 401, 401, 401, 429}, codes)
}

func TestNewRouter_TrustedProxyForwardsClientIP(t *testing.T) {
	codes := badLogins(newLoginRouter(t, []string{"203.0.113.9"}), 6)

	for _, code := range codes {
		assert.Equal(t, http.StatusUnauthorized, code)
	}
}

func TestNewRouter_InvalidTrustedProxy(t *testing.T) {
	_, err := newRouter(&config.Config{TrustedProxies: []string{"not-an-ip"}})
	assert.Error(t, err)
}
