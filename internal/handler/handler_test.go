package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/accounts_admin/internal/admin"
	"github.com/GTDGit/accounts_admin/internal/models"
	"github.com/GTDGit/accounts_admin/internal/repository"
	"github.com/GTDGit/accounts_admin/internal/service"
	"github.com/GTDGit/accounts_admin/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubStore struct {
	accounts map[int]*models.UserAccount
	lastQ    repository.ChangeListQuery
	applied  []repository.RowEdit
}

func (s *stubStore) GetByID(_ context.Context, id int) (*models.UserAccount, error) {
	u, ok := s.accounts[id]
	if !ok {
		return nil, utils.ErrAccountNotFound
	}
	return u, nil
}

func (s *stubStore) GetByEmail(_ context.Context, email string) (*models.UserAccount, error) {
	for _, u := range s.accounts {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, utils.ErrAccountNotFound
}

func (s *stubStore) UpdateLastLogin(_ context.Context, id int, at time.Time) error {
	s.accounts[id].LastLogin = &at
	return nil
}

func (s *stubStore) Create(context.Context, *models.UserAccount) error {
	return errors.New("not implemented")
}

func (s *stubStore) ChangeList(_ context.Context, d admin.Descriptor, q repository.ChangeListQuery) (*repository.ChangeListPage, error) {
	s.lastQ = q
	for field := range q.Filters {
		if !d.IsFilterable(field) {
			return nil, utils.ErrInvalidFilter
		}
	}
	return &repository.ChangeListPage{
		Accounts:   []models.UserAccount{*s.accounts[1]},
		TotalItems: 21,
		Page:       q.Page,
		Limit:      d.ListPerPage,
	}, nil
}

func (s *stubStore) ApplyEdits(_ context.Context, edits []repository.RowEdit) error {
	s.applied = append(s.applied, edits...)
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta struct {
		Pagination *utils.Pagination `json:"pagination"`
	} `json:"meta"`
}

func testTokens(t *testing.T) *utils.JWTManager {
	t.Helper()
	m, err := utils.NewJWTManager("handler-secret", time.Hour)
	require.NoError(t, err)
	return m
}

func setup(t *testing.T) (*gin.Engine, *stubStore) {
	t.Helper()

	pw, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	store := &stubStore{accounts: map[int]*models.UserAccount{
		1: {ID: 1, Email: "admin@example.com", PasswordHash: string(pw), IsActive: true, IsAdmin: true},
	}}

	registry := admin.NewRegistry(false)
	require.NoError(t, registry.Register(admin.UserAccountEntity(), admin.UserAccountDescriptor()))

	users := NewUserAccountAdminHandler(service.NewUserAdminService(store, registry))
	registryH := NewModelRegistryHandler(registry)
	auth := NewAuthHandler(service.NewAdminAuthService(store, nil, testTokens(t)))

	r := gin.New()
	r.POST("/login", auth.Login)
	r.GET("/models", registryH.ListModels)
	r.GET("/models/:entity/descriptor", registryH.GetDescriptor)
	r.GET("/users", users.ChangeList)
	r.GET("/users/:id", users.Detail)
	r.PATCH("/users", users.BulkEdit)
	return r, store
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestChangeList_ParsesQuery(t *testing.T) {
	r, store := setup(t)

	w, env := do(t, r, http.MethodGet, "/users?page=2&q=admin&o=-last_login&is_admin=true", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, repository.ChangeListQuery{
		Search:  "admin",
		Order:   "-last_login",
		Page:    2,
		Filters: map[string]string{"is_admin": "true"},
	}, store.lastQ)

	require.NotNil(t, env.Meta.Pagination)
	assert.Equal(t, 21, env.Meta.Pagination.TotalItems)
	assert.Equal(t, 3, env.Meta.Pagination.TotalPages)

	var view service.ChangeListView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "admin@example.com", view.Rows[0].Values["email"])
}

func TestChangeList_ShowAllFlag(t *testing.T) {
	r, store := setup(t)

	w, _ := do(t, r, http.MethodGet, "/users?all=", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.lastQ.ShowAll)
}

func TestChangeList_Errors(t *testing.T) {
	r, _ := setup(t)

	w, env := do(t, r, http.MethodGet, "/users?page=zero", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PAGE", env.Error.Code)

	w, env = do(t, r, http.MethodGet, "/users?email=a@example.com", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FILTER", env.Error.Code)
}

func TestDetail(t *testing.T) {
	r, _ := setup(t)

	w, env := do(t, r, http.MethodGet, "/users/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"readonly":true`)

	w, env = do(t, r, http.MethodGet, "/users/42", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", env.Error.Code)

	w, _ = do(t, r, http.MethodGet, "/users/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulkEdit(t *testing.T) {
	r, store := setup(t)

	w, env := do(t, r, http.MethodPatch, "/users", `{"rows":[{"id":1,"values":{"last_login":"2024-02-03T04:05:06Z"}}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"updated":1}`, string(env.Data))
	require.Len(t, store.applied, 1)
}

func TestBulkEdit_RejectsReadonlyField(t *testing.T) {
	r, store := setup(t)

	w, env := do(t, r, http.MethodPatch, "/users", `{"rows":[{"id":1,"values":{"is_admin":false}}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "FIELD_NOT_EDITABLE", env.Error.Code)
	assert.JSONEq(t, `{"id":1,"field":"is_admin"}`, string(env.Error.Details))
	assert.Empty(t, store.applied)

	w, env = do(t, r, http.MethodPatch, "/users", `{"rows":[{"id":1,"values":{"last_login":5}}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FIELD_VALUE", env.Error.Code)

	w, _ = do(t, r, http.MethodPatch, "/users", `{"rows":[{"values":{}}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModels(t *testing.T) {
	r, _ := setup(t)

	w, env := do(t, r, http.MethodGet, "/models", "")
	require.Equal(t, http.StatusOK, w.Code)

	var views []registrationView
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, admin.UserAccountEntityName, views[0].Entity)
	assert.Equal(t, []string{"is_admin"}, views[0].Overlap)
	assert.Equal(t, []string{"last_login"}, views[0].Descriptor.ListEditable)

	w, _ = do(t, r, http.MethodGet, "/models/user-accounts/descriptor", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = do(t, r, http.MethodGet, "/models/orders/descriptor", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ENTITY_NOT_REGISTERED", env.Error.Code)
}

func TestLogin(t *testing.T) {
	r, store := setup(t)

	w, env := do(t, r, http.MethodPost, "/login", `{"email":"admin@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	claims, err := testTokens(t).Validate(data.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, claims.UserID)
	assert.NotNil(t, store.accounts[1].LastLogin)

	w, env = do(t, r, http.MethodPost, "/login", `{"email":"admin@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	w, _ = do(t, r, http.MethodPost, "/login", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("down") }

	r := gin.New()
	r.GET("/ok", NewHealthHandler(map[string]PingFunc{"database": ok}).GetHealth)
	r.GET("/down", NewHealthHandler(map[string]PingFunc{"database": ok, "redis": down}).GetHealth)

	w, _ := do(t, r, http.MethodGet, "/ok", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := do(t, r, http.MethodGet, "/down", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"database":"connected","redis":"disconnected"}`, string(env.Error.Details))
}
