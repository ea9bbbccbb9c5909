package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/accounts_admin/internal/admin"
	"github.com/GTDGit/accounts_admin/internal/repository"
	"github.com/GTDGit/accounts_admin/internal/service"
	"github.com/GTDGit/accounts_admin/internal/utils"
)

// Query parameters with a fixed meaning on the list view. Any other
// parameter is treated as a list filter.
const (
	paramPage   = "page"
	paramAll    = "all"
	paramSearch = "q"
	paramOrder  = "o"
)

// UserAccountAdminHandler serves the back-office screens for user accounts.
type UserAccountAdminHandler struct {
	svc *service.UserAdminService
}

// NewUserAccountAdminHandler constructs a UserAccountAdminHandler.
func NewUserAccountAdminHandler(svc *service.UserAdminService) *UserAccountAdminHandler {
	return &UserAccountAdminHandler{svc: svc}
}

// ChangeList handles GET /v1/admin/user-accounts
func (h *UserAccountAdminHandler) ChangeList(c *gin.Context) {
	q := repository.ChangeListQuery{
		Search:  c.Query(paramSearch),
		Order:   c.Query(paramOrder),
		Page:    1,
		Filters: map[string]string{},
	}
	if page := c.Query(paramPage); page != "" {
		p, err := strconv.Atoi(page)
		if err != nil || p < 1 {
			utils.Error(c, 400, "INVALID_PAGE", "page must be a positive integer")
			return
		}
		q.Page = p
	}
	if _, ok := c.GetQuery(paramAll); ok {
		q.ShowAll = true
	}
	for key, values := range c.Request.URL.Query() {
		switch key {
		case paramPage, paramAll, paramSearch, paramOrder:
			continue
		}
		if len(values) > 0 {
			q.Filters[key] = values[0]
		}
	}

	view, err := h.svc.ChangeList(c.Request.Context(), q)
	if err != nil {
		respondAdminError(c, err, "Failed to retrieve user accounts")
		return
	}

	utils.SuccessWithPagination(c, 200, "User accounts retrieved", view, view.Pagination)
}

// Detail handles GET /v1/admin/user-accounts/:id
func (h *UserAccountAdminHandler) Detail(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid account ID")
		return
	}

	view, err := h.svc.Detail(c.Request.Context(), id)
	if err != nil {
		respondAdminError(c, err, "Failed to retrieve user account")
		return
	}

	utils.Success(c, 200, "User account retrieved", view)
}

// BulkEdit handles PATCH /v1/admin/user-accounts
func (h *UserAccountAdminHandler) BulkEdit(c *gin.Context) {
	var req struct {
		Rows []service.EditRequest `json:"rows" binding:"required,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	n, err := h.svc.BulkEdit(c.Request.Context(), req.Rows)
	if err != nil {
		respondAdminError(c, err, "Failed to update user accounts")
		return
	}

	log.Info().
		Int("admin_id", c.GetInt("admin_id")).
		Int("rows", n).
		Msg("List edit applied")
	utils.Success(c, 200, "User accounts updated", gin.H{"updated": n})
}

// respondAdminError maps service errors to API responses.
func respondAdminError(c *gin.Context, err error, fallback string) {
	var ferr *service.FieldError
	switch {
	case errors.As(err, &ferr) && errors.Is(err, utils.ErrFieldNotEditable):
		utils.ErrorWithDetails(c, 400, "FIELD_NOT_EDITABLE", "Field is not editable from the list view", ferr)
	case errors.As(err, &ferr):
		utils.ErrorWithDetails(c, 400, "INVALID_FIELD_VALUE", ferr.Err.Error(), ferr)
	case errors.Is(err, utils.ErrInvalidFilter):
		utils.Error(c, 400, "INVALID_FILTER", err.Error())
	case errors.Is(err, utils.ErrInvalidOrdering):
		utils.Error(c, 400, "INVALID_ORDERING", err.Error())
	case errors.Is(err, utils.ErrAccountNotFound):
		utils.Error(c, 404, "ACCOUNT_NOT_FOUND", "User account not found")
	case errors.Is(err, admin.ErrNotRegistered):
		utils.Error(c, 404, "ENTITY_NOT_REGISTERED", err.Error())
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(fallback)
		utils.Error(c, 500, "INTERNAL_ERROR", fallback)
	}
}
