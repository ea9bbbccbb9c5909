package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/accounts_admin/internal/admin"
	"github.com/GTDGit/accounts_admin/internal/models"
	"github.com/GTDGit/accounts_admin/internal/repository"
	"github.com/GTDGit/accounts_admin/internal/utils"
)

// UserAccountStore is the persistence used by UserAdminService.
type UserAccountStore interface {
	GetByID(ctx context.Context, id int) (*models.UserAccount, error)
	ChangeList(ctx context.Context, d admin.Descriptor, q repository.ChangeListQuery) (*repository.ChangeListPage, error)
	ApplyEdits(ctx context.Context, edits []repository.RowEdit) error
}

// UserAdminService renders and edits user accounts as their registered
// descriptor allows.
type UserAdminService struct {
	store    UserAccountStore
	registry *admin.Registry
}

// NewUserAdminService constructs a UserAdminService.
func NewUserAdminService(store UserAccountStore, registry *admin.Registry) *UserAdminService {
	return &UserAdminService{store: store, registry: registry}
}

// Column describes one list view column.
type Column struct {
	Field    string `json:"field"`
	Link     bool   `json:"link"`
	Editable bool   `json:"editable"`
}

// Filter describes one list filter and its accepted values.
type Filter struct {
	Field   string   `json:"field"`
	Choices []string `json:"choices"`
}

// Row is one list view row.
type Row struct {
	ID     int                    `json:"id"`
	Values map[string]interface{} `json:"values"`
}

// ChangeListView is the rendered list view.
type ChangeListView struct {
	Columns      []Column `json:"columns"`
	Filters      []Filter `json:"filters"`
	SearchFields []string `json:"searchFields"`
	Ordering     []string `json:"ordering"`
	Rows         []Row    `json:"rows"`

	Pagination utils.Pagination `json:"-"`
}

// DetailField is one field on the detail view.
type DetailField struct {
	Field    string      `json:"field"`
	Value    interface{} `json:"value"`
	Readonly bool        `json:"readonly"`
}

// DetailView is the rendered detail view of one account.
type DetailView struct {
	ID     int           `json:"id"`
	Fields []DetailField `json:"fields"`
}

// EditRequest is one row of a list-edit submission.
type EditRequest struct {
	ID     int                    `json:"id" binding:"required"`
	Values map[string]interface{} `json:"values" binding:"required"`
}

// FieldError reports a rejected field in a list-edit submission.
type FieldError struct {
	ID    int    `json:"id"`
	Field string `json:"field"`
	Err   error  `json:"-"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("account %d field %s: %v", e.ID, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Registration returns the user account registration.
func (s *UserAdminService) Registration() (admin.Registration, error) {
	return s.registry.Get(admin.UserAccountEntityName)
}

// ChangeList renders the list view for q.
func (s *UserAdminService) ChangeList(ctx context.Context, q repository.ChangeListQuery) (*ChangeListView, error) {
	reg, err := s.Registration()
	if err != nil {
		return nil, err
	}
	d := reg.Descriptor

	page, err := s.store.ChangeList(ctx, d, q)
	if err != nil {
		return nil, err
	}

	view := &ChangeListView{
		SearchFields: d.SearchFields,
		Ordering:     d.Ordering,
		Rows:         make([]Row, 0, len(page.Accounts)),
		Pagination: utils.Pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			TotalItems: page.TotalItems,
			TotalPages: utils.TotalPages(page.TotalItems, page.Limit),
			ShowAll:    page.ShowAll,
		},
	}
	for _, f := range d.ListDisplay {
		view.Columns = append(view.Columns, Column{
			Field:    f,
			Link:     contains(d.ListDisplayLinks, f),
			Editable: d.IsEditable(f),
		})
	}
	for _, f := range d.ListFilter {
		view.Filters = append(view.Filters, Filter{Field: f, Choices: filterChoices(reg.Entity.Fields[f])})
	}
	for i := range page.Accounts {
		u := &page.Accounts[i]
		values := make(map[string]interface{}, len(d.ListDisplay))
		for _, f := range d.ListDisplay {
			values[f] = fieldValue(u, f)
		}
		view.Rows = append(view.Rows, Row{ID: u.ID, Values: values})
	}
	return view, nil
}

// Detail renders the detail view of account id.
func (s *UserAdminService) Detail(ctx context.Context, id int) (*DetailView, error) {
	reg, err := s.Registration()
	if err != nil {
		return nil, err
	}
	d := reg.Descriptor

	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &DetailView{ID: u.ID, Fields: make([]DetailField, 0, len(d.Fields))}
	for _, f := range d.Fields {
		view.Fields = append(view.Fields, DetailField{
			Field:    f,
			Value:    fieldValue(u, f),
			Readonly: d.IsReadonly(f),
		})
	}
	return view, nil
}

// BulkEdit applies list-edit changes. Every field is checked against the
// effective list_editable set before anything is written; one rejected field
// rejects the whole submission.
func (s *UserAdminService) BulkEdit(ctx context.Context, edits []EditRequest) (int, error) {
	reg, err := s.Registration()
	if err != nil {
		return 0, err
	}
	d := reg.Descriptor

	rows := make([]repository.RowEdit, 0, len(edits))
	for _, e := range edits {
		values := make(map[string]interface{}, len(e.Values))
		for _, field := range sortedFields(e.Values) {
			raw := e.Values[field]
			if !d.IsEditable(field) {
				return 0, &FieldError{ID: e.ID, Field: field, Err: utils.ErrFieldNotEditable}
			}
			v, err := coerceValue(reg.Entity.Fields[field], raw)
			if err != nil {
				return 0, &FieldError{ID: e.ID, Field: field, Err: err}
			}
			values[field] = v
		}
		if len(values) == 0 {
			continue
		}
		rows = append(rows, repository.RowEdit{ID: e.ID, Values: values})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	if err := s.store.ApplyEdits(ctx, rows); err != nil {
		return 0, err
	}
	log.Info().Int("rows", len(rows)).Msg("User accounts list-edited")
	return len(rows), nil
}

// coerceValue converts a decoded JSON value to the column's Go type.
func coerceValue(kind models.FieldKind, raw interface{}) (interface{}, error) {
	switch kind {
	case models.FieldBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: expected boolean", utils.ErrInvalidFieldValue)
		}
		return b, nil
	case models.FieldTime:
		if raw == nil {
			return nil, nil
		}
		str, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected RFC3339 timestamp or null", utils.ErrInvalidFieldValue)
		}
		t, err := time.Parse(time.RFC3339, str)
		if err != nil {
			return nil, fmt.Errorf("%w: expected RFC3339 timestamp or null", utils.ErrInvalidFieldValue)
		}
		return t, nil
	case models.FieldString:
		str, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected string", utils.ErrInvalidFieldValue)
		}
		return str, nil
	default:
		return nil, fmt.Errorf("%w: unsupported field", utils.ErrInvalidFieldValue)
	}
}

func fieldValue(u *models.UserAccount, field string) interface{} {
	switch field {
	case "email":
		return u.Email
	case "is_active":
		return u.IsActive
	case "is_admin":
		return u.IsAdmin
	case "last_login":
		return u.LastLogin
	case "created_at":
		return u.CreatedAt
	case "updated_at":
		return u.UpdatedAt
	default:
		return nil
	}
}

func filterChoices(kind models.FieldKind) []string {
	if kind == models.FieldBool {
		return []string{"true", "false"}
	}
	return nil
}

func sortedFields(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
