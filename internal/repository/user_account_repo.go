package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/GTDGit/accounts_admin/internal/admin"
	"github.com/GTDGit/accounts_admin/internal/models"
	"github.com/GTDGit/accounts_admin/internal/utils"
)

const userAccountColumns = `id, email, password_hash, is_active, is_admin, last_login, created_at, updated_at`

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

// ChangeListPage is one page of a list view.
type ChangeListPage struct {
	Accounts   []models.UserAccount
	TotalItems int
	Page       int
	Limit      int
	ShowAll    bool
}

// RowEdit is a list-edit change for a single row. Values are keyed by column.
type RowEdit struct {
	ID     int
	Values map[string]interface{}
}

// UserAccountRepository provides data access methods for the user_accounts table.
type UserAccountRepository struct {
	db *sqlx.DB
}

// NewUserAccountRepository creates a new UserAccountRepository.
func NewUserAccountRepository(db *sqlx.DB) *UserAccountRepository {
	return &UserAccountRepository{db: db}
}

// GetByID finds an account by numeric id.
func (r *UserAccountRepository) GetByID(ctx context.Context, id int) (*models.UserAccount, error) {
	var u models.UserAccount
	err := r.db.GetContext(ctx, &u, `SELECT `+userAccountColumns+` FROM user_accounts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrAccountNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail finds an account by email, case-insensitively.
func (r *UserAccountRepository) GetByEmail(ctx context.Context, email string) (*models.UserAccount, error) {
	var u models.UserAccount
	err := r.db.GetContext(ctx, &u, `SELECT `+userAccountColumns+` FROM user_accounts WHERE LOWER(email) = LOWER($1)`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrAccountNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new account.
func (r *UserAccountRepository) Create(ctx context.Context, u *models.UserAccount) error {
	query := `
		INSERT INTO user_accounts (email, password_hash, is_active, is_admin)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, u.Email, u.PasswordHash, u.IsActive, u.IsAdmin).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return utils.ErrAccountExists
	}
	return err
}

// UpdateLastLogin stamps a successful login.
func (r *UserAccountRepository) UpdateLastLogin(ctx context.Context, id int, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE user_accounts SET last_login = $1, updated_at = NOW() WHERE id = $2`, at, id)
	return err
}

// ChangeList returns the page of accounts selected by q under descriptor d.
func (r *UserAccountRepository) ChangeList(ctx context.Context, d admin.Descriptor, q ChangeListQuery) (*ChangeListPage, error) {
	plan, err := planChangeList(models.UserAccountFields, d, q)
	if err != nil {
		return nil, err
	}

	var total int
	if err := r.db.GetContext(ctx, &total, plan.countQuery(models.UserAccountTable), plan.args...); err != nil {
		return nil, err
	}

	page, limit, offset, showAll := pageWindow(d, q, total)
	listQuery, args := plan.listQuery(models.UserAccountTable, userAccountColumns, limit, offset)

	accounts := []models.UserAccount{}
	if err := r.db.SelectContext(ctx, &accounts, listQuery, args...); err != nil {
		return nil, err
	}

	if showAll {
		limit = total
	}
	return &ChangeListPage{
		Accounts:   accounts,
		TotalItems: total,
		Page:       page,
		Limit:      limit,
		ShowAll:    showAll,
	}, nil
}

// ApplyEdits writes every row edit in one transaction. Column names must be
// known user account fields; anything else aborts the whole batch.
func (r *UserAccountRepository) ApplyEdits(ctx context.Context, edits []RowEdit) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range edits {
		query, args, err := buildRowUpdate(e)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update account %d: %w", e.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("account %d: %w", e.ID, utils.ErrAccountNotFound)
		}
	}

	return tx.Commit()
}

// buildRowUpdate renders an UPDATE for e with columns in a stable order.
func buildRowUpdate(e RowEdit) (string, []interface{}, error) {
	if len(e.Values) == 0 {
		return "", nil, fmt.Errorf("account %d: no values to update", e.ID)
	}
	cols := sortedKeys(e.Values)
	query := "UPDATE user_accounts SET "
	args := make([]interface{}, 0, len(cols)+1)
	for i, col := range cols {
		if _, ok := models.UserAccountFields[col]; !ok {
			return "", nil, fmt.Errorf("%w: %s", utils.ErrFieldNotEditable, col)
		}
		query += fmt.Sprintf("%s = $%d, ", col, i+1)
		args = append(args, e.Values[col])
	}
	query += fmt.Sprintf("updated_at = NOW() WHERE id = $%d", len(cols)+1)
	args = append(args, e.ID)
	return query, args, nil
}
