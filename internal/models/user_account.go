package models

import "time"

// UserAccount is a login account managed from the back office.
// Email is the unique identifier.
type UserAccount struct {
	ID           int        `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	IsAdmin      bool       `db:"is_admin" json:"isAdmin"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// FieldKind tells the admin layer how to parse and compare a column value.
type FieldKind string

const (
	FieldString FieldKind = "string"
	FieldBool   FieldKind = "bool"
	FieldTime   FieldKind = "time"
)

// UserAccountTable is the backing table name.
const UserAccountTable = "user_accounts"

// UserAccountFields maps the admin-visible column names to their kind.
// password_hash is never exposed.
var UserAccountFields = map[string]FieldKind{
	"email":      FieldString,
	"is_active":  FieldBool,
	"is_admin":   FieldBool,
	"last_login": FieldTime,
	"created_at": FieldTime,
	"updated_at": FieldTime,
}
