package admin

import "github.com/GTDGit/accounts_admin/internal/models"

// UserAccountEntityName is the registry key for user accounts.
const UserAccountEntityName = "user-accounts"

// UserAccountEntity describes the user_accounts table to the registry.
func UserAccountEntity() Entity {
	return Entity{
		Name:   UserAccountEntityName,
		Table:  models.UserAccountTable,
		Fields: models.UserAccountFields,
	}
}

// UserAccountDescriptor returns the back-office declaration for user accounts.
// is_admin is listed as both read-only and list-editable; Validate reports it.
func UserAccountDescriptor() Descriptor {
	return Descriptor{
		ListDisplay:       []string{"email", "is_active", "is_admin", "last_login"},
		ListFilter:        []string{"is_active", "is_admin"},
		SearchFields:      []string{"email"},
		Ordering:          []string{"email"},
		ReadonlyFields:    []string{"email", "is_active", "is_admin"},
		Fields:            []string{"email", "is_active", "is_admin"},
		ListPerPage:       10,
		ListMaxShowAll:    100,
		ListEditable:      []string{"last_login", "is_admin"},
		ListDisplayLinks:  []string{"email"},
		ListSelectRelated: []string{},
	}
}
