package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidToken       = errors.New("INVALID_TOKEN")
	ErrInvalidCredentials = errors.New("INVALID_CREDENTIALS")
	ErrAccountInactive    = errors.New("ACCOUNT_INACTIVE")
	ErrNotAdmin           = errors.New("NOT_ADMIN")
	ErrTooManyAttempts    = errors.New("TOO_MANY_ATTEMPTS")
	ErrAccountNotFound    = errors.New("ACCOUNT_NOT_FOUND")
	ErrAccountExists      = errors.New("ACCOUNT_EXISTS")
	ErrFieldNotEditable   = errors.New("FIELD_NOT_EDITABLE")
	ErrInvalidFieldValue  = errors.New("INVALID_FIELD_VALUE")
	ErrInvalidFilter      = errors.New("INVALID_FILTER")
	ErrInvalidOrdering    = errors.New("INVALID_ORDERING")
)
