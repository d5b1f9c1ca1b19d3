package services

import "errors"

var (
	ErrEntityNotFound      = errors.New("entity not found")
	ErrEntityAlreadyExists = errors.New("entity already exists")
	ErrAccessDenied        = errors.New("access denied")
	ErrImmutableAccountID  = errors.New("transaction account cannot change")
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	ErrInvalidAccountKind  = errors.New("invalid account kind")
)
