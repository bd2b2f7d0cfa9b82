package storage

import "errors"

var (
	ErrAccountExists         = errors.New("account already exists")
	ErrAccountNotFound       = errors.New("account not found")
	ErrRecoveryTokenNotFound = errors.New("recovery token not found")
	ErrRecoveryTokenUsed     = errors.New("recovery token already used")
)
