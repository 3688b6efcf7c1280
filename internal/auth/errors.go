package auth

import "errors"

var (
	ErrMissingUsername    = errors.New("missing username")
	ErrMissingPassword    = errors.New("missing password")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountQuota       = errors.New("account quota reached")
	ErrSessionQuota       = errors.New("session quota reached")

	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrSessionNotFound = errors.New("session not found")
)
