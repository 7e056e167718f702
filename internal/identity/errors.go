package identity

import "errors"

// Provider errors. Callers map these onto user facing messages.
var (
	ErrEmailAlreadyInUse = errors.New("identity: email already in use")
	ErrWeakPassword      = errors.New("identity: weak password")
	ErrInvalidEmail      = errors.New("identity: invalid email")
	ErrUserNotFound      = errors.New("identity: user not found")
	ErrWrongPassword     = errors.New("identity: wrong password")
	ErrTooManyRequests   = errors.New("identity: too many requests")
	ErrInvalidActionCode = errors.New("identity: invalid action code")
)
