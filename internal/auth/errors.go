package auth

import "errors"

var (
	ErrNotFound     = errors.New("auth: not found")
	ErrInvalidInput = errors.New("auth: invalid input")
	ErrConflict     = errors.New("auth: resource conflict")
	ErrUnauthorized = errors.New("auth: unauthorized")

	// ErrNoSession indicates the request carried no usable session cookie.
	ErrNoSession = errors.New("auth: no session")

	// Password reset lifecycle. Each terminal rejection is distinct so the
	// HTTP layer can surface a stable machine-readable code.
	ErrMissingFields     = errors.New("auth: missing fields")
	ErrPasswordTooShort  = errors.New("auth: password too short")
	ErrPasswordTooWeak   = errors.New("auth: password too weak")
	ErrInvalidToken      = errors.New("auth: invalid token")
	ErrTokenExpired      = errors.New("auth: token expired")
	ErrTokenUsed         = errors.New("auth: token already used")
	ErrTokenHashMismatch = errors.New("auth: token hash mismatch")
	ErrUserNotFound      = errors.New("auth: user not found")
	ErrEmailSendFailed   = errors.New("auth: email send failed")
)
