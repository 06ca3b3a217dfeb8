package service

import (
	"errors"

	"github.com/Skotchmaster/taskboard/internal/tokens"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("user already exist")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrStaleToken         = errors.New("refresh token is no longer valid")

	// ErrNotFoundOrUnauthorized covers both a missing resource and one owned
	// by someone else. Callers must not be able to tell the two apart.
	ErrNotFoundOrUnauthorized = errors.New("not found or unauthorized")

	ErrInvalidToken     = tokens.ErrInvalidToken
	ErrInvalidTokenType = tokens.ErrInvalidTokenType
)
