package domain

import "errors"

// Expected failures. Callers branch on these with errors.Is; anything else
// reaching the HTTP layer is treated as an internal error.
var (
	ErrDuplicateEmail     = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingToken       = errors.New("no refresh token in cookies")
	ErrTokenNotRecognized = errors.New("refresh token not present or not matched")
	ErrTokenMismatch      = errors.New("refresh token is invalid for this user")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnauthorized       = errors.New("not authorized")
	ErrForbidden          = errors.New("access forbidden")
	ErrCannotBlockAdmin   = errors.New("admins can't be blocked")
	ErrUserNotFound       = errors.New("user not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrInvalidID          = errors.New("invalid id")
	ErrInvalidTitle       = errors.New("title must contain at least one letter or digit")
)

// ErrPersistence marks a failure of the document store. Repositories wrap
// driver errors with it so the cause stays inspectable.
var ErrPersistence = errors.New("persistence error")
