// Package core defines the database contracts and the session-facing
// request logic around them.
package core

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrNotLoggedIn          = errors.New("not logged in")
	ErrAlreadyAuthenticated = errors.New("already logged in")
	ErrUnauthorized         = errors.New("unauthorized")
)
