package services

import "errors"

// ErrValidation marks a malformed request rejected before any runner call.
// No side effects have occurred when it is returned.
var ErrValidation = errors.New("validation failed")

// ErrConflict marks a request that would violate a uniqueness constraint.
var ErrConflict = errors.New("conflict")

// ErrBadCredentials is returned by Authenticate for any credential failure,
// without revealing whether the username exists.
var ErrBadCredentials = errors.New("invalid credentials")
