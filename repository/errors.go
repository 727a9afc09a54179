package repository

import "errors"

// ErrNotFound is returned by mutations that target a row which does not exist
// or is not owned by the caller.
var ErrNotFound = errors.New("record not found")
