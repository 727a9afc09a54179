package library

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when no current user can be resolved.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidInput is returned for missing names, tracks or ids.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPlaylistNotFound is returned for operations on an unknown playlist.
	ErrPlaylistNotFound = errors.New("playlist not found")
)

// RemoteError wraps a failed call to the remote data service.
type RemoteError struct {
	Op  Op
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: remote failure: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }
