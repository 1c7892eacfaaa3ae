// Package exitcode defines exit codes for the CLI.
package exitcode

import "todo/internal/service"

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, not found, invalid input).
	UserError = 1

	// AuthError indicates an auth/config error.
	AuthError = 2

	// BackendError indicates a remote store or network error.
	BackendError = 3

	// StorageError indicates the local cache could not be read or written.
	StorageError = 4
)

// For maps an error to its exit code. Errors without a kind are treated
// as backend errors.
func For(err error) int {
	if err == nil {
		return Success
	}
	switch service.KindOf(err) {
	case service.ErrListNotFound, service.ErrItemNotFound, service.ErrInvalidInput:
		return UserError
	case service.ErrConfig:
		return AuthError
	case service.ErrStorage, service.ErrSerialization:
		return StorageError
	default:
		return BackendError
	}
}
