package service

import (
	"errors"
	"fmt"
)

// Kind classifies every error returned by the cache, the remote stores and
// the synchronizer. Kind implements error so the constants can be used as
// errors.Is targets:
//
//	if errors.Is(err, service.ErrListNotFound) { ... }
type Kind int

const (
	ErrListNotFound Kind = iota + 1
	ErrItemNotFound
	ErrInvalidInput
	ErrConfig
	ErrStorage
	ErrRemote
	ErrSerialization
)

func (k Kind) Error() string {
	switch k {
	case ErrListNotFound:
		return "list not found"
	case ErrItemNotFound:
		return "item not found"
	case ErrInvalidInput:
		return "invalid input"
	case ErrConfig:
		return "config error"
	case ErrStorage:
		return "storage error"
	case ErrRemote:
		return "remote error"
	case ErrSerialization:
		return "serialization error"
	default:
		return "unknown error"
	}
}

// Error is the concrete error type. Detail is always a plain string so that
// driver and SDK error types never leak to callers.
type Error struct {
	Kind   Kind
	List   string
	Index  int
	Detail string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrListNotFound:
		return fmt.Sprintf("list not found: %s", e.List)
	case ErrItemNotFound:
		return fmt.Sprintf("item %d not found in list %q", e.Index, e.List)
	default:
		if e.Detail == "" {
			return e.Kind.Error()
		}
		return e.Kind.Error() + ": " + e.Detail
	}
}

// Is matches a Kind target.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the Kind of err, or 0 if err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// ListNotFound reports that no list is named name.
func ListNotFound(name string) error {
	return &Error{Kind: ErrListNotFound, List: name}
}

// ItemNotFound reports that list has no item at the 1-based index.
func ItemNotFound(list string, index int) error {
	return &Error{Kind: ErrItemNotFound, List: list, Index: index}
}

// InvalidInput rejects a caller-supplied value.
func InvalidInput(reason string) error {
	return &Error{Kind: ErrInvalidInput, Detail: reason}
}

// ConfigError reports missing or invalid configuration, including credentials.
func ConfigError(reason string) error {
	return &Error{Kind: ErrConfig, Detail: reason}
}

// StorageError reports a local file read or write failure.
func StorageError(detail string) error {
	return &Error{Kind: ErrStorage, Detail: detail}
}

// RemoteError reports a failure of the remote store or its transport.
func RemoteError(detail string) error {
	return &Error{Kind: ErrRemote, Detail: detail}
}

// SerializationError reports data that cannot be encoded or decoded.
func SerializationError(detail string) error {
	return &Error{Kind: ErrSerialization, Detail: detail}
}

// Remotef wraps err into a RemoteError, flattening it to text. Errors that
// already carry a Kind are returned unchanged.
func Remotef(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != 0 {
		return err
	}
	return RemoteError(fmt.Sprintf(format, args...) + ": " + err.Error())
}
