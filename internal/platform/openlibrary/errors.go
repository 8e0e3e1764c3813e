package openlibrary

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("openlibrary: not found")
	ErrUnavailable = errors.New("openlibrary: unavailable")
)

// Error wraps a failure with the operation that produced it.
type Error struct {
	Op  string // search, work, editions, author
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("openlibrary %s [%s]: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("openlibrary %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
