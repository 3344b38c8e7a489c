// ABOUTME: Error taxonomy for the entity store
// ABOUTME: Sentinels for errors.Is plus typed errors carrying kind, id and storage op
package db

import (
	"errors"
	"fmt"

	"github.com/harperreed/crmd/models"
)

var (
	// ErrNotFound is returned when an update, delete or conversion names a missing id.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedVerb is returned when a kind does not accept a verb.
	ErrUnsupportedVerb = errors.New("unsupported verb")

	// ErrStorage wraps every durable read or write failure.
	ErrStorage = errors.New("storage failure")

	// ErrMalformedInput is returned when a request body cannot be decoded or validated.
	ErrMalformedInput = errors.New("malformed input")

	// ErrUnknownKind is returned for entity names outside the closed set.
	ErrUnknownKind = models.ErrUnknownKind
)

// NotFoundError names the kind and id that could not be located.
type NotFoundError struct {
	Kind models.Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StorageError records which backend operation failed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func unsupported(kind models.Kind, verb models.Verb) error {
	return fmt.Errorf("%w: %s on %s", ErrUnsupportedVerb, verb, kind)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, fmt.Sprintf(format, args...))
}
