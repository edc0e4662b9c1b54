package services

import (
	"errors"
	"fmt"
	"strings"
)

var errNoCopiesRemoved = errors.New("no copies removed")

// ValidationError collects every missing or mistyped input field; the whole
// record is checked before it is reported.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// DuplicateError means the derived key already exists on some shard.
type DuplicateError struct {
	CustomID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("listing with custom_id %s already exists", e.CustomID)
}

// AuthorizationError covers both "not the creator" and "record not found on
// the primary": the caller learns only that the mutation is not permitted.
type AuthorizationError struct {
	CustomID string
	Username string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %s may not modify listing %s", e.Username, e.CustomID)
}

// ConversionError means an update value could not be coerced to the field's
// declared type. Detected before any shard is touched.
type ConversionError struct {
	Field string
	Value interface{}
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert value %v for field %q", e.Value, e.Field)
}

// StorageError wraps a failure of a shard call.
type StorageError struct {
	Shard string
	Op    string
	Err   error
}

func (e *StorageError) Error() string {
	msg := fmt.Sprintf("storage %s failed", e.Op)
	if e.Shard != "" {
		msg += " on shard " + e.Shard
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
