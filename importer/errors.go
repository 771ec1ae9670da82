package importer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicate is returned by a Target when the store rejects a record
	// because its business key is already taken.
	ErrDuplicate = errors.New("record already exists")

	ErrNotArray      = errors.New("expected an array of objects")
	ErrNotObject     = errors.New("array element is not an object")
	ErrMalformed     = errors.New("malformed input")
	ErrEmptyInput    = errors.New("input is empty")
	ErrConsumed      = errors.New("record sequence already consumed")
	ErrUnknownFormat = errors.New("unknown format")
)

// FormatError reports input that cannot be turned into records.
type FormatError struct {
	Format Format
	Line   int
	Err    error
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s input, line %d: %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("%s input: %v", e.Format, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ValidationError names the required fields a record is missing.
type ValidationError struct {
	Entity  string
	Line    int
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s row %d: missing required fields: %s", e.Entity, e.Line, strings.Join(e.Missing, ", "))
}

// StoreError wraps a failed lookup or write against the store.
type StoreError struct {
	Op   string
	Line int
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s failed at row %d: %v", e.Op, e.Line, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
