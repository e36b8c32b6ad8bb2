package core

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is returned when an uploaded file is not well-formed CSV.
	// The concrete error is a *ParseError listing the offending rows.
	ErrParse = errors.New("invalid csv")

	// ErrEmptyBatch is returned when a file parsed but no row passed the
	// dataset's validity check.
	ErrEmptyBatch = errors.New("no valid data rows")

	// ErrNotFound is returned by update and delete for an unknown identifier.
	ErrNotFound = errors.New("record not found")

	// ErrPersistence marks a failed write of the audit log. It is logged,
	// never returned to callers of mutating operations.
	ErrPersistence = errors.New("audit log persistence failed")

	// ErrUnknownDataset is returned for a dataset key that is not registered.
	ErrUnknownDataset = errors.New("unknown dataset")

	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidCredentials is returned by a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ParseError carries the row-level messages of a failed CSV parse.
type ParseError struct {
	FileName string
	Rows     []string
}

func (e *ParseError) Error() string {
	switch len(e.Rows) {
	case 0:
		return ErrParse.Error()
	case 1:
		return fmt.Sprintf("%s: %s", ErrParse, e.Rows[0])
	default:
		return fmt.Sprintf("%s: %s (and %d more)", ErrParse, e.Rows[0], len(e.Rows)-1)
	}
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}
