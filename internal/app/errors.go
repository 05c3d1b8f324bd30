package app

import (
	"fmt"

	"github.com/joacominatel/minalite/internal/database"
)

// ErrConnection represents a failure to open or access a database file.
type ErrConnection struct {
	Path  string
	Cause error
}

func (e *ErrConnection) Error() string {
	return fmt.Sprintf("connection error: %v", e.Cause)
}

func (e *ErrConnection) Unwrap() error {
	return e.Cause
}

// ErrQuery represents a statement the engine rejected or failed.
type ErrQuery struct {
	Query string
	Cause error
}

func (e *ErrQuery) Error() string {
	return fmt.Sprintf("query error: %v", e.Cause)
}

func (e *ErrQuery) Unwrap() error {
	return e.Cause
}

// ErrTableNotFound is returned when schema lookup finds no matching table.
type ErrTableNotFound struct {
	Table string
}

func (e *ErrTableNotFound) Error() string {
	return fmt.Sprintf("table not found: %s", e.Table)
}

// Is matches database.ErrTableNotFound.
func (e *ErrTableNotFound) Is(target error) bool {
	return target == database.ErrTableNotFound
}

// ErrConfig represents a configuration error.
type ErrConfig struct {
	Cause error
}

func (e *ErrConfig) Error() string {
	return fmt.Sprintf("config error: %v", e.Cause)
}

func (e *ErrConfig) Unwrap() error {
	return e.Cause
}
