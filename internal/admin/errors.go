package admin

import (
	"errors"
	"fmt"

	"github.com/frigidsec/ctfadmin/internal/store"
)

// Every error returned by an operation ends the run with exit code 1. Store
// failures come through as *store.Error.
var (
	ErrInvalidFlag  = errors.New("flag does not match the required format")
	ErrConflict     = errors.New("challenge already exists")
	ErrNotFound     = errors.New("challenge not found")
	ErrInvalidInput = errors.New("invalid input")
)

// ConflictError carries the record that blocked an add.
type ConflictError struct {
	Existing store.Challenge
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v: name %q, flag hash %s", ErrConflict, e.Existing.Name, e.Existing.FlagHash)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ExitCode maps an operation result to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
