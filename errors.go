package updatedb

import (
	"errors"
	"fmt"
)

var (
	// ErrManifestInvalid is returned when the manifest cannot be parsed
	// or contains unusable entries.
	ErrManifestInvalid = errors.New("manifest invalid")

	// ErrScriptMissing is returned when a manifest entry names a script
	// that does not exist in the script directory.
	ErrScriptMissing = errors.New("change script missing")
)

// ExecError is returned when executing a change script fails. It
// carries the failing script and the statement text handed to the
// driver, so callers never have to recover them from shared state.
type ExecError struct {
	Script string
	Stmt   string
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("executing change script %q: %v", e.Script, e.Err)
}

// Unwrap returns the underlying driver error.
func (e *ExecError) Unwrap() error { return e.Err }
