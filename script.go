package updatedb

import (
	"crypto/sha256"
	"encoding/hex"
)

// ChangeScript is a single SQL change script, identified by the name of
// the file it was read from. Content is the raw file text and is never
// modified once read; macro expansion produces a new string.
type ChangeScript struct {
	Name    string
	Content string
}

// ContentHash returns the lowercase hex SHA-256 digest of body.
//
// The digest recorded in the ledger is computed over the expanded
// script body, so a change to injected boilerplate re-applies every
// script that uses it.
func ContentHash(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// ScriptStore provides access to the change-script directory.
type ScriptStore interface {
	// List returns the names of all scripts in the store, sorted
	// lexically. The order is used for reporting only; application
	// order comes from the manifest.
	List() ([]string, error)

	// Read returns the script with the given name. It returns an error
	// wrapping ErrScriptMissing if no such script exists.
	Read(name string) (*ChangeScript, error)
}
