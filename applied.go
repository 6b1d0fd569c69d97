package updatedb

import "time"

// AppliedRecord is one row of the ledger table. There is at most one
// record per script name. Records are updated in place when a script's
// content changes and are never deleted by the tool.
type AppliedRecord struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	SHA256    string    `db:"sha256"`
	CreatedAt time.Time `db:"created_at"`
	CreatedBy string    `db:"created_by"`
	UpdatedAt time.Time `db:"updated_at"`
	UpdatedBy string    `db:"updated_by"`
}

// Decision says what the engine does with one manifest entry.
type Decision int

const (
	// Skip leaves the database untouched. The script was applied
	// before and its content has not changed.
	Skip Decision = iota

	// Insert executes the script and records it for the first time.
	Insert

	// Update executes the script again and overwrites the recorded
	// hash. The script was applied before but its content changed.
	Update
)

// String returns the lowercase name of the decision.
func (d Decision) String() string {
	switch d {
	case Skip:
		return "skip"
	case Insert:
		return "insert"
	case Update:
		return "update"
	default:
		return "unknown"
	}
}

// Decide compares the hash of a script body against the ledger record
// for the same name. A nil record means the script has never been
// applied.
func Decide(sum string, rec *AppliedRecord) Decision {
	switch {
	case rec == nil:
		return Insert
	case rec.SHA256 == sum:
		return Skip
	default:
		return Update
	}
}
