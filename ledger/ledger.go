// Package ledger tracks applied change scripts in a table inside the
// target database itself.
package ledger

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	updatedb "github.com/theMK2k/update-db"
)

// DefaultTable is the ledger table name used when no override is
// given.
const DefaultTable = "_update_db"

// Ledger reads and writes applied-script records. Ensure and Applied
// run on the plain connection; Insert and Update are called with the
// run transaction so ledger writes commit and roll back together with
// the scripts they describe.
type Ledger struct {
	table string
}

// New returns a ledger over the named table. An empty name selects
// DefaultTable.
func New(table string) *Ledger {
	if table == "" {
		table = DefaultTable
	}
	return &Ledger{table: table}
}

// Table returns the unquoted ledger table name.
func (l *Ledger) Table() string { return l.table }

// Ensure creates the ledger table if needed and locks it down. Every
// statement is idempotent, so running it on each start is safe.
func (l *Ledger) Ensure(ctx context.Context, db sqlx.ExecerContext) error {
	table := pq.QuoteIdentifier(l.table)
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name text NOT NULL UNIQUE,
	sha256 text NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	created_by text NOT NULL DEFAULT current_user,
	updated_at timestamptz NOT NULL DEFAULT now(),
	updated_by text NOT NULL DEFAULT current_user
)`, table),
		// Columns added after the first release. A row predating the
		// hash column gets an empty digest, which never matches a real
		// one and so forces a re-apply of that script.
		fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS sha256 text NOT NULL DEFAULT ''`, table),
		fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS created_at timestamptz NOT NULL DEFAULT now()`, table),
		fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS created_by text NOT NULL DEFAULT current_user`, table),
		fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS updated_at timestamptz NOT NULL DEFAULT now()`, table),
		fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS updated_by text NOT NULL DEFAULT current_user`, table),
		fmt.Sprintf(`REVOKE ALL ON TABLE %s FROM PUBLIC`, table),
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring ledger table %s: %w", l.table, err)
		}
	}
	return nil
}

// Applied returns every ledger record keyed by script name.
func (l *Ledger) Applied(ctx context.Context, db sqlx.QueryerContext) (map[string]updatedb.AppliedRecord, error) {
	q := fmt.Sprintf(`SELECT id, name, sha256, created_at, created_by, updated_at, updated_by FROM %s`,
		pq.QuoteIdentifier(l.table))

	var recs []updatedb.AppliedRecord
	if err := sqlx.SelectContext(ctx, db, &recs, q); err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}

	applied := make(map[string]updatedb.AppliedRecord, len(recs))
	for _, r := range recs {
		applied[r.Name] = r
	}
	return applied, nil
}

// Insert records a script applied for the first time. Audit columns
// fill in from their defaults.
func (l *Ledger) Insert(ctx context.Context, tx sqlx.ExecerContext, name, sha string) error {
	q := fmt.Sprintf(`INSERT INTO %s (name, sha256) VALUES ($1, $2)`, pq.QuoteIdentifier(l.table))
	if _, err := tx.ExecContext(ctx, q, name, sha); err != nil {
		return fmt.Errorf("recording %q: %w", name, err)
	}
	return nil
}

// Update overwrites the recorded hash after re-applying a changed
// script. created_at and created_by keep their original values.
func (l *Ledger) Update(ctx context.Context, tx sqlx.ExecerContext, name, sha string) error {
	q := fmt.Sprintf(`UPDATE %s SET sha256 = $1, updated_at = now(), updated_by = current_user WHERE name = $2`,
		pq.QuoteIdentifier(l.table))
	res, err := tx.ExecContext(ctx, q, sha, name)
	if err != nil {
		return fmt.Errorf("updating record for %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating record for %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("updating record for %q: no ledger row", name)
	}
	return nil
}
