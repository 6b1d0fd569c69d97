// Package migrate drives a single run: reconcile the manifest against
// the ledger, apply what changed inside one transaction, and commit or
// roll back depending on mode.
package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	updatedb "github.com/theMK2k/update-db"
	"github.com/theMK2k/update-db/ledger"
	"github.com/theMK2k/update-db/lint"
	"github.com/theMK2k/update-db/macro"
	"github.com/theMK2k/update-db/manifest"
)

// Mode selects what happens to the transaction after all scripts ran.
type Mode int

const (
	// DryRun executes every script and rolls the transaction back at
	// the end. The default: a full rehearsal with nothing persisted.
	DryRun Mode = iota

	// Commit makes the run permanent.
	Commit
)

func (m Mode) String() string {
	if m == Commit {
		return "commit"
	}
	return "dry-run"
}

// Report summarizes a finished run.
type Report struct {
	RunID    string
	Mode     Mode
	Applied  int // scripts executed, first time or re-applied
	Skipped  int // scripts unchanged and left alone
	Warnings []updatedb.Warning
	Took     time.Duration
}

// Migrator applies a manifest to one database. A Migrator is good for
// a single Run at a time; the tool never runs concurrently.
type Migrator struct {
	store    updatedb.ScriptStore
	manifest *manifest.Manifest
	ledger   *ledger.Ledger
	db       *sqlx.DB
	log      *zap.Logger

	now func() time.Time
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithNow overrides the engine clock. Tests use it to pin timestamps.
func WithNow(now func() time.Time) Option {
	return func(m *Migrator) { m.now = now }
}

// NewMigrator assembles an engine from its collaborators.
func NewMigrator(store updatedb.ScriptStore, man *manifest.Manifest, led *ledger.Ledger, db *sqlx.DB, log *zap.Logger, opts ...Option) *Migrator {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Migrator{
		store:    store,
		manifest: man,
		ledger:   led,
		db:       db,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run reconciles and applies the manifest in order. Every manifest
// entry is read, expanded, hashed and compared against the ledger;
// changed or new scripts execute inside one transaction together with
// their ledger writes. Any failure rolls everything back and aborts.
// Consistency warnings are collected up front and reported only when
// the run did not abort.
func (m *Migrator) Run(ctx context.Context, mode Mode) (*Report, error) {
	start := m.now()
	runID := uuid.NewString()
	log := m.log.With(zap.String("run_id", runID), zap.Stringer("mode", mode))

	if err := m.ledger.Ensure(ctx, m.db); err != nil {
		return nil, err
	}

	applied, err := m.ledger.Applied(ctx, m.db)
	if err != nil {
		return nil, err
	}

	available, err := m.store.List()
	if err != nil {
		return nil, err
	}

	// A manifest entry without a file fails the run before anything
	// is applied.
	if err := m.manifest.Validate(available); err != nil {
		return nil, err
	}

	warnings := lint.Check(available, m.manifest)

	log.Info("Applying change scripts",
		zap.Int("script_count", len(m.manifest.Updates)),
		zap.Int("ledger_count", len(applied)))

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	report := &Report{RunID: runID, Mode: mode, Warnings: warnings}
	if err := m.apply(ctx, tx, log, applied, report); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("Rollback failed after error", zap.Error(rbErr))
		}
		return nil, err
	}

	switch mode {
	case Commit:
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("committing transaction: %w", err)
		}
	default:
		if err := tx.Rollback(); err != nil {
			return nil, fmt.Errorf("rolling back dry run: %w", err)
		}
	}

	for _, w := range warnings {
		log.Warn("Consistency warning",
			zap.String("script_name", w.Script),
			zap.String("reason", w.Reason))
	}

	report.Took = m.now().Sub(start)
	log.Info("Run finished",
		zap.Int("applied", report.Applied),
		zap.Int("skipped", report.Skipped),
		zap.Int("warning_count", len(report.Warnings)),
		zap.Duration("took", report.Took))

	return report, nil
}

func (m *Migrator) apply(ctx context.Context, tx *sqlx.Tx, log *zap.Logger, applied map[string]updatedb.AppliedRecord, report *Report) error {
	for _, name := range m.manifest.Updates {
		script, err := m.store.Read(name)
		if err != nil {
			return err
		}

		body := macro.Expand(script.Content)
		sum := updatedb.ContentHash(body)

		var rec *updatedb.AppliedRecord
		if r, ok := applied[name]; ok {
			rec = &r
		}
		decision := updatedb.Decide(sum, rec)

		log.Debug("Reconciled change script",
			zap.String("script_name", name),
			zap.Stringer("decision", decision))

		if decision == updatedb.Skip {
			report.Skipped++
			continue
		}

		if _, err := tx.ExecContext(ctx, body); err != nil {
			return &updatedb.ExecError{Script: name, Stmt: body, Err: err}
		}

		switch decision {
		case updatedb.Insert:
			err = m.ledger.Insert(ctx, tx, name, sum)
		case updatedb.Update:
			err = m.ledger.Update(ctx, tx, name, sum)
		}
		if err != nil {
			return err
		}

		// A later occurrence of the same name in this run sees the
		// fresh hash and skips.
		applied[name] = updatedb.AppliedRecord{Name: name, SHA256: sum}
		report.Applied++
	}
	return nil
}
