// Command update-db applies SQL change scripts to a PostgreSQL
// database and tracks what ran in a ledger table inside the database
// itself. Runs are dry by default; --commit makes them stick.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	updatedb "github.com/theMK2k/update-db"
	"github.com/theMK2k/update-db/kit/cli"
	"github.com/theMK2k/update-db/ledger"
	"github.com/theMK2k/update-db/logger"
	"github.com/theMK2k/update-db/manifest"
	"github.com/theMK2k/update-db/migrate"
	"github.com/theMK2k/update-db/pg"
	"github.com/theMK2k/update-db/scripts"
)

// Build information, set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type options struct {
	scriptsDir  string
	manifest    string
	dsn         string
	commit      bool
	ledgerTable string
	logLevel    zapcore.Level
	logFormat   string
	showVersion bool
}

func main() {
	opts := &options{}
	prog := &cli.Program{
		Name: "update-db",
		Run:  func() error { return run(opts) },
		Opts: []cli.Opt{
			{DestP: &opts.scriptsDir, Flag: "scripts-dir", Default: "sql", Desc: "directory holding the change scripts"},
			{DestP: &opts.manifest, Flag: "manifest", Default: "", Desc: "manifest path (default <scripts-dir>/update-db.toml)"},
			{DestP: &opts.dsn, Flag: "dsn", Default: "", Desc: "postgres DSN or URL; empty uses the PG* environment"},
			{DestP: &opts.commit, Flag: "commit", Default: false, Desc: "commit the run instead of rolling it back"},
			{DestP: &opts.ledgerTable, Flag: "ledger-table", Default: ledger.DefaultTable, Desc: "name of the ledger table"},
			{DestP: &opts.logLevel, Flag: "log-level", Default: zapcore.InfoLevel, Desc: "supported log levels are debug, info, warn and error"},
			{DestP: &opts.logFormat, Flag: "log-format", Default: "auto", Desc: "log format: auto, console, logfmt, json"},
			{DestP: &opts.showVersion, Flag: "version", Default: false, Desc: "print version and exit"},
		},
	}

	cmd, err := cli.NewCommand(viper.New(), prog)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(opts *options) (err error) {
	if opts.showVersion {
		info := updatedb.BuildInfo{Version: version, Commit: commit, Date: date}
		fmt.Printf("update-db %s (git: %s) build_date: %s\n", info.Version, info.Commit, info.Date)
		return nil
	}

	log, err := logger.Config{Format: opts.logFormat, Level: opts.logLevel}.New(os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer log.Sync()

	log.Info("Starting update-db",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("build_date", date))

	store, err := scripts.NewDirStore(opts.scriptsDir)
	if err != nil {
		log.Error("Invalid configuration", zap.Error(err))
		return err
	}

	manifestPath := opts.manifest
	if manifestPath == "" {
		manifestPath = filepath.Join(opts.scriptsDir, "update-db.toml")
	}
	man, err := manifest.Load(manifestPath)
	if err != nil {
		log.Error("Invalid configuration", zap.Error(err))
		return err
	}

	mode := migrate.DryRun
	if opts.commit {
		mode = migrate.Commit
	} else {
		log.Info("Dry run; pass --commit to persist changes")
	}

	ctx := context.Background()
	pgStore, err := pg.NewStore(ctx, opts.dsn, log)
	if err != nil {
		log.Error("Connection failed", zap.Error(err))
		return err
	}
	defer func() {
		err = multierr.Append(err, pgStore.Close())
	}()

	m := migrate.NewMigrator(store, man, ledger.New(opts.ledgerTable), pgStore.DB, log)
	if _, err = m.Run(ctx, mode); err != nil {
		var ee *updatedb.ExecError
		if errors.As(err, &ee) {
			log.Error("Change script failed",
				zap.String("script_name", ee.Script),
				zap.String("statement", ee.Stmt),
				zap.Error(ee.Err))
		} else {
			log.Error("Run aborted", zap.Error(err))
		}
		return err
	}

	return nil
}
