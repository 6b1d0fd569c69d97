package cli_test

import (
	"io"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"github.com/theMK2k/update-db/kit/cli"
	"go.uber.org/zap/zapcore"
)

type flags struct {
	scriptsDir string
	commit     bool
	timeout    time.Duration
	tags       []string
	workers    int
	level      zapcore.Level
}

func newProgram(f *flags) *cli.Program {
	return &cli.Program{
		Name: "update-db",
		Run:  func() error { return nil },
		Opts: []cli.Opt{
			{DestP: &f.scriptsDir, Flag: "scripts-dir", Default: "sql", Desc: "script directory"},
			{DestP: &f.commit, Flag: "commit", Short: 'c', Default: false, Desc: "commit the run"},
			{DestP: &f.timeout, Flag: "timeout", Default: time.Minute, Desc: "run timeout"},
			{DestP: &f.tags, Flag: "tags", Default: []string{"a"}, Desc: "tags"},
			{DestP: &f.workers, Flag: "workers", Default: 4, Desc: "workers"},
			{DestP: &f.level, Flag: "log-level", Default: zapcore.InfoLevel, Desc: "log level"},
		},
	}
}

func TestNewCommandDefaults(t *testing.T) {
	var f flags
	cmd, err := cli.NewCommand(viper.New(), newProgram(&f))
	require.NoError(t, err)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	require.Equal(t, "sql", f.scriptsDir)
	require.False(t, f.commit)
	require.Equal(t, time.Minute, f.timeout)
	require.Equal(t, []string{"a"}, f.tags)
	require.Equal(t, 4, f.workers)
	require.Equal(t, zapcore.InfoLevel, f.level)
}

func TestNewCommandFlags(t *testing.T) {
	var f flags
	cmd, err := cli.NewCommand(viper.New(), newProgram(&f))
	require.NoError(t, err)
	cmd.SetArgs([]string{
		"--scripts-dir", "migrations",
		"-c",
		"--timeout", "30s",
		"--tags", "x,y",
		"--workers", "8",
		"--log-level", "debug",
	})
	require.NoError(t, cmd.Execute())

	require.Equal(t, "migrations", f.scriptsDir)
	require.True(t, f.commit)
	require.Equal(t, 30*time.Second, f.timeout)
	require.Equal(t, []string{"x", "y"}, f.tags)
	require.Equal(t, 8, f.workers)
	require.Equal(t, zapcore.DebugLevel, f.level)
}

func TestNewCommandEnv(t *testing.T) {
	t.Setenv("UPDATE_DB_SCRIPTS_DIR", "from-env")
	t.Setenv("UPDATE_DB_COMMIT", "true")
	t.Setenv("UPDATE_DB_LOG_LEVEL", "warn")

	var f flags
	cmd, err := cli.NewCommand(viper.New(), newProgram(&f))
	require.NoError(t, err)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	require.Equal(t, "from-env", f.scriptsDir)
	require.True(t, f.commit)
	require.Equal(t, zapcore.WarnLevel, f.level)
}

func TestNewCommandFlagBeatsEnv(t *testing.T) {
	t.Setenv("UPDATE_DB_SCRIPTS_DIR", "from-env")

	var f flags
	cmd, err := cli.NewCommand(viper.New(), newProgram(&f))
	require.NoError(t, err)
	cmd.SetArgs([]string{"--scripts-dir", "from-flag"})
	require.NoError(t, cmd.Execute())

	require.Equal(t, "from-flag", f.scriptsDir)
}

func TestNewCommandRejectsBadLevel(t *testing.T) {
	var f flags
	cmd, err := cli.NewCommand(viper.New(), newProgram(&f))
	require.NoError(t, err)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--log-level", "loud"})
	require.Error(t, cmd.Execute())
}

func TestBindOptionsUnknownType(t *testing.T) {
	var ratio float64
	err := cli.BindOptions(viper.New(), &cobra.Command{}, []cli.Opt{
		{DestP: &ratio, Flag: "ratio", Desc: "unsupported"},
	})
	require.Error(t, err)
}
