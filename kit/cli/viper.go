// Package cli wires cobra flags and viper environment lookup together
// so every option of a command can come from the command line or from
// an environment variable with the program's prefix.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Opt is a single command-line option.
type Opt struct {
	DestP   interface{} // pointer to the destination
	Flag    string
	Short   rune // optional shorthand letter
	Default interface{}
	Desc    string
}

// Program parses CLI options.
type Program struct {
	// Run is invoked by cobra on execute.
	Run func() error
	// Name is the name of the program in help usage and the env var prefix.
	Name string
	// Opts are the command line/env var options to the program.
	Opts []Opt
}

// NewCommand creates a new cobra command to be executed that respects
// env vars. The upper-case version of the program's name, dashes
// normalized to underscores, prefixes all environment variables.
func NewCommand(v *viper.Viper, p *Program) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:  p.Name,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return p.Run()
		},
	}

	v.SetEnvPrefix(strings.ToUpper(strings.ReplaceAll(p.Name, "-", "_")))
	v.AutomaticEnv()
	// This normalizes "-" to an underscore in env names.
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if err := BindOptions(v, cmd, p.Opts); err != nil {
		return nil, err
	}
	return cmd, nil
}

// BindOptions adds opts to the specified command and registers them
// with viper. Destinations fill in immediately from the environment or
// the default; parsing the command line later overrides them, so flags
// beat env vars beat defaults.
func BindOptions(v *viper.Viper, cmd *cobra.Command, opts []Opt) error {
	for _, o := range opts {
		flagSet := cmd.Flags()
		if o.Flag == "" {
			return fmt.Errorf("option %+v has no flag name", o)
		}
		hasShort := o.Short != 0

		switch destP := o.DestP.(type) {
		case *string:
			var d string
			if o.Default != nil {
				d = o.Default.(string)
			}
			if hasShort {
				flagSet.StringVarP(destP, o.Flag, string(o.Short), d, o.Desc)
			} else {
				flagSet.StringVar(destP, o.Flag, d, o.Desc)
			}
			if err := bindFlag(v, cmd, o.Flag); err != nil {
				return err
			}
			*destP = v.GetString(o.Flag)
		case *int:
			var d int
			if o.Default != nil {
				d = o.Default.(int)
			}
			if hasShort {
				flagSet.IntVarP(destP, o.Flag, string(o.Short), d, o.Desc)
			} else {
				flagSet.IntVar(destP, o.Flag, d, o.Desc)
			}
			if err := bindFlag(v, cmd, o.Flag); err != nil {
				return err
			}
			*destP = v.GetInt(o.Flag)
		case *bool:
			var d bool
			if o.Default != nil {
				d = o.Default.(bool)
			}
			if hasShort {
				flagSet.BoolVarP(destP, o.Flag, string(o.Short), d, o.Desc)
			} else {
				flagSet.BoolVar(destP, o.Flag, d, o.Desc)
			}
			if err := bindFlag(v, cmd, o.Flag); err != nil {
				return err
			}
			*destP = v.GetBool(o.Flag)
		case *time.Duration:
			var d time.Duration
			if o.Default != nil {
				d = o.Default.(time.Duration)
			}
			if hasShort {
				flagSet.DurationVarP(destP, o.Flag, string(o.Short), d, o.Desc)
			} else {
				flagSet.DurationVar(destP, o.Flag, d, o.Desc)
			}
			if err := bindFlag(v, cmd, o.Flag); err != nil {
				return err
			}
			*destP = v.GetDuration(o.Flag)
		case *[]string:
			var d []string
			if o.Default != nil {
				d = o.Default.([]string)
			}
			if hasShort {
				flagSet.StringSliceVarP(destP, o.Flag, string(o.Short), d, o.Desc)
			} else {
				flagSet.StringSliceVar(destP, o.Flag, d, o.Desc)
			}
			if err := bindFlag(v, cmd, o.Flag); err != nil {
				return err
			}
			*destP = v.GetStringSlice(o.Flag)
		case *zapcore.Level:
			var d zapcore.Level
			if o.Default != nil {
				d = o.Default.(zapcore.Level)
			}
			if hasShort {
				flagSet.VarP(newLevelValue(d, destP), o.Flag, string(o.Short), o.Desc)
			} else {
				flagSet.Var(newLevelValue(d, destP), o.Flag, o.Desc)
			}
			if err := bindFlag(v, cmd, o.Flag); err != nil {
				return err
			}
			var lvl zapcore.Level
			if err := lvl.Set(v.GetString(o.Flag)); err != nil {
				return fmt.Errorf("flag %q: unknown log level; supported levels are debug, info, warn, error", o.Flag)
			}
			*destP = lvl
		default:
			return fmt.Errorf("unknown destination type %t for flag %q", o.DestP, o.Flag)
		}
	}
	return nil
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, flag string) error {
	if err := v.BindPFlag(flag, cmd.Flags().Lookup(flag)); err != nil {
		return fmt.Errorf("binding flag %q: %w", flag, err)
	}
	return nil
}

// levelValue adapts zapcore.Level to the pflag.Value interface.
type levelValue zapcore.Level

var _ pflag.Value = (*levelValue)(nil)

func newLevelValue(val zapcore.Level, p *zapcore.Level) *levelValue {
	*p = val
	return (*levelValue)(p)
}

func (l *levelValue) String() string {
	return zapcore.Level(*l).String()
}

func (l *levelValue) Set(s string) error {
	var level zapcore.Level
	if err := level.Set(s); err != nil {
		return fmt.Errorf("unknown log level; supported levels are debug, info, warn, error")
	}
	*l = levelValue(level)
	return nil
}

func (l *levelValue) Type() string {
	return "Log-Level"
}
