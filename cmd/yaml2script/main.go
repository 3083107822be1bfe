// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the yaml2script CLI. It prints the
// shell script of one job of a CI configuration file so the script can be
// checked with tools such as shellcheck.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/deploy2zenodo/yaml2script/internal/extract"
	"github.com/deploy2zenodo/yaml2script/internal/logging"
	"github.com/deploy2zenodo/yaml2script/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// usageLine is printed on stdout for any invocation other than two
// positional arguments with known flags.
const usageLine = "yaml2script [filename] [job name]"

var errUsage = errors.New("invalid arguments")

// newRootCmd builds the yaml2script command. Options are read through v so
// each invocation has its own flag and config file state.
func newRootCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   usageLine,
		Short: "Extract the shell script of a CI job",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errUsage
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, v, args[0], args[1])
		},
	}

	// A bad flag is a bad invocation: answer with the usage line.
	cmd.SetFlagErrorFunc(func(*cobra.Command, error) error {
		return errUsage
	})

	cmd.Flags().String("config", "", "read options from this config file")
	cmd.Flags().String("shebang", extract.DefaultShebang, "first line of the generated script")
	cmd.Flags().StringP("output", "o", "", "write the script to a file instead of stdout")
	cmd.Flags().BoolP("quiet", "q", false, "suppress warnings")
	cmd.Flags().Bool("debug", false, "log debug messages and print stack traces on errors")

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		panic(err)
	}
	return cmd
}

// initConfig reads the file named by --config. Without it only flags and
// defaults apply.
func initConfig(v *viper.Viper) error {
	cfgFile := v.GetString("config")
	if cfgFile == "" {
		return nil
	}
	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrap(err, "reading config file")
	}
	return nil
}

func configFrom(v *viper.Viper) types.Config {
	return types.Config{
		Shebang: v.GetString("shebang"),
		Output:  v.GetString("output"),
		Quiet:   v.GetBool("quiet"),
		Debug:   v.GetBool("debug"),
	}
}

func runExtract(cmd *cobra.Command, v *viper.Viper, path, job string) error {
	cfg := configFrom(v)

	log, err := logging.New(logging.Config{
		Level:  cfg.LogLevel(),
		Quiet:  cfg.Quiet,
		Output: zapcore.AddSync(cmd.ErrOrStderr()),
	})
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Debugw("starting", "version", version, "config", v.ConfigFileUsed())

	script, err := extract.NewExtractor(log, extract.WithShebang(cfg.Shebang)).ExtractFile(path, job)
	if err != nil {
		return err
	}
	return writeScript(cmd.OutOrStdout(), cfg.Output, script)
}

// writeScript sends script to w, or to the file at path when path is set.
func writeScript(w io.Writer, path, script string) error {
	if path == "" {
		_, err := io.WriteString(w, script)
		return err
	}
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		return errors.Wrap(err, "writing script")
	}
	return nil
}

// execute runs the CLI with args and returns the process exit status.
func execute(args []string, stdout, stderr io.Writer) int {
	v := viper.New()
	cmd := newRootCmd(v)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	// -h and --help end up here instead of printing cobra's help page.
	var helpRequested bool
	cmd.SetHelpFunc(func(*cobra.Command, []string) {
		helpRequested = true
	})

	err := cmd.Execute()
	switch {
	case helpRequested, errors.Is(err, errUsage):
		fmt.Fprintln(stdout, usageLine)
		return 1
	case err == nil:
		return 0
	case v.GetBool("debug"):
		fmt.Fprintf(stderr, "Error: %+v\n", err)
		return 1
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
