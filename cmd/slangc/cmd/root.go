package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Version is set by build flags.
	Version = "0.1.0-dev"

	verbosity int
)

var rootCmd = &cobra.Command{
	Use:     "slangc",
	Short:   "Compiler for the Slang language",
	Version: Version,
	Long: `slangc compiles Slang, a small statically-typed class-and-enum
language, down to LLVM IR text.

The pipeline runs lexing and parsing, nine semantic phases (scope-fill
through generic erasure), bytecode generation, and finally LLVM
emission.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v, -vv, -vvv)")
}

// buildLogger maps the CLI's -v/-vv/-vvv count onto zap levels: no
// flags logs only warnings and above, one flag adds info, two or more
// adds debug (there is no distinct "trace" level in zap, so -vvv also
// lands on Debug), and three or more additionally turns on caller
// annotation so each line carries its originating file:line.
func buildLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	switch {
	case verbosity >= 2:
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case verbosity == 1:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.DisableCaller = verbosity < 3
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
