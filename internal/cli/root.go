// Package cli implements the Cobra command hierarchy for the dirsum CLI tool.
// The root command defined here is the entry point: it walks the given
// directories, hashes their contents, and prints the resulting digests.
package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/dirsum/dirsum/internal/config"
	"github.com/dirsum/dirsum/walk"
)

// Exit codes returned by Execute.
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitPartial = 2
)

// flagValues holds the parsed global flag values, populated by
// config.BindFlags during command initialization and validated in
// PersistentPreRunE.
var flagValues *config.FlagValues

var rootCmd = &cobra.Command{
	Use:   "dirsum [paths...]",
	Short: "Deterministic content digests for directory trees.",
	Long: `dirsum walks one or more directory trees in parallel, hashes file
contents in parallel, and aggregates the per-file hashes into a single
deterministic summary digest -- the same tree always produces the same
digest, independent of traversal order or machine.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(flagValues.ConfigFile, flagValues, cmd.Flags().Changed); err != nil {
			return err
		}
		if err := config.Validate(flagValues, args, cmd); err != nil {
			return err
		}

		level := config.ResolveLogLevel(flagValues.Verbose, flagValues.Quiet)
		format := config.ResolveLogFormat()
		config.SetupLogging(level, format)

		slog.Debug("logging initialized", "level", level, "format", format)
		return nil
	},
	RunE: runDigest,
}

func init() {
	flagValues = config.BindFlags(rootCmd)

	rootCmd.RegisterFlagCompletionFunc("digest", completeDigest)
	rootCmd.RegisterFlagCompletionFunc("reading-strategy", completeReadingStrategy)
	rootCmd.RegisterFlagCompletionFunc("tolerance", completeTolerance)
}

func completeDigest(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"blake3", "xxh3", "sha256", "crc32", "crc64"}, cobra.ShellCompDirectiveNoFileComp
}

func completeReadingStrategy(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"buffer", "complete", "mmap"}, cobra.ShellCompDirectiveNoFileComp
}

func completeTolerance(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"log", "quiet", "stop"}, cobra.ShellCompDirectiveNoFileComp
}

// Execute runs the root command and returns a process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd.SetContext(ctx)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error(err.Error())
		return extractExitCode(err)
	}
	return ExitSuccess
}

// extractExitCode maps a *walk.Error's Kind to a process exit code. A
// walk.Aborted error (the user hit Ctrl-C) is reported as partial since some
// files may already have been hashed; any other classified or unclassified
// error is a hard failure.
func extractExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var werr *walk.Error
	if errors.As(err, &werr) {
		if werr.Kind == walk.Aborted {
			return ExitPartial
		}
	}
	return ExitError
}

// RootCmd returns the root cobra.Command for use in testing and subcommand
// registration.
func RootCmd() *cobra.Command {
	return rootCmd
}

// GlobalFlags returns the parsed global flag values. Available after
// PersistentPreRunE has run.
func GlobalFlags() *config.FlagValues {
	return flagValues
}
