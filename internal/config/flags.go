package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// DefaultThreads of 0 tells walk.Options.Build to default to
// runtime.NumCPU().
const DefaultThreads = 0

// DefaultStorageFile is the tracking database's default file name, the same
// name tracking.DefaultPath ends in.
const DefaultStorageFile = "tracking.db"

// FlagValues collects the parsed global flag values for the dirsum command.
// It is populated by BindFlags, merged with an optional config file by Load,
// and with environment variables by Validate.
type FlagValues struct {
	Paths            []string
	Threads          int
	Tolerance        string
	Digest           string
	ReadingStrategy  string
	Include          []string
	Exclude          []string
	Pattern          []string
	ContextIgnore    []string
	ContextAccept    []string
	Progress         bool
	Track            bool
	Storage          string
	ConfigFile       string
	Verbose          bool
	Quiet            bool
}

// BindFlags registers dirsum's flags on cmd and returns the struct they
// populate once Cobra parses the command line.
func BindFlags(cmd *cobra.Command) *FlagValues {
	fv := &FlagValues{}

	pf := cmd.Flags()
	pf.IntVar(&fv.Threads, "threads", DefaultThreads, "worker count for collecting and hashing (0 = number of CPUs)")
	pf.StringVar(&fv.Tolerance, "tolerance", "log", "collecting and hashing error tolerance: log, quiet, stop")
	pf.StringVar(&fv.Digest, "digest", "blake3", "digest algorithm: blake3, xxh3, sha256, crc32, crc64")
	pf.StringVar(&fv.ReadingStrategy, "reading-strategy", "buffer", "file reading strategy: buffer, complete, mmap")
	pf.StringArrayVar(&fv.Include, "include", nil, "include glob filter, applied to file names (repeatable)")
	pf.StringArrayVar(&fv.Exclude, "exclude", nil, "exclude glob filter, applied to file names (repeatable)")
	pf.StringArrayVar(&fv.Pattern, "pattern", nil, "full-path accept pattern, supersedes --include/--exclude (repeatable)")
	pf.StringArrayVar(&fv.ContextIgnore, "context-ignore", nil, "context ignore-file name, e.g. .gitignore (repeatable)")
	pf.StringArrayVar(&fv.ContextAccept, "context-accept", nil, "context accept-file name (repeatable)")
	pf.BoolVar(&fv.Progress, "progress", false, "print progress ticks to stderr while running")
	pf.BoolVar(&fv.Track, "track", false, "compare against the last recorded digest for this configuration")
	pf.StringVar(&fv.Storage, "storage", "", "tracking database path (defaults to a per-user data directory)")
	pf.StringVar(&fv.ConfigFile, "config", "", "TOML config file overriding defaults (flags still take precedence)")
	pf.BoolVarP(&fv.Verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&fv.Quiet, "quiet", "q", false, "suppress log output except errors (the digest is still printed)")

	return fv
}

// Validate applies DIRSUM_* environment overrides and checks flag values for
// correctness. Call this from PersistentPreRunE after Cobra has parsed args.
func Validate(fv *FlagValues, args []string, cmd *cobra.Command) error {
	applyEnvOverrides(fv, cmd)

	fv.Paths = args
	if len(fv.Paths) == 0 {
		fv.Paths = []string{"."}
	}

	if fv.Verbose && fv.Quiet {
		return ValidationError{Severity: "error", Field: "--verbose", Message: "--verbose and --quiet are mutually exclusive"}
	}
	if fv.Threads < 0 {
		return ValidationError{
			Severity: "error",
			Field:    "--threads",
			Message:  fmt.Sprintf("must be >= 0, got %d", fv.Threads),
			Suggest:  "0 defaults to the number of CPUs",
		}
	}

	switch fv.Tolerance {
	case "log", "quiet", "stop":
	default:
		return invalidFlag("tolerance", fv.Tolerance, "log", "quiet", "stop")
	}

	switch fv.Digest {
	case "blake3", "xxh3", "sha256", "crc32", "crc64":
	default:
		return invalidFlag("digest", fv.Digest, "blake3", "xxh3", "sha256", "crc32", "crc64")
	}

	switch fv.ReadingStrategy {
	case "buffer", "complete", "mmap":
	default:
		return invalidFlag("reading-strategy", fv.ReadingStrategy, "buffer", "complete", "mmap")
	}

	if fv.ConfigFile != "" {
		if _, err := os.Stat(fv.ConfigFile); err != nil {
			return fmt.Errorf("--config: %w", err)
		}
	}

	return nil
}

func applyEnvOverrides(fv *FlagValues, cmd *cobra.Command) {
	if v := os.Getenv(EnvDigest); v != "" && !cmd.Flags().Changed("digest") {
		fv.Digest = v
	}
	if v := os.Getenv(EnvTolerance); v != "" && !cmd.Flags().Changed("tolerance") {
		fv.Tolerance = v
	}
	if v := os.Getenv(EnvStorage); v != "" && !cmd.Flags().Changed("storage") {
		fv.Storage = v
	}
	if os.Getenv(EnvVerbose) == "1" && !cmd.Flags().Changed("verbose") {
		fv.Verbose = true
	}
	if os.Getenv(EnvQuiet) == "1" && !cmd.Flags().Changed("quiet") {
		fv.Quiet = true
	}
}
