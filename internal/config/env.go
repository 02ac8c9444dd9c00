package config

// Environment variables recognized by the dirsum CLI. Flags always win when
// explicitly set; these only fill in a flag's default.
const (
	EnvDigest    = "DIRSUM_DIGEST"
	EnvTolerance = "DIRSUM_TOLERANCE"
	EnvStorage   = "DIRSUM_STORAGE"
	EnvVerbose   = "DIRSUM_VERBOSE"
	EnvQuiet     = "DIRSUM_QUIET"
)
