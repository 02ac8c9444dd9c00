package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf/providers/confmap"
	koanf "github.com/knadh/koanf/v2"
)

// FileSettings mirrors the subset of FlagValues that may be set from a TOML
// config file. Fields left unset in the file (zero value, not present in the
// TOML) do not override a flag default.
type FileSettings struct {
	Threads         int      `koanf:"threads"`
	Tolerance       string   `koanf:"tolerance"`
	Digest          string   `koanf:"digest"`
	ReadingStrategy string   `koanf:"reading_strategy"`
	Include         []string `koanf:"include"`
	Exclude         []string `koanf:"exclude"`
	Pattern         []string `koanf:"pattern"`
	Storage         string   `koanf:"storage"`
}

// Load reads path (a TOML file) and layers its values underneath fv: any
// field the file sets explicitly, and the corresponding flag was left at its
// default (not Changed on the command line), is copied into fv. Flags the
// user actually passed always win.
//
// A missing path is not an error -- dirsum runs fine with flags and
// environment variables alone.
func Load(path string, fv *FlagValues, changed func(flag string) bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: stat %s: %w", path, err)
	}

	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(raw, "."), nil); err != nil {
		return fmt.Errorf("config: loading %s: %w", path, err)
	}

	logger := slog.Default().With("component", "config")
	logger.Debug("loaded config file", "path", path)

	if k.Exists("threads") && !changed("threads") {
		fv.Threads = k.Int("threads")
	}
	if k.Exists("tolerance") && !changed("tolerance") {
		fv.Tolerance = k.String("tolerance")
	}
	if k.Exists("digest") && !changed("digest") {
		fv.Digest = k.String("digest")
	}
	if k.Exists("reading_strategy") && !changed("reading-strategy") {
		fv.ReadingStrategy = k.String("reading_strategy")
	}
	if k.Exists("storage") && !changed("storage") {
		fv.Storage = k.String("storage")
	}
	if k.Exists("include") && !changed("include") {
		fv.Include = k.Strings("include")
	}
	if k.Exists("exclude") && !changed("exclude") {
		fv.Exclude = k.Strings("exclude")
	}
	if k.Exists("pattern") && !changed("pattern") {
		fv.Pattern = k.Strings("pattern")
	}

	return nil
}
