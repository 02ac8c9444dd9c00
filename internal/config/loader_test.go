package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noneChanged(string) bool { return false }

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	fv := &FlagValues{Digest: "blake3"}
	err := Load(filepath.Join(t.TempDir(), "missing.toml"), fv, noneChanged)
	require.NoError(t, err)
	assert.Equal(t, "blake3", fv.Digest)
}

func TestLoadEmptyPathIsNoop(t *testing.T) {
	fv := &FlagValues{Digest: "blake3"}
	require.NoError(t, Load("", fv, noneChanged))
	assert.Equal(t, "blake3", fv.Digest)
}

func TestLoadAppliesFileValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dirsum.toml")
	content := `
threads = 4
digest = "xxh3"
tolerance = "stop"
include = ["*.go", "*.md"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	fv := &FlagValues{Digest: "blake3", Tolerance: "log"}
	require.NoError(t, Load(path, fv, noneChanged))

	assert.Equal(t, 4, fv.Threads)
	assert.Equal(t, "xxh3", fv.Digest)
	assert.Equal(t, "stop", fv.Tolerance)
	assert.Equal(t, []string{"*.go", "*.md"}, fv.Include)
}

func TestLoadDoesNotOverrideChangedFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dirsum.toml")
	require.NoError(t, os.WriteFile(path, []byte(`digest = "xxh3"`), 0o644))

	fv := &FlagValues{Digest: "crc32"}
	changed := func(flag string) bool { return flag == "digest" }
	require.NoError(t, Load(path, fv, changed))

	assert.Equal(t, "crc32", fv.Digest, "flag explicitly set on the command line must win over the config file")
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dirsum.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))

	fv := &FlagValues{}
	err := Load(path, fv, noneChanged)
	assert.Error(t, err)
}
