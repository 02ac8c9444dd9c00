package file_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dirsum/dirsum/reader/file"
)

func TestReaderReadsFullContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.txt")
	want := []byte("the quick brown fox jumps over the lazy dog")
	require.NoError(t, os.WriteFile(path, want, 0o644))

	r, err := file.New().Setup(path)
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestComplete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.txt")
	want := []byte("complete strategy content")
	require.NoError(t, os.WriteFile(path, want, 0o644))

	got, err := file.Complete(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
