package cli

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dirsum/dirsum/digest"
	blake3digest "github.com/dirsum/dirsum/digest/blake3"
	crc32digest "github.com/dirsum/dirsum/digest/crc32"
	crc64digest "github.com/dirsum/dirsum/digest/crc64"
	sha256digest "github.com/dirsum/dirsum/digest/sha256simd"
	xxh3digest "github.com/dirsum/dirsum/digest/xxh3"
	"github.com/dirsum/dirsum/entry"
	"github.com/dirsum/dirsum/internal/config"
	"github.com/dirsum/dirsum/progress"
	"github.com/dirsum/dirsum/reader"
	"github.com/dirsum/dirsum/reader/file"
	"github.com/dirsum/dirsum/reader/mmap"
	"github.com/dirsum/dirsum/strategy"
	"github.com/dirsum/dirsum/tracking"
	"github.com/dirsum/dirsum/walk"
)

func newDigest(name string) (digest.Digest, error) {
	switch name {
	case "blake3":
		return blake3digest.New(), nil
	case "xxh3":
		return xxh3digest.New(), nil
	case "sha256":
		return sha256digest.New(), nil
	case "crc32":
		return crc32digest.New(), nil
	case "crc64":
		return crc64digest.New(), nil
	default:
		return nil, fmt.Errorf("dirsum: unknown digest %q", name)
	}
}

func newReader(strat string) (reader.Reader, error) {
	switch strat {
	case "mmap":
		return mmap.New(), nil
	default:
		return file.New(), nil
	}
}

func newStrategy(name string) (strategy.Strategy, error) {
	switch name {
	case "complete":
		return strategy.Leaf(strategy.Complete), nil
	case "mmap":
		return strategy.Leaf(strategy.MemoryMapped), nil
	case "buffer":
		return strategy.Leaf(strategy.Buffer), nil
	default:
		return strategy.Strategy{}, fmt.Errorf("dirsum: unknown reading strategy %q", name)
	}
}

func newTolerance(name string) walk.Tolerance {
	switch name {
	case "stop":
		return walk.StopOnErrors
	case "quiet":
		return walk.DoNotLogErrors
	default:
		return walk.LogErrors
	}
}

func buildEntry(root string, fv *config.FlagValues) (*entry.Entry, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("dirsum: resolving %s: %w", root, err)
	}

	var opts []entry.Option
	for _, p := range fv.Include {
		opts = append(opts, entry.Include(entry.Files(p)))
	}
	for _, p := range fv.Exclude {
		opts = append(opts, entry.Exclude(entry.Files(p)))
	}
	for _, p := range fv.Pattern {
		opts = append(opts, entry.Pattern(entry.Accept(p)))
	}

	var contextFiles []entry.ContextFile
	for _, name := range fv.ContextIgnore {
		contextFiles = append(contextFiles, entry.IgnoreFile(name))
	}
	for _, name := range fv.ContextAccept {
		contextFiles = append(contextFiles, entry.AcceptFile(name))
	}
	if len(contextFiles) > 0 {
		opts = append(opts, entry.Context(contextFiles...))
	}

	return entry.New(abs, opts...)
}

func buildWalker(fv *config.FlagValues) (*walk.Walker, error) {
	d, err := newDigest(fv.Digest)
	if err != nil {
		return nil, err
	}
	r, err := newReader(fv.ReadingStrategy)
	if err != nil {
		return nil, err
	}
	s, err := newStrategy(fv.ReadingStrategy)
	if err != nil {
		return nil, err
	}

	o := walk.NewOptions().
		WithDigest(d).
		WithReader(r).
		WithReadingStrategy(s).
		WithTolerance(newTolerance(fv.Tolerance))
	if fv.Threads > 0 {
		o = o.WithThreads(fv.Threads)
	}
	if fv.Progress {
		o = o.WithProgress(10)
	}

	for _, p := range fv.Paths {
		e, err := buildEntry(p, fv)
		if err != nil {
			return nil, err
		}
		o = o.WithEntry(e)
	}

	return o.Build()
}

// printProgress drains ch until stop is closed. The Walker never closes its
// progress channel itself (it may be reused across Collect/Hash cycles), so
// the caller owns when to stop listening.
func printProgress(ch progress.Channel, stop <-chan struct{}, logger *slog.Logger) {
	for {
		select {
		case tick := <-ch:
			logger.Info("progress", "tick", tick.String())
		case <-stop:
			return
		}
	}
}

func runDigest(cmd *cobra.Command, args []string) error {
	fv := flagValues
	logger := slog.Default().With("component", "cli")

	w, err := buildWalker(fv)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	if ch := w.Progress(); ch != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			printProgress(ch, stop, logger)
		}()
	}
	defer func() {
		close(stop)
		wg.Wait()
	}()

	ctx := cmd.Context()
	var same bool
	var trackErr error

	if fv.Track {
		storagePath := fv.Storage
		if storagePath == "" {
			storagePath, err = tracking.DefaultPath()
			if err != nil {
				return err
			}
		}
		store, err := tracking.Open(storagePath)
		if err != nil {
			return err
		}
		defer store.Close()

		alias, err := trackingAlias(w, fv)
		if err != nil {
			return err
		}
		same, trackErr = store.IsSame(ctx, alias, w)
	} else {
		trackErr = w.Collect(ctx)
		if trackErr == nil {
			_, trackErr = w.Hash(ctx)
		}
	}

	if trackErr != nil {
		return trackErr
	}

	for _, ierr := range w.Invalid() {
		logger.Warn("skipped path", "error", ierr)
	}
	for _, item := range w.Items() {
		if item.State == walk.HashErr {
			logger.Warn("failed to hash path", "path", item.Path, "error", item.Err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %d files\n", hex.EncodeToString(w.Summary()), w.Count())

	if fv.Track {
		if same {
			fmt.Fprintln(out, "unchanged since last run")
		} else {
			fmt.Fprintln(out, "changed since last run")
		}
	}

	entries := w.Iter()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	if fv.Verbose {
		for _, e := range entries {
			fmt.Fprintf(out, "%s  %s\n", hex.EncodeToString(e.Hash), e.Path)
		}
	}

	return nil
}

// trackingAlias derives a stable per-configuration key for the persisted
// tracking store from the path arguments as given, the digest algorithm and
// the reading strategy, so that --track compares like against like across
// runs.
func trackingAlias(w *walk.Walker, fv *config.FlagValues) (string, error) {
	d, err := newDigest(fv.Digest)
	if err != nil {
		return "", err
	}
	fingerprint := fmt.Sprintf("%v|%s|%s", fv.Paths, fv.Digest, fv.ReadingStrategy)
	return tracking.Alias(d, fingerprint)
}
