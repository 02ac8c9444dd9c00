// Command dirsum computes a deterministic content digest for one or more
// directory trees.
package main

import (
	"os"
	"runtime"

	"github.com/dirsum/dirsum/internal/buildinfo"
	"github.com/dirsum/dirsum/internal/cli"
)

// Build-time metadata injected via ldflags, e.g.:
//
//	go build -ldflags "-X main.version=... -X main.commit=... -X main.date=..."
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	buildinfo.Version = version
	buildinfo.Commit = commit
	buildinfo.Date = date
	buildinfo.GoVersion = runtime.Version()

	os.Exit(cli.Execute())
}
