// cmd/preflight/main.go
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hamed0406/uptimeprober/internal/config"
)

func main() {
	path := "config.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	os.Exit(check(os.Stdout, os.Stderr, path, config.FromEnv(), time.Now()))
}

// check loads and validates the config at path the way the prober's first
// cycle would, and reports on the environment the prober will run with.
func check(stdout, stderr io.Writer, path string, s config.Settings, now time.Time) int {
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }
	fail := func(msg string) int {
		fmt.Fprintln(stderr, "✖", msg)
		return 1
	}

	raw, err := config.Load(path)
	if err != nil {
		var se *config.SourceError
		if errors.As(err, &se) {
			return fail(fmt.Sprintf("%s is %s: %v", path, se.Kind, se.Err))
		}
		return fail(err.Error())
	}
	ok(path + " parsed")

	m, warnings := config.Validate(raw, now)
	for _, w := range warnings {
		warn(w.Error())
	}
	if len(m.URLs) == 0 {
		warn("no valid URLs to probe today; every cycle will be empty")
	} else {
		ok(fmt.Sprintf("%d URL(s) to probe today", len(m.URLs)))
	}
	ok(fmt.Sprintf("timeout=%s interval=%s save_to_file=%v print_to_console=%v",
		m.Timeout, m.Interval, m.SaveToFile, m.PrintToConsole))
	if m.Interval == 0 {
		warn("interval is 0; cycles will run back to back")
	}

	if dir := filepath.Dir(s.SnapshotPath); !isDir(dir) {
		return fail("snapshot directory " + dir + " does not exist")
	}
	ok("PROBER_SNAPSHOT_PATH=" + s.SnapshotPath)

	if s.MaxConcurrency == 0 {
		ok("PROBER_MAX_CONCURRENCY unset; all URLs are probed at once")
	} else {
		ok(fmt.Sprintf("PROBER_MAX_CONCURRENCY=%d", s.MaxConcurrency))
	}

	ok("preflight passed")
	return 0
}

func isDir(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.IsDir()
}
