package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hamed0406/uptimeprober/internal/config"
	"github.com/hamed0406/uptimeprober/internal/domain"
	"github.com/hamed0406/uptimeprober/internal/probe"
	"github.com/hamed0406/uptimeprober/internal/report"
	"github.com/hamed0406/uptimeprober/internal/snapshot"
)

// --- helpers ---

type fixture struct {
	dir     string
	cfgPath string
	logPath string
	snap    string
	console *bytes.Buffer
	logs    *observer.ObservedLogs
	poller  *Poller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		dir:     dir,
		cfgPath: filepath.Join(dir, "config.json"),
		logPath: filepath.Join(dir, "log.txt"),
		snap:    filepath.Join(dir, "data.json"),
		console: &bytes.Buffer{},
		logs:    logs,
	}
	f.poller = NewPoller(
		zap.New(core),
		f.cfgPath,
		probe.NewHTTPChecker(),
		0,
		report.NewLogFile(f.logPath),
		report.NewConsoleSink(f.console, false),
		snapshot.NewWriter(f.snap),
	)
	return f
}

func (f *fixture) writeConfig(t *testing.T, cfg map[string]any) {
	t.Helper()
	b, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f.cfgPath, b, 0o644); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) readSnapshot(t *testing.T) snapshot.Document {
	t.Helper()
	b, err := os.ReadFile(f.snap)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var doc snapshot.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return doc
}

func (f *fixture) readLog(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile(f.logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(b)
}

func delayedServer(t *testing.T, delay time.Duration, code int) *httptest.Server {
	t.Helper()
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		w.WriteHeader(code)
	}))
	t.Cleanup(s.Close)
	return s
}

// --- tests ---

func TestRunCycle_UpScenario(t *testing.T) {
	srv := delayedServer(t, 50*time.Millisecond, http.StatusOK)
	f := newFixture(t)
	f.writeConfig(t, map[string]any{"urls": []string{srv.URL}, "timeout": 1.0, "interval": 0})

	m, err := f.poller.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if m.Interval != 0 || m.Timeout != time.Second {
		t.Fatalf("monitor: %+v", m)
	}

	doc := f.readSnapshot(t)
	if len(doc.Results) != 1 {
		t.Fatalf("want one result, got %+v", doc.Results)
	}
	r := doc.Results[0]
	if r.URL != srv.URL || r.Status != domain.StatusUp {
		t.Fatalf("unexpected result: %+v", r)
	}
	if r.TimeToAnswer < 0.05 || r.TimeToAnswer > 0.9 {
		t.Fatalf("latency out of range: %v", r.TimeToAnswer)
	}

	line := f.console.String()
	if !strings.Contains(line, "| UP ") || !regexp.MustCompile(`\| 0\.\d{3}s\n$`).MatchString(line) {
		t.Fatalf("console line: %q", line)
	}
	if got := f.readLog(t); !strings.HasPrefix(got, report.Header()) || !strings.Contains(got, srv.URL) {
		t.Fatalf("log file:\n%s", got)
	}
}

func TestRunCycle_TimeoutScenario(t *testing.T) {
	srv := delayedServer(t, 5*time.Second, http.StatusOK)
	f := newFixture(t)
	f.writeConfig(t, map[string]any{"urls": []string{srv.URL}, "timeout": 0.2, "should_print_to_console": false})

	if _, err := f.poller.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if doc := f.readSnapshot(t); doc.Results[0].Status != domain.StatusTimeout {
		t.Fatalf("want TIMEOUT, got %+v", doc.Results[0])
	}
	if f.console.Len() != 0 {
		t.Fatalf("console disabled but got %q", f.console.String())
	}
	lines := strings.Split(strings.TrimSpace(f.readLog(t)), "\n")
	last := lines[len(lines)-1]
	if !strings.Contains(last, "| TIMEOUT ") || !strings.HasSuffix(last, "| ------") {
		t.Fatalf("log line: %q", last)
	}
}

func TestRunCycle_OrdersByCompletion(t *testing.T) {
	slow := delayedServer(t, 150*time.Millisecond, http.StatusOK)
	fast := delayedServer(t, 0, http.StatusInternalServerError)
	f := newFixture(t)
	f.writeConfig(t, map[string]any{"urls": []string{slow.URL, fast.URL}, "should_save_to_file": false})

	if _, err := f.poller.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	doc := f.readSnapshot(t)
	if len(doc.Results) != 2 || doc.Results[0].URL != fast.URL || doc.Results[1].URL != slow.URL {
		t.Fatalf("want fast then slow, got %+v", doc.Results)
	}
	if doc.Results[0].Status != domain.StatusDown {
		t.Fatalf("500 should be DOWN: %+v", doc.Results[0])
	}
	if _, err := os.Stat(f.logPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("log file should not be created while disabled: %v", err)
	}
}

func TestRunCycle_ToggleDoesNotDuplicateHeader(t *testing.T) {
	srv := delayedServer(t, 0, http.StatusOK)
	f := newFixture(t)
	prior := report.Header() + "18/08/2025, 12:00:00 | old line\n"
	if err := os.WriteFile(f.logPath, []byte(prior), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, save := range []bool{true, false, true, true} {
		f.writeConfig(t, map[string]any{"urls": []string{srv.URL}, "should_save_to_file": save, "should_print_to_console": false})
		if _, err := f.poller.RunCycle(context.Background()); err != nil {
			t.Fatalf("RunCycle(save=%v): %v", save, err)
		}
	}

	got := f.readLog(t)
	if strings.Count(got, "Date") != 1 {
		t.Fatalf("header duplicated:\n%s", got)
	}
	if !strings.HasPrefix(got, prior) {
		t.Fatalf("prior data lost:\n%s", got)
	}
	if n := strings.Count(got, srv.URL); n != 3 {
		t.Fatalf("want 3 data lines, got %d:\n%s", n, got)
	}
}

func TestRunCycle_HeaderOnlyOnRisingEdge(t *testing.T) {
	f := newFixture(t)
	f.writeConfig(t, map[string]any{"urls": []string{}, "should_print_to_console": false})

	if _, err := f.poller.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := f.readLog(t); got != report.Header() {
		t.Fatalf("want header only, got %q", got)
	}

	// Emptied while the flag stays on: no new header until the next rising edge.
	if err := os.WriteFile(f.logPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := f.poller.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := f.readLog(t); got != "" {
		t.Fatalf("header rewritten without a rising edge: %q", got)
	}
}

func TestRunCycle_ReloadsConfigEveryCycle(t *testing.T) {
	a := delayedServer(t, 0, http.StatusOK)
	b := delayedServer(t, 0, http.StatusOK)
	f := newFixture(t)

	for _, u := range []string{a.URL, b.URL} {
		f.writeConfig(t, map[string]any{"urls": []string{u}, "should_save_to_file": false, "should_print_to_console": false})
		if _, err := f.poller.RunCycle(context.Background()); err != nil {
			t.Fatal(err)
		}
		if doc := f.readSnapshot(t); len(doc.Results) != 1 || doc.Results[0].URL != u {
			t.Fatalf("want %s, got %+v", u, doc.Results)
		}
	}
}

func TestRunCycle_WarningsAreLogged(t *testing.T) {
	f := newFixture(t)
	f.writeConfig(t, map[string]any{"urls": []any{"ftp://x", 7}, "interval": "soon", "should_save_to_file": false})

	if _, err := f.poller.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := f.logs.FilterMessage("config_warning").Len(); n != 3 {
		t.Fatalf("want 3 config warnings, got %d", n)
	}
}

func TestRunCycle_CancelledContextStillFinishesProbes(t *testing.T) {
	srv := delayedServer(t, 20*time.Millisecond, http.StatusOK)
	f := newFixture(t)
	f.writeConfig(t, map[string]any{"urls": []string{srv.URL}, "should_save_to_file": false})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.poller.RunCycle(ctx); err != nil {
		t.Fatal(err)
	}
	if doc := f.readSnapshot(t); doc.Results[0].Status != domain.StatusUp {
		t.Fatalf("in-flight probe was aborted: %+v", doc.Results[0])
	}
}

func TestRunCycle_LogFileUnwritableIsFatal(t *testing.T) {
	f := newFixture(t)
	f.poller.LogFile.Path = filepath.Join(f.dir, "missing", "log.txt")
	f.writeConfig(t, map[string]any{"urls": []string{}})

	_, err := f.poller.RunCycle(context.Background())
	var se *report.SinkError
	if !errors.As(err, &se) {
		t.Fatalf("want SinkError, got %v", err)
	}
}

func TestRun_ConfigSourceErrorIsFatal(t *testing.T) {
	f := newFixture(t)

	err := f.poller.Run(context.Background())
	var se *config.SourceError
	if !errors.As(err, &se) || se.Kind != config.KindNotFound {
		t.Fatalf("want not-found SourceError, got %v", err)
	}
	if f.logs.FilterMessage("cycle_failed").Len() != 1 {
		t.Fatalf("failure not logged")
	}
}

func TestRun_StopsDuringSleep(t *testing.T) {
	f := newFixture(t)
	f.writeConfig(t, map[string]any{"urls": []string{}, "interval": 60, "should_save_to_file": false})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.poller.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for f.logs.FilterMessage("cycle_done").Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first cycle never finished")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop while sleeping")
	}
	if n := f.logs.FilterMessage("cycle_done").Len(); n != 1 {
		t.Fatalf("want exactly one cycle, got %d", n)
	}
	stopped := f.logs.FilterMessage("poller_state").FilterField(zap.String("state", string(StateStopped)))
	if stopped.Len() != 1 {
		t.Fatalf("stopped state not reached")
	}
}

func TestRun_ZeroIntervalRepeatsImmediately(t *testing.T) {
	f := newFixture(t)
	f.writeConfig(t, map[string]any{"urls": []string{}, "interval": 0, "should_save_to_file": false})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.poller.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for f.logs.FilterMessage("cycle_done").Len() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("zero interval did not loop")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	if f.logs.FilterMessage("poller_state").FilterField(zap.String("state", string(StateSleeping))).Len() != 0 {
		t.Fatal("zero interval should never sleep")
	}
}

func TestRun_AlreadyCancelledRunsNoCycle(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.poller.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.logs.FilterMessage("cycle_done").Len() != 0 {
		t.Fatal("no cycle should start after cancellation")
	}
}
