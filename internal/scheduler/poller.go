package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimeprober/internal/config"
	"github.com/hamed0406/uptimeprober/internal/domain"
	"github.com/hamed0406/uptimeprober/internal/probe"
	"github.com/hamed0406/uptimeprober/internal/report"
	"github.com/hamed0406/uptimeprober/internal/snapshot"
)

type State string

const (
	StateInit     State = "init"
	StateRunning  State = "running"
	StateSleeping State = "sleeping"
	StateStopped  State = "stopped"
)

// Poller owns the probe loop: load config, probe, order, persist, print,
// sleep, repeat.
type Poller struct {
	Logger     *zap.Logger
	ConfigPath string
	Executor   *probe.Executor
	LogFile    *report.LogFile
	Dispatcher *report.Dispatcher
	Snapshot   *snapshot.Writer
	Now        func() time.Time

	// prevSave is the previous cycle's SaveToFile; the log file is prepared
	// only when the flag goes from false to true.
	prevSave bool
}

func NewPoller(
	logger *zap.Logger,
	configPath string,
	checker probe.Checker,
	concurrency int,
	logFile *report.LogFile,
	console report.Sink,
	snap *snapshot.Writer,
) *Poller {
	return &Poller{
		Logger:     logger,
		ConfigPath: configPath,
		Executor:   probe.NewExecutor(checker, concurrency),
		LogFile:    logFile,
		Dispatcher: &report.Dispatcher{Console: console, File: logFile},
		Snapshot:   snap,
		Now:        time.Now,
	}
}

// Run loops until ctx is cancelled or a cycle fails fatally. Cancellation is
// only observed between cycles and while sleeping; a cycle that has started
// always finishes. It returns nil on cancellation.
func (p *Poller) Run(ctx context.Context) error {
	p.setState(StateInit)
	defer func() {
		if c, ok := p.Executor.Checker.(interface{ Close() }); ok {
			c.Close()
		}
		p.setState(StateStopped)
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		p.setState(StateRunning)
		m, err := p.RunCycle(ctx)
		if err != nil {
			p.Logger.Error("cycle_failed", zap.Error(err))
			return err
		}

		if m.Interval <= 0 {
			continue
		}
		p.setState(StateSleeping)
		t := time.NewTimer(m.Interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

// RunCycle performs one full cycle and returns the config it ran with.
// Config source errors and sink errors are returned; probe failures are not
// errors.
func (p *Poller) RunCycle(ctx context.Context) (config.Monitor, error) {
	raw, err := config.Load(p.ConfigPath)
	if err != nil {
		return config.Monitor{}, err
	}
	m, warnings := config.Validate(raw, p.Now())
	for _, w := range warnings {
		p.Logger.Warn("config_warning", zap.Error(w))
	}

	if m.SaveToFile && !p.prevSave {
		if err := p.LogFile.Init(); err != nil {
			return m, err
		}
		p.Logger.Debug("logfile_ready", zap.String("path", p.LogFile.Path))
	}
	p.prevSave = m.SaveToFile

	// Probes outlive cancellation so an interrupt drains the cycle instead
	// of reporting every in-flight URL as DOWN.
	batch := report.Order(p.Executor.ProbeAll(context.WithoutCancel(ctx), m.URLs, m.Timeout))

	if err := p.Snapshot.Write(batch); err != nil {
		return m, &report.SinkError{Sink: "snapshot", Path: p.Snapshot.Path, Err: err}
	}
	if err := p.Dispatcher.Dispatch(batch, m.PrintToConsole, m.SaveToFile); err != nil {
		return m, err
	}

	p.logCycle(m, batch)
	return m, nil
}

func (p *Poller) logCycle(m config.Monitor, batch domain.Batch) {
	counts := map[domain.Status]int{}
	for _, r := range batch {
		counts[r.Status]++
		p.Logger.Debug("probe_result",
			zap.String("url", r.URL),
			zap.String("status", string(r.Status)),
			zap.Int("http_status", r.StatusCode),
			zap.Duration("latency", r.Latency),
			zap.String("error", r.Err),
		)
	}
	p.Logger.Info("cycle_done",
		zap.Int("urls", len(m.URLs)),
		zap.Int("up", counts[domain.StatusUp]),
		zap.Int("down", counts[domain.StatusDown]),
		zap.Int("timeout", counts[domain.StatusTimeout]),
		zap.Duration("interval", m.Interval),
	)
}

func (p *Poller) setState(s State) {
	p.Logger.Debug("poller_state", zap.String("state", string(s)))
}
