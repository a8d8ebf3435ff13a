package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"go.uber.org/multierr"

	"github.com/hamed0406/uptimeprober/internal/domain"
)

// Sink receives formatted results one at a time.
type Sink interface {
	Write(r domain.ProbeResult) error
}

// SinkError means an output could not be written. The poller treats it as
// fatal: losing the audit log silently is not acceptable.
type SinkError struct {
	Sink string
	Path string
	Err  error
}

func (e *SinkError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s sink: %v", e.Sink, e.Err)
	}
	return fmt.Sprintf("%s sink %s: %v", e.Sink, e.Path, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// ColorSupported reports whether stdout looks like a terminal that takes
// ANSI colors.
func ColorSupported() bool { return !color.NoColor }

type ConsoleSink struct {
	Out    io.Writer
	styles map[domain.Status]*color.Color
}

// NewConsoleSink prints UP in green, DOWN in red and TIMEOUT in yellow.
func NewConsoleSink(out io.Writer, colored bool) *ConsoleSink {
	styles := map[domain.Status]*color.Color{
		domain.StatusUp:      color.New(color.FgGreen),
		domain.StatusDown:    color.New(color.FgRed),
		domain.StatusTimeout: color.New(color.FgYellow),
	}
	for _, c := range styles {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return &ConsoleSink{Out: out, styles: styles}
}

func (c *ConsoleSink) Write(r domain.ProbeResult) error {
	style, ok := c.styles[r.Status]
	if !ok {
		style = c.styles[domain.StatusDown]
	}
	if _, err := style.Fprintln(c.Out, FormatLine(r)); err != nil {
		return &SinkError{Sink: "console", Err: err}
	}
	return nil
}

// LogFile is the append-only text log.
type LogFile struct {
	Path string
}

func NewLogFile(path string) *LogFile { return &LogFile{Path: path} }

// Init creates the file if needed and writes the header when it is empty.
func (l *LogFile) Init() error {
	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return l.fail(err)
	}
	st, err := f.Stat()
	if err == nil && st.Size() == 0 {
		_, err = f.WriteString(Header())
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return l.fail(err)
	}
	return nil
}

func (l *LogFile) Write(r domain.ProbeResult) error {
	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return l.fail(err)
	}
	_, err = f.WriteString(FormatLine(r) + "\n")
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return l.fail(err)
	}
	return nil
}

func (l *LogFile) fail(err error) error {
	return &SinkError{Sink: "logfile", Path: l.Path, Err: err}
}

// Dispatcher routes each result of a batch to the enabled sinks.
type Dispatcher struct {
	Console Sink
	File    Sink
}

// Dispatch writes batch in order. A sink that fails is skipped for the rest
// of the batch; the other sink keeps going. All failures are returned
// combined.
func (d *Dispatcher) Dispatch(batch domain.Batch, toConsole, toFile bool) error {
	toConsole = toConsole && d.Console != nil
	toFile = toFile && d.File != nil

	var errs error
	for _, r := range batch {
		if toConsole {
			if err := d.Console.Write(r); err != nil {
				errs = multierr.Append(errs, err)
				toConsole = false
			}
		}
		if toFile {
			if err := d.File.Write(r); err != nil {
				errs = multierr.Append(errs, err)
				toFile = false
			}
		}
	}
	return errs
}
