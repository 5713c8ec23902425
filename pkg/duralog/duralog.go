// Package duralog is dura's logging surface: colorized human messages on
// stderr, and a line-oriented machine-readable event stream on stdout.
// Keeping the two separate lets scripts consume one without parsing the
// other (§6).
package duralog

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Logger writes both streams. The zero value is not usable; use New.
type Logger struct {
	errOut io.Writer
	stdOut io.Writer
	colors bool
}

// New builds a Logger writing human messages to stderr and events to
// stdout, enabling color only when stderr is an attached terminal.
func New() *Logger {
	return &Logger{
		errOut: os.Stderr,
		stdOut: os.Stdout,
		colors: term.IsTerminal(int(os.Stderr.Fd())),
	}
}

// NewWithWriters builds a Logger over explicit writers with color disabled,
// for callers (tests, other packages' tests) that need to inspect output.
func NewWithWriters(errOut, stdOut io.Writer) *Logger {
	return &Logger{errOut: errOut, stdOut: stdOut, colors: false}
}

// Infof writes a human-readable informational line to stderr.
func (l *Logger) Infof(format string, args ...any) {
	l.writeColored(color.FgCyan, format, args...)
}

// Warnf writes a human-readable warning line to stderr.
func (l *Logger) Warnf(format string, args ...any) {
	l.writeColored(color.FgYellow, format, args...)
}

// Errorf writes a human-readable error line to stderr.
func (l *Logger) Errorf(format string, args ...any) {
	l.writeColored(color.FgRed, format, args...)
}

func (l *Logger) writeColored(attr color.Attribute, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if !l.colors {
		fmt.Fprintln(l.errOut, msg)
		return
	}
	color.New(attr).Fprintln(l.errOut, msg)
}

// Captured emits the "captured" machine event for repo, naming the new
// commit id on its side branch. Every event carries the repo, the tick
// timestamp, and the elapsed microseconds (§6).
func (l *Logger) Captured(repo, commitHex string, tick time.Time, elapsed time.Duration) {
	fmt.Fprintf(l.stdOut, "captured %s %s %d %s\n", repo, tick.UTC().Format(time.RFC3339Nano), elapsed.Microseconds(), commitHex)
}

// NothingToCapture emits the "nothing_to_capture" machine event for repo.
func (l *Logger) NothingToCapture(repo string, tick time.Time, elapsed time.Duration) {
	fmt.Fprintf(l.stdOut, "nothing_to_capture %s %s %d\n", repo, tick.UTC().Format(time.RFC3339Nano), elapsed.Microseconds())
}

// Error emits the "error" machine event for repo, naming a short kind
// (e.g. "unborn_head", "bare_repo", "ref_changed") plus the full message.
func (l *Logger) Error(repo, kind string, tick time.Time, elapsed time.Duration, err error) {
	fmt.Fprintf(l.stdOut, "error %s %s %d %s %s\n", repo, tick.UTC().Format(time.RFC3339Nano), elapsed.Microseconds(), kind, err)
}
