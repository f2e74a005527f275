package logging

import (
	"fmt"
	"io"
	"os"
)

// EarlyLog prints plain lines before the structured logger is configured,
// typically while config is still being loaded.
type EarlyLog struct {
	service string
	out     io.Writer
	errOut  io.Writer
}

func NewEarlyLog(service string) *EarlyLog {
	return &EarlyLog{service: service, out: os.Stdout, errOut: os.Stderr}
}

func (l *EarlyLog) Error(msg string, args ...any) {
	l.write(l.errOut, "ERROR", msg, args)
}

func (l *EarlyLog) Warn(msg string, args ...any) {
	l.write(l.errOut, "WARN", msg, args)
}

func (l *EarlyLog) Info(msg string, args ...any) {
	l.write(l.out, "INFO", msg, args)
}

func (l *EarlyLog) write(w io.Writer, level, msg string, args []any) {
	if l.service != "" {
		fmt.Fprintf(w, "%s [%s] %s\n", level, l.service, fmt.Sprintf(msg, args...))
		return
	}
	fmt.Fprintf(w, "%s: %s\n", level, fmt.Sprintf(msg, args...))
}
