// Package monitoring holds the process-wide diagnostic hooks: a replaceable
// log function and the Prometheus counters for recording and replay.
package monitoring

import (
	"fmt"
	"log"
	"strings"
	"sync"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Messages carry a "[Component]" prefix by convention.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Capture collects formatted log lines. Install it with SetLogger(c.Logf).
type Capture struct {
	mu    sync.Mutex
	lines []string
}

func (c *Capture) Logf(format string, v ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, fmt.Sprintf(format, v...))
}

// Lines returns a copy of everything logged so far.
func (c *Capture) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

// Contains reports whether any captured line contains substr.
func (c *Capture) Contains(substr string) bool {
	for _, l := range c.Lines() {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// CaptureLogs redirects Logf into a fresh Capture and returns a function that
// restores the previous logger.
func CaptureLogs() (*Capture, func()) {
	prev := Logf
	c := &Capture{}
	SetLogger(c.Logf)
	return c, func() { Logf = prev }
}
