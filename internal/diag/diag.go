// Package diag carries human-readable diagnostic lines from the checker,
// builder and simulator to whatever the caller wants to show them on.
// Nothing in the core consumes these lines programmatically.
package diag

import (
	"fmt"
	"log"
	"sync"
)

type Sink interface {
	Line(s string)
}

func Errorf(s Sink, format string, args ...any) {
	if s == nil {
		return
	}
	s.Line("error: " + fmt.Sprintf(format, args...))
}

func Warnf(s Sink, format string, args ...any) {
	if s == nil {
		return
	}
	s.Line("warning: " + fmt.Sprintf(format, args...))
}

func Infof(s Sink, format string, args ...any) {
	if s == nil {
		return
	}
	s.Line(fmt.Sprintf(format, args...))
}

// Discard drops every line.
var Discard Sink = discard{}

type discard struct{}

func (discard) Line(string) {}

// LogSink forwards lines to a *log.Logger.
type LogSink struct{ Logger *log.Logger }

func (s LogSink) Line(line string) {
	if s.Logger == nil {
		return
	}
	s.Logger.Print(line)
}

// Collector keeps every line in memory.
type Collector struct {
	mu    sync.Mutex
	lines []string
}

func (c *Collector) Line(s string) {
	c.mu.Lock()
	c.lines = append(c.lines, s)
	c.mu.Unlock()
}

func (c *Collector) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Func adapts a plain function.
type Func func(string)

func (f Func) Line(s string) { f(s) }

// Tee fans a line out to every non-nil sink.
func Tee(sinks ...Sink) Sink {
	out := make(tee, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type tee []Sink

func (t tee) Line(s string) {
	for _, x := range t {
		x.Line(s)
	}
}
