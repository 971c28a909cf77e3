package executor

import (
	"strings"
	"time"
)

// Result contains the outcome of one command execution. It is created
// once when the spawned process settles and is immutable thereafter.
type Result struct {
	// CommandID uniquely identifies this execution.
	CommandID string

	// Command is the command string as handed to the shell.
	Command string

	// ExitCode is the process exit code (-1 when killed by signal).
	ExitCode int

	// Signal names the terminating signal, if any.
	Signal string

	// Stdout is the accumulated standard output.
	Stdout string

	// Stderr is the accumulated standard error.
	Stderr string

	// Duration is the wall clock execution time.
	Duration time.Duration

	// PID is the OS process id of the spawned shell.
	PID int

	// Shell names the shell that ran the command.
	Shell string
}

// Success reports whether the command exited cleanly.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// TrimmedStdout returns stdout with surrounding whitespace removed.
func (r *Result) TrimmedStdout() string {
	return strings.TrimSpace(r.Stdout)
}

// TrimmedStderr returns stderr with surrounding whitespace removed.
func (r *Result) TrimmedStderr() string {
	return strings.TrimSpace(r.Stderr)
}

// EventKind identifies a streaming output event.
type EventKind int

const (
	// EventStart signals the process has been spawned.
	EventStart EventKind = iota
	// EventStdout carries a chunk of standard output.
	EventStdout
	// EventStderr carries a chunk of standard error.
	EventStderr
	// EventClose signals the process has terminated.
	EventClose
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventStdout:
		return "stdout"
	case EventStderr:
		return "stderr"
	case EventClose:
		return "close"
	default:
		return "unknown"
	}
}

// Event is one incremental output notification.
type Event struct {
	// Kind is the event type.
	Kind EventKind

	// Data is the output chunk for stdout/stderr events.
	Data []byte

	// PID is the process id, set on start and close events.
	PID int

	// Time is when the event was produced.
	Time time.Time
}

// streamBufferSize bounds the event channel. The channel is a live tap:
// chunks beyond the consumer's pace are dropped, while the settled Result
// always carries the full concatenated output.
const streamBufferSize = 64

// Stream is the handle returned by streaming execution. Callers may drain
// Events while the command runs; Wait returns the settled value. The event
// channel is closed exactly once, at settlement.
type Stream struct {
	events chan Event
	done   chan struct{}
	result *Result
	err    error
}

func newStream() *Stream {
	return &Stream{
		events: make(chan Event, streamBufferSize),
		done:   make(chan struct{}),
	}
}

// Events returns the incremental output channel. It is closed when the
// call settles.
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Done returns a channel closed once the call has settled.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the call settles and returns the final result or the
// normalized error. The result contains the full concatenated output even
// if events were dropped from the live channel.
func (s *Stream) Wait() (*Result, error) {
	<-s.done
	return s.result, s.err
}

// publish delivers an event without ever blocking the run loop. A full
// channel drops the event; the settled result is the source of truth.
func (s *Stream) publish(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

// complete records the settled value and closes both channels. It must be
// called exactly once, after all output writers have finished.
func (s *Stream) complete(result *Result, err error) {
	s.result = result
	s.err = err
	close(s.events)
	close(s.done)
}
