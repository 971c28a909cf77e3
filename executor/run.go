package executor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/victoralfred/termexec/internal/envutil"
	"github.com/victoralfred/termexec/internal/spawn"
)

// invocation is one concrete shell launch: program, argument vector, and
// the shell name reported in results and capabilities.
type invocation struct {
	program   string
	args      []string
	shellName string
}

// runner is the shared process supervision core used by both platform
// executors. It owns the tracker and the timeout/overflow/exit settlement
// race; the executors only differ in how they build invocations.
type runner struct {
	tracker   *Tracker
	grace     time.Duration
	destroyed atomic.Bool
}

func newRunner(grace time.Duration) *runner {
	if grace <= 0 {
		grace = DefaultGraceWindow
	}
	return &runner{
		tracker: NewTracker(),
		grace:   grace,
	}
}

// running is one in-flight execution.
type running struct {
	p         *spawn.Process
	sett      *settlement
	stdout    *outputBuffer
	stderr    *outputBuffer
	stream    *Stream
	command   string
	opts      Options
	shellName string
	commandID string
	started   time.Time
}

// spawn launches the process, registers it with the tracker, and wires up
// output collection. It returns a normalized error when the process cannot
// be started; no tracker entry is left behind in that case.
func (r *runner) spawn(command string, inv invocation, opts Options, stream *Stream) (*running, error) {
	if r.destroyed.Load() {
		return nil, Normalize(ErrDestroyed, command)
	}

	sett := newSettlement()

	stdout := &outputBuffer{
		limit: opts.MaxBufferSize,
		onOverflow: func() {
			sett.settle(outcomeOverflow)
		},
	}
	stderr := &outputBuffer{}

	if stream != nil {
		stdout.tap = func(chunk []byte) {
			stream.publish(Event{Kind: EventStdout, Data: chunk, Time: time.Now()})
		}
		stderr.tap = func(chunk []byte) {
			stream.publish(Event{Kind: EventStderr, Data: chunk, Time: time.Now()})
		}
	}

	env := envutil.BuildEnv(envutil.MergeEnvironment(envutil.HostEnvironment(), opts.Env))

	started := time.Now()
	p, err := spawn.Start(&spawn.Config{
		Shell:  inv.program,
		Args:   inv.args,
		Env:    env,
		Dir:    opts.WorkingDir,
		Stdout: stdout,
		Stderr: stderr,
	})
	if err != nil {
		return nil, NewSpawnError(command, err)
	}

	r.tracker.Add(p)

	if stream != nil {
		stream.publish(Event{Kind: EventStart, PID: p.PID(), Time: started})
	}

	return &running{
		p:         p,
		sett:      sett,
		stdout:    stdout,
		stderr:    stderr,
		stream:    stream,
		command:   command,
		opts:      opts,
		shellName: inv.shellName,
		commandID: uuid.New().String(),
		started:   started,
	}, nil
}

// supervise runs the settlement race for one spawned process and resolves
// it to exactly one terminal state. Timeout and overflow settlements
// terminate the process (graceful, then forceful after the grace window)
// before the call rejects, so no orphan remains.
func (r *runner) supervise(ctx context.Context, rn *running) (*Result, error) {
	go func() {
		//nolint:errcheck // the wait error is recovered via ExitCode below
		_ = rn.p.Wait()
		rn.sett.settle(outcomeExit)
	}()

	timer := time.AfterFunc(rn.opts.Timeout, func() {
		rn.sett.settle(outcomeTimeout)
	})
	defer timer.Stop()

	go func() {
		select {
		case <-ctx.Done():
			rn.sett.settle(outcomeCanceled)
		case <-rn.sett.done:
		}
	}()

	out := rn.sett.wait()
	if out != outcomeExit {
		rn.p.Shutdown(r.grace)
	}
	// The process is reaped before output is read: the wait goroutine in
	// spawn only finishes after both pipe copies complete, so no writes
	// race the reads below. The tracker entry goes before the stream
	// settles, so observers never see a settled call still tracked.
	<-rn.p.Done()
	r.tracker.Remove(rn.p)

	result := &Result{
		CommandID: rn.commandID,
		Command:   rn.command,
		ExitCode:  rn.p.ExitCode(),
		Signal:    rn.p.Signal(),
		Stdout:    rn.stdout.String(),
		Stderr:    rn.stderr.String(),
		Duration:  time.Since(rn.started),
		PID:       rn.p.PID(),
		Shell:     rn.shellName,
	}

	var err error
	switch out {
	case outcomeTimeout:
		err = NewTimeoutError(rn.command, rn.opts.Timeout, result)
	case outcomeOverflow:
		err = NewBufferOverflowError(rn.command, rn.opts.MaxBufferSize, result)
	case outcomeCanceled:
		normalized := Normalize(ctx.Err(), rn.command)
		normalized.Result = result
		err = normalized
	case outcomeExit:
		if result.ExitCode != 0 && !rn.opts.IgnoreExitCode {
			err = NewExitError(rn.command, result)
		}
	}

	if rn.stream != nil {
		rn.stream.publish(Event{Kind: EventClose, PID: result.PID, Time: time.Now()})
		rn.stream.complete(result, err)
	}

	if err != nil {
		return nil, err
	}
	return result, nil
}

// destroy rejects new spawns and force-kills everything still tracked.
func (r *runner) destroy() {
	r.destroyed.Store(true)
	r.tracker.KillAll(r.grace)
}
