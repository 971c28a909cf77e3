package executor

import (
	"sync"
	"time"

	"github.com/victoralfred/termexec/internal/spawn"
)

// Tracker is the per-executor set of in-flight spawned processes. An
// entry is added at spawn time and removed exactly once at settlement.
// Its only consumer beyond bookkeeping is bulk forced termination.
type Tracker struct {
	mu    sync.Mutex
	procs map[int]*spawn.Process
}

// NewTracker creates an empty process tracker.
func NewTracker() *Tracker {
	return &Tracker{
		procs: make(map[int]*spawn.Process),
	}
}

// Add registers a live process.
func (t *Tracker) Add(p *spawn.Process) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.procs[p.PID()] = p
}

// Remove deregisters a process. Removing an already-removed process is a
// no-op, so the settlement paths can all call it safely.
func (t *Tracker) Remove(p *spawn.Process) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.procs, p.PID())
}

// Len returns the number of live tracked processes.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.procs)
}

// KillAll terminates every tracked process: graceful terminate first,
// escalating to a forceful kill after the grace window. It returns once
// every process has been reaped.
func (t *Tracker) KillAll(grace time.Duration) {
	t.mu.Lock()
	snapshot := make([]*spawn.Process, 0, len(t.procs))
	for _, p := range t.procs {
		snapshot = append(snapshot, p)
	}
	t.mu.Unlock()

	var wg sync.WaitGroup
	for _, p := range snapshot {
		wg.Add(1)
		go func(p *spawn.Process) {
			defer wg.Done()
			p.Shutdown(grace)
		}(p)
	}
	wg.Wait()
}
