package executor

import "sync"

// outcome identifies which settlement path won the race between normal
// process exit, timeout expiry, buffer-limit breach, and cancellation.
type outcome int

const (
	outcomeExit outcome = iota
	outcomeTimeout
	outcomeOverflow
	outcomeCanceled
)

// settlement is the exactly-once guard gating every resolution path of a
// call. Timeout, buffer overflow, and process exit all race to settle the
// same call; only the first settle wins, and the call observes exactly one
// terminal state.
type settlement struct {
	once    sync.Once
	done    chan struct{}
	outcome outcome
}

func newSettlement() *settlement {
	return &settlement{
		done: make(chan struct{}),
	}
}

// settle attempts to commit an outcome. It returns true for the single
// winning caller and false for every later attempt.
func (s *settlement) settle(o outcome) bool {
	won := false
	s.once.Do(func() {
		s.outcome = o
		won = true
		close(s.done)
	})
	return won
}

// wait blocks until an outcome has been committed and returns it.
func (s *settlement) wait() outcome {
	<-s.done
	return s.outcome
}
