package dispatcher

import (
	"sync"
	"time"

	"github.com/victoralfred/termexec/executor"
)

// NotificationType identifies a dispatch lifecycle notification.
type NotificationType int

const (
	// CommandStart is published when a command passes validation and is
	// handed to the executor.
	CommandStart NotificationType = iota
	// CommandComplete is published when a command settles successfully.
	CommandComplete
	// CommandError is published when a command settles with an error,
	// including validation denials.
	CommandError
)

// String returns the string representation of the notification type.
func (t NotificationType) String() string {
	switch t {
	case CommandStart:
		return "start"
	case CommandComplete:
		return "complete"
	case CommandError:
		return "error"
	default:
		return "unknown"
	}
}

// Notification is one dispatch lifecycle event.
type Notification struct {
	// Type is the lifecycle phase.
	Type NotificationType

	// Command is the dispatched command string.
	Command string

	// Result is the settled result, set on completion.
	Result *executor.Result

	// Err is the settled error, set on error notifications.
	Err error

	// Time is when the notification was produced.
	Time time.Time
}

// notifyBufferSize bounds each subscriber channel.
const notifyBufferSize = 64

// notifier fans dispatch notifications out to subscribers. Publishing
// never blocks: a subscriber that stops draining loses notifications
// rather than stalling dispatch.
type notifier struct {
	mu     sync.Mutex
	subs   []chan Notification
	closed bool
}

func newNotifier() *notifier {
	return &notifier{}
}

// subscribe registers a new subscriber channel. The channel is closed
// when the notifier shuts down.
func (n *notifier) subscribe() <-chan Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan Notification, notifyBufferSize)
	if n.closed {
		close(ch)
		return ch
	}
	n.subs = append(n.subs, ch)
	return ch
}

// publish delivers a notification to every subscriber without blocking.
func (n *notifier) publish(notification Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	for _, ch := range n.subs {
		select {
		case ch <- notification:
		default:
		}
	}
}

// close shuts the notifier down and closes all subscriber channels.
func (n *notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true

	for _, ch := range n.subs {
		close(ch)
	}
	n.subs = nil
}
