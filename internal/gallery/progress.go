package gallery

import (
	"errors"
	"sync"
)

// ProgressEvent is the name under which progress is published to clients.
const ProgressEvent = "thumbnail-progress"

// ErrProgressDropped is returned by Broadcaster.Report when at least one
// subscriber was too slow to receive the event.
var ErrProgressDropped = errors.New("progress event dropped for slow subscriber")

// Progress is emitted once per classified item.
type Progress struct {
	ScanID  string `json:"scanId"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Name    string `json:"name"`
}

// ProgressReporter receives progress events. Delivery is best effort: a
// returned error is logged by the scan and otherwise ignored.
type ProgressReporter interface {
	Report(Progress) error
}

// ProgressFunc adapts a function to ProgressReporter.
type ProgressFunc func(Progress) error

func (f ProgressFunc) Report(p Progress) error {
	return f(p)
}

// Broadcaster fans progress events out to any number of subscribers. Sends
// never block the scan; a full subscriber buffer drops the event.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[chan Progress]struct{}
	buffer int
}

// NewBroadcaster creates a Broadcaster whose subscriber channels hold up to
// buffer pending events.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer < 1 {
		buffer = 1
	}
	return &Broadcaster{
		subs:   make(map[chan Progress]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber. The returned function unsubscribes
// and closes the channel; it is safe to call more than once.
func (b *Broadcaster) Subscribe() (<-chan Progress, func()) {
	ch := make(chan Progress, b.buffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the current subscriber count.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Report implements ProgressReporter.
func (b *Broadcaster) Report(p Progress) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	dropped := false
	for ch := range b.subs {
		select {
		case ch <- p:
		default:
			dropped = true
		}
	}
	if dropped {
		return ErrProgressDropped
	}
	return nil
}
