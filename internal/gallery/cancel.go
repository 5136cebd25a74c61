package gallery

import (
	"context"
	"sync"
	"sync/atomic"
)

// CancelToken is a cooperative cancellation signal for one scan. Cancel may
// be called from any goroutine; workers poll IsCancelled, and blocking
// waits select on Done.
type CancelToken struct {
	cancelled atomic.Bool

	mu   sync.Mutex
	done chan struct{}
}

// NewCancelToken returns an armed token.
func NewCancelToken() *CancelToken {
	return &CancelToken{done: make(chan struct{})}
}

// Cancel requests cancellation. Calling it more than once is harmless.
func (t *CancelToken) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled.Load() {
		return
	}
	t.cancelled.Store(true)
	close(t.doneLocked())
}

// IsCancelled reports whether Cancel has been called since the last Reset.
// A nil token is never cancelled.
func (t *CancelToken) IsCancelled() bool {
	return t != nil && t.cancelled.Load()
}

// Done returns a channel that is closed by Cancel. A nil token returns a
// nil channel, which never becomes ready.
func (t *CancelToken) Done() <-chan struct{} {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.doneLocked()
}

// Reset re-arms the token.
func (t *CancelToken) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled.Load() {
		t.cancelled.Store(false)
		t.done = make(chan struct{})
	}
}

func (t *CancelToken) doneLocked() chan struct{} {
	if t.done == nil {
		t.done = make(chan struct{})
	}
	return t.done
}

// withToken returns a context that ends when ctx ends or token is
// cancelled. The returned stop function must be called to release it.
func withToken(ctx context.Context, token *CancelToken) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	done := token.Done()
	go func() {
		select {
		case <-done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
