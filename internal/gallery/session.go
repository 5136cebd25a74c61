package gallery

import (
	"context"
	"sync"
)

// Session serializes scans over one Service and tracks the token of the
// scan in flight. A second Scan waits for the first to finish or for its
// own context to end.
type Session struct {
	service *Service
	slot    chan struct{}

	mu     sync.Mutex
	active *CancelToken
}

// NewSession creates a Session for service.
func NewSession(service *Service) *Session {
	return &Session{
		service: service,
		slot:    make(chan struct{}, 1),
	}
}

// Service returns the underlying Service.
func (s *Session) Service() *Service {
	return s.service
}

// Scan runs Service.ScanFolder with a fresh token owned by this session.
// Any Token set in opts is replaced. A ctx that has already ended when the
// slot is acquired returns its error without scanning.
func (s *Session) Scan(ctx context.Context, folder string, maxDimension int, opts ScanOptions) (*ScanResult, error) {
	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.slot }()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	token := NewCancelToken()
	s.setActive(token)
	defer s.setActive(nil)

	opts.Token = token
	return s.service.scan(ctx, folder, maxDimension, opts)
}

// Cancel requests cancellation of the scan in flight. It reports whether
// there was one. Scans started later are unaffected.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return false
	}
	s.active.Cancel()
	return true
}

// Scanning reports whether a scan is in flight.
func (s *Session) Scanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

func (s *Session) setActive(token *CancelToken) {
	s.mu.Lock()
	s.active = token
	s.mu.Unlock()
}
