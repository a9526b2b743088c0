// Package scan is the boundary to the physical scanning hardware. The core
// only ever sees decoded text payloads and decode failures; frame rates,
// scan-box geometry and everything else about the scanner stay on the far
// side of the Source interface.
package scan

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned when feeding a source that has been stopped.
var ErrStopped = errors.New("scan source stopped")

// Source is the scan-provider capability: Start yields decoded payloads plus
// a decode-failure channel, and Stop releases the underlying resource on
// every path, even with a decode in flight. Both channels close after Stop.
type Source interface {
	Start(ctx context.Context) (<-chan string, <-chan error, error)
	Stop() error
}

// ChannelSource is an in-process source fed by Emit/Fail. It backs manual
// scan entry and tests.
type ChannelSource struct {
	mu      sync.Mutex
	decoded chan string
	errs    chan error
	stopped bool
}

// NewChannelSource creates a source with the given buffer per channel.
func NewChannelSource(buffer int) *ChannelSource {
	if buffer <= 0 {
		buffer = 16
	}
	return &ChannelSource{
		decoded: make(chan string, buffer),
		errs:    make(chan error, buffer),
	}
}

// Start returns the payload and failure channels.
func (s *ChannelSource) Start(ctx context.Context) (<-chan string, <-chan error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, nil, ErrStopped
	}
	return s.decoded, s.errs, nil
}

// Emit feeds one decoded payload.
func (s *ChannelSource) Emit(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	select {
	case s.decoded <- text:
		return nil
	default:
		return errors.New("scan buffer full")
	}
}

// Fail feeds one decode failure.
func (s *ChannelSource) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	select {
	case s.errs <- err:
	default:
	}
}

// Stop closes both channels. Safe to call more than once.
func (s *ChannelSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.decoded)
	close(s.errs)
	return nil
}
