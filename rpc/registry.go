// Package rpc pairs outgoing requests with their asynchronous replies.
//
// A reply is not necessarily one frame: the connect exchange answers with
// three independently delivered frames consumed in a fixed order, so a
// call's rendezvous slot is a buffered channel sized to the reply arity,
// drained first-in-first-out by the awaiting caller.
package rpc

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"chat-relay/errors"
)

// Call is one outstanding request. Frames resolved for its correlation id
// are buffered in order until the caller drains them with Next.
type Call struct {
	CorrelationID string
	frames        chan []byte
	closed        chan struct{}
}

// Next blocks until the next reply frame is available, the context expires,
// or the registry shuts down.
func (c *Call) Next(ctx context.Context) ([]byte, error) {
	select {
	case body := <-c.frames:
		return body, nil
	case <-c.closed:
		return nil, errors.ErrRegistryClosed
	case <-ctx.Done():
		return nil, errors.ErrReplyTimeout
	}
}

// Registry tracks pending calls by correlation id.
// Safe for concurrent use: Resolve runs on broker delivery goroutines while
// Issue/Forget run on the caller's.
type Registry struct {
	mu      sync.Mutex
	pending map[string]*Call
	closed  chan struct{}
	log     *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		pending: make(map[string]*Call),
		closed:  make(chan struct{}),
		log:     log,
	}
}

// Issue registers a fresh call expecting arity reply frames and returns it.
func (r *Registry) Issue(arity int) *Call {
	call := &Call{
		CorrelationID: uuid.NewString(),
		frames:        make(chan []byte, arity),
		closed:        r.closed,
	}
	r.mu.Lock()
	r.pending[call.CorrelationID] = call
	r.mu.Unlock()
	return call
}

// Resolve deposits one reply frame for corrID. Frames for unknown or
// already forgotten calls are dropped: they belong to no live request.
func (r *Registry) Resolve(corrID string, body []byte) bool {
	r.mu.Lock()
	call, ok := r.pending[corrID]
	r.mu.Unlock()
	if !ok {
		r.log.Debug("Dropping uncorrelated reply", "correlation_id", corrID)
		return false
	}
	select {
	case call.frames <- body:
		return true
	default:
		// Slot already holds the full reply; an extra frame is a
		// protocol violation from the peer, not our problem.
		r.log.Debug("Dropping overflow reply frame", "correlation_id", corrID)
		return false
	}
}

// Forget abandons a call. Late frames for it will be dropped by Resolve.
func (r *Registry) Forget(corrID string) {
	r.mu.Lock()
	delete(r.pending, corrID)
	r.mu.Unlock()
}

// Close fails every outstanding Next and makes further resolves drop.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	select {
	case <-r.closed:
		return
	default:
	}
	close(r.closed)
	r.pending = make(map[string]*Call)
}
