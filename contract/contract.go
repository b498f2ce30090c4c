package contract

import (
	"context"
	"reflect"
)

// Delivery is one inbound broker message, stripped of transport details.
type Delivery struct {
	CorrelationID string
	ReplyTo       string
	Body          []byte
}

// PublishOptions carries the optional per-message broker metadata.
type PublishOptions struct {
	CorrelationID string
	ReplyTo       string
}

// Gateway exposes the four broker capabilities the client consumes:
// a point-to-point control destination, fanout broadcast destinations,
// ephemeral auto-named queues, and correlation/reply-to metadata.
type Gateway interface {
	// TransientQueue declares a fresh exclusive auto-delete queue and,
	// when exchange is non-empty, binds it to that fanout exchange.
	// Returns the broker-generated queue name.
	TransientQueue(exchange string) (string, error)
	// Consume starts delivering messages from queue on the returned channel.
	// The channel is closed when the gateway closes or ctx is canceled.
	Consume(ctx context.Context, queue string) (<-chan Delivery, error)
	// Publish sends body to exchange/key. An empty exchange targets the
	// broker's default (point-to-point) exchange with key as queue name.
	Publish(ctx context.Context, exchange, key string, opts PublishOptions, body []byte) error
	Close() error
}

// Style selects how a transcript line is rendered.
type Style int

const (
	StylePlain Style = iota
	StyleBold
	StyleServer
	StyleError
)

// DisplaySink is the passive rendering surface. The client only writes to it.
type DisplaySink interface {
	AppendLine(text string, style Style)
	AddUser(name string)
	RemoveUser(name string)
	ClearUsers()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
