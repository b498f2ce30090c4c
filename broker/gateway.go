// Package broker adapts the AMQP client to the narrow contract.Gateway
// surface the session protocol needs: transient queues, fanout bindings,
// channel-based consumption, and publication with correlation metadata.
package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"chat-relay/contract"
	"chat-relay/errors"
	"chat-relay/wire"
)

// Gateway is an AMQP-backed contract.Gateway. One broker connection and
// one channel serve the whole client; consumers each get their own
// forwarding goroutine.
type Gateway struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  *slog.Logger

	mu     sync.Mutex
	pubMu  sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// Dial connects to the broker and declares the two fanout broadcast
// exchanges (declaration is idempotent; the server declares them too).
func Dial(url string, log *slog.Logger) (*Gateway, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrBrokerUnreachable, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %v", errors.ErrBrokerUnreachable, err)
	}
	for _, exchange := range []string{wire.MessagesExchange, wire.PresenceExchange} {
		if err := ch.ExchangeDeclare(exchange, "fanout", false, false, false, false, nil); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%w: declare %s: %v", errors.ErrBrokerUnreachable, exchange, err)
		}
	}
	return &Gateway{conn: conn, ch: ch, log: log}, nil
}

// TransientQueue declares a broker-named exclusive auto-delete queue and
// binds it to exchange when one is given. Fanout bindings use an empty
// routing key: every broadcast reaches every bound queue.
func (g *Gateway) TransientQueue(exchange string) (string, error) {
	q, err := g.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return "", fmt.Errorf("declare queue: %w", err)
	}
	if exchange != "" {
		if err := g.ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
			return "", fmt.Errorf("bind %s to %s: %w", q.Name, exchange, err)
		}
	}
	return q.Name, nil
}

// Consume auto-acks: the protocol has no redelivery semantics, a lost
// frame is the same as a dropped malformed one.
func (g *Gateway) Consume(ctx context.Context, queue string) (<-chan contract.Delivery, error) {
	deliveries, err := g.ch.Consume(queue, "", true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", queue, err)
	}
	out := make(chan contract.Delivery)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				select {
				case out <- contract.Delivery{
					CorrelationID: d.CorrelationId,
					ReplyTo:       d.ReplyTo,
					Body:          d.Body,
				}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (g *Gateway) Publish(ctx context.Context, exchange, key string, opts contract.PublishOptions, body []byte) error {
	g.pubMu.Lock()
	defer g.pubMu.Unlock()
	err := g.ch.PublishWithContext(ctx, exchange, key, false, false, amqp.Publishing{
		ContentType:   "application/octet-stream",
		CorrelationId: opts.CorrelationID,
		ReplyTo:       opts.ReplyTo,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPublish, err)
	}
	return nil
}

// Close tears down the connection; every Consume channel closes and the
// forwarding goroutines drain out.
func (g *Gateway) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.mu.Unlock()

	err := g.conn.Close()
	g.wg.Wait()
	if err != nil {
		g.log.Warn("Closing broker connection", "error", err)
	}
	return err
}
