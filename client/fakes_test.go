package client

import (
	"context"
	"fmt"
	"sync"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/wire"
)

// fakeGateway is an in-memory broker scripted as the server peer. Publishes
// to the control queue invoke onControl; broadcast publishes fan out to
// every queue bound to the exchange, like the real fanout delivery.
type fakeGateway struct {
	mu       sync.Mutex
	seq      int
	queues   map[string]chan contract.Delivery
	bindings map[string][]string // exchange -> queue names

	onControl  func(opts contract.PublishOptions, body []byte)
	publishErr error
	closed     bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		queues:   make(map[string]chan contract.Delivery),
		bindings: make(map[string][]string),
	}
}

func (g *fakeGateway) TransientQueue(exchange string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	name := fmt.Sprintf("amq.gen-%d", g.seq)
	g.queues[name] = make(chan contract.Delivery, 16)
	if exchange != "" {
		g.bindings[exchange] = append(g.bindings[exchange], name)
	}
	return name, nil
}

func (g *fakeGateway) Consume(ctx context.Context, queue string) (<-chan contract.Delivery, error) {
	g.mu.Lock()
	source, ok := g.queues[queue]
	g.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown queue %q", queue)
	}
	out := make(chan contract.Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-source:
				if !ok {
					return
				}
				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (g *fakeGateway) Publish(ctx context.Context, exchange, key string, opts contract.PublishOptions, body []byte) error {
	g.mu.Lock()
	err := g.publishErr
	onControl := g.onControl
	g.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPublish, err)
	}

	if exchange == "" {
		if key == wire.ControlQueue && onControl != nil {
			onControl(opts, body)
			return nil
		}
		g.deliver(key, contract.Delivery{
			CorrelationID: opts.CorrelationID,
			ReplyTo:       opts.ReplyTo,
			Body:          body,
		})
		return nil
	}

	g.mu.Lock()
	bound := append([]string(nil), g.bindings[exchange]...)
	g.mu.Unlock()
	for _, queue := range bound {
		g.deliver(queue, contract.Delivery{Body: body})
	}
	return nil
}

func (g *fakeGateway) deliver(queue string, d contract.Delivery) {
	g.mu.Lock()
	target, ok := g.queues[queue]
	g.mu.Unlock()
	if ok {
		target <- d
	}
}

func (g *fakeGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

func (g *fakeGateway) failPublishes(err error) {
	g.mu.Lock()
	g.publishErr = err
	g.mu.Unlock()
}

// replyWith scripts the server's answer to a connect request: the three
// frames, in wire order, on the caller's reply queue.
func (g *fakeGateway) replyWith(accepted bool, history []domain.Message, roster []string) {
	g.mu.Lock()
	g.onControl = func(opts contract.PublishOptions, _ []byte) {
		frames := [][]byte{
			mustEncode(wire.EncodeAccepted(accepted)),
			mustEncode(wire.EncodeHistory(history)),
			mustEncode(wire.EncodeRoster(roster)),
		}
		for _, frame := range frames {
			g.deliver(opts.ReplyTo, contract.Delivery{
				CorrelationID: opts.CorrelationID,
				Body:          frame,
			})
		}
	}
	g.mu.Unlock()
}

func mustEncode(body []byte, err error) []byte {
	if err != nil {
		panic(err)
	}
	return body
}

type sinkLine struct {
	Text  string
	Style contract.Style
}

// recordingSink captures everything the controller writes to the display.
type recordingSink struct {
	mu    sync.Mutex
	lines []sinkLine
	users []string
}

func (s *recordingSink) AppendLine(text string, style contract.Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, sinkLine{Text: text, Style: style})
}

func (s *recordingSink) AddUser(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, name)
}

func (s *recordingSink) RemoveUser(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.users {
		if existing == name {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return
		}
	}
}

func (s *recordingSink) ClearUsers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = nil
}

func (s *recordingSink) Lines() []sinkLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sinkLine(nil), s.lines...)
}

func (s *recordingSink) StyledLines(style contract.Style) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, line := range s.lines {
		if line.Style == style {
			out = append(out, line.Text)
		}
	}
	return out
}

func (s *recordingSink) Users() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.users...)
}
