// Package client owns the session protocol: the correlated connect
// exchange, the fire-and-forget disconnect, outgoing chat publication,
// and the application of inbound broadcast events to session state.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/rpc"
	"chat-relay/wire"
)

// Transcript receives every chat message the client displays.
// Implementations must tolerate being called from delivery goroutines.
type Transcript interface {
	Append(m domain.Message) error
}

// Controller is the client-side state machine. All session state lives
// behind one mutex because broadcast handlers run on listener goroutines
// concurrently with the caller driving Connect/Disconnect/SendMessage.
type Controller struct {
	gateway  contract.Gateway
	registry *rpc.Registry
	sink     contract.DisplaySink
	log      *slog.Logger

	transcript   Transcript // optional
	replyTimeout time.Duration
	now          func() time.Time

	mu      sync.Mutex
	session domain.Session
	roster  *domain.Roster
}

func NewController(
	gateway contract.Gateway,
	registry *rpc.Registry,
	sink contract.DisplaySink,
	transcript Transcript,
	replyTimeout time.Duration,
	log *slog.Logger,
) *Controller {
	return &Controller{
		gateway:      gateway,
		registry:     registry,
		sink:         sink,
		transcript:   transcript,
		replyTimeout: replyTimeout,
		now:          time.Now,
		log:          log,
		roster:       domain.NewRoster(),
	}
}

// Connect reserves name on the server and installs the replayed history
// and current roster. It returns true only when the server accepted the
// name; rejection and transport/timeout failures both leave the session
// untouched and return false.
func (c *Controller) Connect(ctx context.Context, name string) (bool, error) {
	c.mu.Lock()
	if !c.session.CanTransition(domain.Connecting) {
		c.mu.Unlock()
		return false, errors.ErrAlreadyConnected
	}
	c.session.State = domain.Connecting
	c.mu.Unlock()

	accepted, history, roster, err := c.connectRPC(ctx, name)
	if err != nil {
		c.setState(domain.Disconnected)
		c.sink.AppendLine("[Server]: Error with the server, try again or relaunch the app.", contract.StyleError)
		return false, err
	}
	if !accepted {
		c.setState(domain.Disconnected)
		c.sink.AppendLine("[Server]: Error, this name is not available.", contract.StyleError)
		return false, nil
	}

	c.mu.Lock()
	c.session = domain.Session{Name: name, State: domain.Connected}
	c.roster.Replace(roster)
	// The client's own name enters the roster here, never through its
	// own presence broadcast (which is an idempotent no-op by then).
	c.roster.Add(name)
	members := c.roster.Snapshot()
	c.mu.Unlock()

	c.sink.ClearUsers()
	for _, member := range members {
		c.sink.AddUser(member)
	}
	for _, msg := range history {
		c.display(msg)
	}
	c.sink.AppendLine(fmt.Sprintf("[Server]: You are connected as %q.", name), contract.StyleServer)
	return true, nil
}

// connectRPC publishes the connect request with a fresh correlation id and
// an exclusive reply queue, then drains the three reply frames in their
// fixed order. All three are decoded before the accepted flag is acted on:
// a rejecting server still sends well-formed empty placeholders.
func (c *Controller) connectRPC(ctx context.Context, name string) (bool, []domain.Message, []string, error) {
	call := c.registry.Issue(wire.ReplyArity)
	defer c.registry.Forget(call.CorrelationID)

	replyQueue, err := c.gateway.TransientQueue("")
	if err != nil {
		return false, nil, nil, fmt.Errorf("reply queue: %w", err)
	}

	consumeCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	deliveries, err := c.gateway.Consume(consumeCtx, replyQueue)
	if err != nil {
		return false, nil, nil, fmt.Errorf("reply consume: %w", err)
	}
	go func() {
		for d := range deliveries {
			c.registry.Resolve(d.CorrelationID, d.Body)
		}
	}()

	payload, err := wire.EncodePresence(domain.ConnectRequest(name))
	if err != nil {
		return false, nil, nil, err
	}
	opts := contract.PublishOptions{CorrelationID: call.CorrelationID, ReplyTo: replyQueue}
	if err := c.gateway.Publish(ctx, "", wire.ControlQueue, opts, payload); err != nil {
		return false, nil, nil, err
	}

	waitCtx, stopWaiting := context.WithTimeout(ctx, c.replyTimeout)
	defer stopWaiting()

	var frames [wire.ReplyArity][]byte
	for i := range frames {
		frame, err := call.Next(waitCtx)
		if err != nil {
			return false, nil, nil, err
		}
		frames[i] = frame
	}

	accepted, err := wire.DecodeAccepted(frames[0])
	if err != nil {
		return false, nil, nil, err
	}
	history, err := wire.DecodeHistory(frames[1])
	if err != nil {
		return false, nil, nil, err
	}
	roster, err := wire.DecodeRoster(frames[2])
	if err != nil {
		return false, nil, nil, err
	}
	return accepted, history, roster, nil
}

// Disconnect releases the client's name server-side, fire-and-forget.
// When the publish fails the session deliberately stays connected: the
// name may still be reserved on the server and pretending otherwise
// would desynchronize the two peers.
func (c *Controller) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	if !c.session.CanTransition(domain.Disconnecting) {
		c.mu.Unlock()
		return errors.ErrNotConnected
	}
	name := c.session.Name
	c.session.State = domain.Disconnecting
	c.mu.Unlock()

	payload, err := wire.EncodePresence(domain.DisconnectRequest(name))
	if err == nil {
		err = c.gateway.Publish(ctx, "", wire.ControlQueue, contract.PublishOptions{}, payload)
	}
	if err != nil {
		c.setState(domain.Connected)
		c.sink.AppendLine(
			"[Server]: Error, cannot completely disconnect you. Your name may be unavailable until the server restarts.",
			contract.StyleError)
		return fmt.Errorf("disconnect %q: %w", name, err)
	}

	c.mu.Lock()
	c.session = domain.Session{}
	c.roster.Clear()
	c.mu.Unlock()
	c.sink.ClearUsers()
	c.sink.AppendLine("[Server]: Disconnection finished.", contract.StyleServer)
	return nil
}

// SendMessage broadcasts body stamped with the current wall clock. A
// failed publish is reported and otherwise harmless; the session state
// is unaffected. On success no line is emitted here: the message comes
// back through the broadcast listener like everyone else's.
func (c *Controller) SendMessage(ctx context.Context, body string) error {
	c.mu.Lock()
	if c.session.State != domain.Connected {
		c.mu.Unlock()
		return errors.ErrNotConnected
	}
	name := c.session.Name
	c.mu.Unlock()

	msg := domain.NewMessage(name, body, c.now())
	payload, err := wire.EncodeMessage(msg)
	if err == nil {
		err = c.gateway.Publish(ctx, wire.MessagesExchange, "", contract.PublishOptions{}, payload)
	}
	if err != nil {
		c.sink.AppendLine("[Server]: Error, cannot share this message.", contract.StyleError)
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

// HandleMessage displays one inbound chat message.
func (c *Controller) HandleMessage(msg domain.Message) {
	c.display(msg)
}

// HandlePresence applies one roster delta. Membership changes are
// idempotent; the notice line is shown either way, matching the server's
// broadcast rather than local bookkeeping.
func (c *Controller) HandlePresence(evt domain.Presence) {
	c.mu.Lock()
	if evt.Connecting {
		if c.roster.Add(evt.Name) {
			c.mu.Unlock()
			c.sink.AddUser(evt.Name)
		} else {
			c.mu.Unlock()
		}
		c.sink.AppendLine(fmt.Sprintf("%s is connected.", evt.Name), contract.StyleServer)
		return
	}
	if c.roster.Remove(evt.Name) {
		c.mu.Unlock()
		c.sink.RemoveUser(evt.Name)
	} else {
		c.mu.Unlock()
	}
	c.sink.AppendLine(fmt.Sprintf("%s is disconnected.", evt.Name), contract.StyleServer)
}

func (c *Controller) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Connected()
}

func (c *Controller) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Name
}

func (c *Controller) RosterSnapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roster.Snapshot()
}

func (c *Controller) display(msg domain.Message) {
	c.sink.AppendLine(fmt.Sprintf("(%s) %s: %s", msg.Time, msg.Sender, msg.Content), contract.StylePlain)
	if c.transcript != nil {
		if err := c.transcript.Append(msg); err != nil {
			c.log.Warn("Transcript write failed", "error", err)
		}
	}
}

func (c *Controller) setState(s domain.State) {
	c.mu.Lock()
	c.session.State = s
	if s == domain.Disconnected {
		c.session.Name = ""
	}
	c.mu.Unlock()
}
