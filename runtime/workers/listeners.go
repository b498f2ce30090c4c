package workers

import (
	"context"
	"log/slog"

	"chat-relay/client"
	"chat-relay/contract"
	"chat-relay/wire"
)

// MessageListener drains the chat broadcast stream for the lifetime of
// the client. Each delivery is decoded on its own; a malformed frame is
// dropped so one bad producer cannot kill the subscription.
type MessageListener struct {
	deliveries <-chan contract.Delivery
	controller *client.Controller
	log        *slog.Logger
}

func NewMessageListener(deliveries <-chan contract.Delivery, controller *client.Controller, log *slog.Logger) *MessageListener {
	return &MessageListener{deliveries: deliveries, controller: controller, log: log}
}

func (w *MessageListener) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping message listener")
			return nil
		case d, ok := <-w.deliveries:
			if !ok {
				return nil
			}
			msg, err := wire.DecodeMessage(d.Body)
			if err != nil {
				w.log.Debug("Dropping malformed chat frame", "error", err)
				continue
			}
			w.controller.HandleMessage(msg)
		}
	}
}

// PresenceListener drains the connect/disconnect broadcast stream and
// forwards roster deltas to the controller. Same drop-and-continue
// policy as the message stream.
type PresenceListener struct {
	deliveries <-chan contract.Delivery
	controller *client.Controller
	log        *slog.Logger
}

func NewPresenceListener(deliveries <-chan contract.Delivery, controller *client.Controller, log *slog.Logger) *PresenceListener {
	return &PresenceListener{deliveries: deliveries, controller: controller, log: log}
}

func (w *PresenceListener) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping presence listener")
			return nil
		case d, ok := <-w.deliveries:
			if !ok {
				return nil
			}
			evt, err := wire.DecodePresence(d.Body)
			if err != nil {
				w.log.Debug("Dropping malformed presence frame", "error", err)
				continue
			}
			w.controller.HandlePresence(evt)
		}
	}
}

// Subscribe binds a fresh private queue to exchange and starts consuming
// it. Fanout delivery: every client's queue sees every broadcast.
func Subscribe(ctx context.Context, gateway contract.Gateway, exchange string) (<-chan contract.Delivery, error) {
	queue, err := gateway.TransientQueue(exchange)
	if err != nil {
		return nil, err
	}
	return gateway.Consume(ctx, queue)
}
