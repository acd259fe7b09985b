// Package push receives the shopper's realtime events from a Pub/Sub
// subscription and hands them to a single handler until unsubscribed.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-sync/internal/identity"
	"github.com/angelmondragon/storefront-sync/pkg/logger"
)

// Event is one message on the push channel.
type Event struct {
	Type       string           `json:"type"`
	ID         string           `json:"id"`
	OrderID    string           `json:"orderId,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Status     string           `json:"status,omitempty"`
	VendorName string           `json:"vendorName,omitempty"`
	Title      string           `json:"title,omitempty"`
	Message    string           `json:"message,omitempty"`
}

// UnmarshalJSON accepts ids as strings, numbers or {_id|id} objects.
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	var wire struct {
		plain
		ID      json.RawMessage `json:"id"`
		OrderID json.RawMessage `json:"orderId"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*e = Event(wire.plain)
	if len(wire.ID) > 0 {
		e.ID = identity.Resolve(wire.ID)
	}
	if len(wire.OrderID) > 0 {
		e.OrderID = identity.Resolve(wire.OrderID)
	}
	return nil
}

// Handler consumes decoded events.
type Handler func(ctx context.Context, event Event)

// Receiver is the blocking receive loop of a subscription.
// *pubsub.Subscriber satisfies it.
type Receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// Source opens push subscriptions over one Receiver.
type Source struct {
	receiver Receiver
	logg     *logger.Logger
}

// NewSource wraps receiver. A nil logger logs nowhere.
func NewSource(receiver Receiver, logg *logger.Logger) (*Source, error) {
	if receiver == nil {
		return nil, fmt.Errorf("push receiver required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Source{receiver: receiver, logg: logg}, nil
}

// Subscription is a live push channel. Unsubscribe stops delivery; events
// that arrive afterwards are dropped.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once
	err    error
}

// Subscribe starts receiving in the background. handler is never called
// after Unsubscribe returns.
func (s *Source) Subscribe(ctx context.Context, handler Handler) (*Subscription, error) {
	if handler == nil {
		return nil, fmt.Errorf("push handler required")
	}
	recvCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		err := s.receiver.Receive(recvCtx, func(msgCtx context.Context, msg *pubsub.Message) {
			s.deliver(msgCtx, sub, handler, msg)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			sub.err = err
			s.logg.Error(ctx, "push receive stopped", err)
		}
	}()

	return sub, nil
}

func (s *Source) deliver(ctx context.Context, sub *Subscription, handler Handler, msg *pubsub.Message) {
	// acked either way: the channel is a best-effort feed, replays would only
	// duplicate notifications
	defer msg.Ack()

	if sub.closed.Load() {
		return
	}

	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "message_id", msg.ID), fmt.Sprintf("dropping undecodable push event: %v", err))
		return
	}
	if strings.TrimSpace(event.ID) == "" {
		event.ID = msg.ID
	}
	if event.Type == "" {
		event.Type = msg.Attributes["type"]
	}

	if sub.closed.Load() {
		return
	}
	handler(s.logg.WithEventType(ctx, event.Type), event)
}

// Unsubscribe tears the channel down and waits for the receive loop to
// exit. Calling it more than once is safe.
func (sub *Subscription) Unsubscribe() {
	if sub == nil {
		return
	}
	sub.once.Do(func() {
		sub.closed.Store(true)
		sub.cancel()
		<-sub.done
	})
}

// Done is closed once the receive loop has exited.
func (sub *Subscription) Done() <-chan struct{} {
	return sub.done
}

// Err returns the error that stopped the receive loop, if any. Only
// meaningful after Done is closed.
func (sub *Subscription) Err() error {
	select {
	case <-sub.done:
		return sub.err
	default:
		return nil
	}
}
