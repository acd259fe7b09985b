package push

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
)

// chanReceiver delivers queued messages one at a time, like the real
// subscriber with MaxOutstandingMessages=1.
type chanReceiver struct {
	msgs chan *pubsub.Message
	err  error
}

func newChanReceiver() *chanReceiver {
	return &chanReceiver{msgs: make(chan *pubsub.Message, 16)}
}

func (r *chanReceiver) Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error {
	if r.err != nil {
		return r.err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-r.msgs:
			f(ctx, msg)
		}
	}
}

type collector struct {
	mu     sync.Mutex
	events []Event
	seen   chan struct{}
}

func newCollector() *collector {
	return &collector{seen: make(chan struct{}, 16)}
}

func (c *collector) handle(_ context.Context, event Event) {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
	c.seen <- struct{}{}
}

func (c *collector) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscribeDecodesEvents(t *testing.T) {
	recv := newChanReceiver()
	src, err := NewSource(recv, nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	got := newCollector()
	sub, err := src.Subscribe(context.Background(), got.handle)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	recv.msgs <- &pubsub.Message{ID: "m1", Data: []byte(`not json`)}
	recv.msgs <- &pubsub.Message{ID: "m2", Data: []byte(`{"type":"delivery_update","orderId":"o1","status":"shipped","amount":"120.5"}`)}
	waitFor(t, got.seen)

	events := got.snapshot()
	if len(events) != 1 {
		t.Fatalf("expected 1 decoded event, got %d", len(events))
	}
	if events[0].ID != "m2" || events[0].OrderID != "o1" || events[0].Amount == nil {
		t.Fatalf("unexpected event %+v", events[0])
	}
}

func TestSubscribeResolvesNumericAndObjectIDs(t *testing.T) {
	recv := newChanReceiver()
	src, _ := NewSource(recv, nil)
	got := newCollector()
	sub, err := src.Subscribe(context.Background(), got.handle)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	recv.msgs <- &pubsub.Message{ID: "m1", Data: []byte(`{"type":"order_delivered","id":42,"orderId":1001}`)}
	recv.msgs <- &pubsub.Message{ID: "m2", Data: []byte(`{"type":"delivery_update","id":{"_id":"evt-7"},"orderId":{"id":9}}`)}
	waitFor(t, got.seen)
	waitFor(t, got.seen)

	events := got.snapshot()
	if len(events) != 2 {
		t.Fatalf("expected 2 decoded events, got %d", len(events))
	}
	if events[0].ID != "42" || events[0].OrderID != "1001" || events[0].Type != "order_delivered" {
		t.Fatalf("unexpected event %+v", events[0])
	}
	if events[1].ID != "evt-7" || events[1].OrderID != "9" {
		t.Fatalf("unexpected event %+v", events[1])
	}
}

func TestUnsubscribeIsIdempotentAndDropsLateEvents(t *testing.T) {
	recv := newChanReceiver()
	src, _ := NewSource(recv, nil)
	got := newCollector()
	sub, _ := src.Subscribe(context.Background(), got.handle)

	sub.Unsubscribe()
	sub.Unsubscribe()

	select {
	case <-sub.Done():
	default:
		t.Fatal("expected receive loop to have exited")
	}
	if err := sub.Err(); err != nil {
		t.Fatalf("cancellation should not surface as an error, got %v", err)
	}

	// a message that slips through after teardown is dropped
	src.deliver(context.Background(), sub, got.handle, &pubsub.Message{ID: "late", Data: []byte(`{"type":"offer"}`)})
	if n := len(got.snapshot()); n != 0 {
		t.Fatalf("expected no events after teardown, got %d", n)
	}

	var nilSub *Subscription
	nilSub.Unsubscribe()
}

func TestReceiveErrorIsReported(t *testing.T) {
	recv := newChanReceiver()
	recv.err = errors.New("permission denied")
	src, _ := NewSource(recv, nil)
	sub, _ := src.Subscribe(context.Background(), func(context.Context, Event) {})

	<-sub.Done()
	if sub.Err() == nil {
		t.Fatal("expected receive error")
	}
	sub.Unsubscribe()
}

func TestConstructorValidation(t *testing.T) {
	if _, err := NewSource(nil, nil); err == nil {
		t.Fatal("expected error without receiver")
	}
	src, _ := NewSource(newChanReceiver(), nil)
	if _, err := src.Subscribe(context.Background(), nil); err == nil {
		t.Fatal("expected error without handler")
	}
}
