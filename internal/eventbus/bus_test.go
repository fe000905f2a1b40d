package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPublishNotifiesTypeSubscribers(t *testing.T) {
	bus := NewInMemoryBus(8)

	var got []*Event
	bus.Subscribe(EventPeerConnected, func(event *Event) {
		got = append(got, event)
	})

	bus.Publish(NewEvent(EventPeerConnected, "test", nil))
	bus.Publish(NewEvent(EventPeerDisconnected, "test", nil))

	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Type != EventPeerConnected {
		t.Errorf("expected peer.connected, got %s", got[0].Type)
	}
	if got[0].Source != "test" {
		t.Errorf("expected source test, got %s", got[0].Source)
	}
}

func TestSubscribeAllSeesEveryType(t *testing.T) {
	bus := NewInMemoryBus(8)

	var count int
	bus.SubscribeAll(func(event *Event) {
		count++
	})

	bus.Publish(NewEvent(EventPeerConnected, "test", nil))
	bus.Publish(NewEvent(EventPeerDisconnected, "test", nil))
	bus.Publish(NewEvent(EventError, "test", nil))

	if count != 3 {
		t.Errorf("expected 3 events, got %d", count)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewInMemoryBus(8)

	var count int
	id := bus.Subscribe(EventPeerConnected, func(event *Event) {
		count++
	})

	bus.Publish(NewEvent(EventPeerConnected, "test", nil))
	bus.Unsubscribe(id)
	bus.Publish(NewEvent(EventPeerConnected, "test", nil))

	if count != 1 {
		t.Errorf("expected 1 event after unsubscribe, got %d", count)
	}
}

func TestPublishAsyncDeliversThroughStartedBus(t *testing.T) {
	bus := NewInMemoryBus(8)

	var mu sync.Mutex
	received := make(chan struct{}, 1)
	bus.Subscribe(EventPeerConnected, func(event *Event) {
		mu.Lock()
		defer mu.Unlock()
		select {
		case received <- struct{}{}:
		default:
		}
	})

	bus.Start(context.Background())
	defer bus.Stop()

	bus.PublishAsync(NewEvent(EventPeerConnected, "test", nil))

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("async event never delivered")
	}
}

func TestPublishAsyncDropsWhenFull(t *testing.T) {
	// The bus is never started, so the channel fills up. Publishing past
	// capacity must not block.
	bus := NewInMemoryBus(1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			bus.PublishAsync(NewEvent(EventError, "test", nil))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PublishAsync blocked on a full channel")
	}
}

func TestEventMetadata(t *testing.T) {
	event := NewEvent(EventPeerConnected, "test", nil).
		WithMetadata("handle", "conn-1").
		WithMetadata("remote_addr", "127.0.0.1:50000")

	if event.Metadata["handle"] != "conn-1" {
		t.Errorf("expected metadata handle conn-1, got %s", event.Metadata["handle"])
	}
	if event.ID == "" {
		t.Error("expected generated event id")
	}
	if event.Timestamp.IsZero() {
		t.Error("expected event timestamp")
	}
}
