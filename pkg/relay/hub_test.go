package relay

import (
	"fmt"
	"testing"
	"time"
)

func recvEnvelope(t *testing.T, sub *Subscription) Envelope {
	t.Helper()

	select {
	case env := <-sub.C():
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for envelope")
		return Envelope{}
	}
}

func TestHubDeliversInPublishOrder(t *testing.T) {
	hub := NewHub(16)
	sub := hub.Subscribe()
	defer sub.Close()

	for i := 0; i < 5; i++ {
		hub.Publish(TextEnvelope(fmt.Sprintf("msg-%d", i)))
	}

	for i := 0; i < 5; i++ {
		env := recvEnvelope(t, sub)
		if want := fmt.Sprintf("msg-%d", i); env.Text != want {
			t.Errorf("expected %s, got %s", want, env.Text)
		}
	}
}

func TestHubNoReplayForLateSubscriber(t *testing.T) {
	hub := NewHub(16)

	hub.Publish(TextEnvelope("before"))

	sub := hub.Subscribe()
	defer sub.Close()

	hub.Publish(TextEnvelope("after"))

	env := recvEnvelope(t, sub)
	if env.Text != "after" {
		t.Errorf("late subscriber should only see new messages, got %s", env.Text)
	}

	select {
	case env := <-sub.C():
		t.Errorf("unexpected extra envelope: %s", env.Text)
	default:
	}
}

func TestHubPublishWithoutSubscribers(t *testing.T) {
	hub := NewHub(4)

	// Must not panic or block.
	hub.Publish(TextEnvelope("into the void"))

	if got := hub.Stats().Published; got != 1 {
		t.Errorf("expected 1 published, got %d", got)
	}
}

func TestHubLaggingSubscriberDropsOldest(t *testing.T) {
	hub := NewHub(4)
	sub := hub.Subscribe()
	defer sub.Close()

	// Nobody is reading; the queue holds 4 and the oldest are shed.
	for i := 0; i < 8; i++ {
		hub.Publish(TextEnvelope(fmt.Sprintf("msg-%d", i)))
	}

	for i := 4; i < 8; i++ {
		env := recvEnvelope(t, sub)
		if want := fmt.Sprintf("msg-%d", i); env.Text != want {
			t.Errorf("expected %s, got %s", want, env.Text)
		}
	}

	if dropped := hub.Stats().Dropped; dropped == 0 {
		t.Error("expected dropped counter to advance")
	}
}

func TestHubSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	hub := NewHub(2)
	slow := hub.Subscribe()
	defer slow.Close()
	fast := hub.Subscribe()
	defer fast.Close()

	// The slow subscriber never reads. Publishing stays non-blocking and
	// the fast subscriber sees every message in order.
	for i := 0; i < 50; i++ {
		hub.Publish(TextEnvelope(fmt.Sprintf("msg-%d", i)))

		env := recvEnvelope(t, fast)
		if want := fmt.Sprintf("msg-%d", i); env.Text != want {
			t.Fatalf("expected %s, got %s", want, env.Text)
		}
	}

	// The laggard missed messages but was not disconnected for it.
	if hub.SubscriberCount() != 2 {
		t.Errorf("expected both subscribers to remain, got %d", hub.SubscriberCount())
	}
}

func TestHubSubscriptionClose(t *testing.T) {
	hub := NewHub(4)
	sub := hub.Subscribe()

	if hub.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.SubscriberCount())
	}

	sub.Close()
	sub.Close() // idempotent

	if hub.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", hub.SubscriberCount())
	}

	// Publishing after the last unsubscribe is a no-op.
	hub.Publish(TextEnvelope("gone"))

	select {
	case env := <-sub.C():
		t.Errorf("closed subscription received %s", env.Text)
	default:
	}
}
