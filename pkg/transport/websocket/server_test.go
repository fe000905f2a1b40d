package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tunnelvision/server/internal/logging"
	"github.com/tunnelvision/server/pkg/relay"
)

const testHash = "aaaaaaaaaaaaaaaaaaaaaa" // 22 bytes

type testRelay struct {
	url      string
	registry *relay.Registry
	hub      *relay.Hub
}

// startRelay spins up a relay server on a loopback listener and returns
// its ws:// URL. Keepalive is disabled so tests see only their own frames.
func startRelay(t *testing.T) *testRelay {
	t.Helper()

	registry := relay.NewRegistry()
	hub := relay.NewHub(64)

	server := NewServer(
		WithRegistry(registry),
		WithHub(hub),
		WithLogger(logging.New(logging.Config{Level: "error", Format: "text"})),
		WithPingInterval(0),
	)

	ts := httptest.NewServer(http.HandlerFunc(server.ServeHTTP))
	t.Cleanup(ts.Close)

	return &testRelay{
		url:      "ws" + strings.TrimPrefix(ts.URL, "http"),
		registry: registry,
		hub:      hub,
	}
}

func dialClient(t *testing.T, url string) *Client {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := Dial(ctx, url, DefaultConnOptions())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return client
}

func readEnvelope(t *testing.T, client *Client) relay.Envelope {
	t.Helper()

	type result struct {
		env relay.Envelope
		err error
	}

	ch := make(chan result, 1)
	go func() {
		env, err := client.ReadEnvelope()
		ch <- result{env, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			t.Fatalf("read failed: %v", res.err)
		}
		return res.env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for envelope")
		return relay.Envelope{}
	}
}

func waitForRegistration(t *testing.T, registry *relay.Registry, hash string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := registry.Lookup(hash); ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("identifier %q never registered", hash)
}

func waitForEmptyRegistry(t *testing.T, registry *relay.Registry) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if registry.Len() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("registry still holds %d entries", registry.Len())
}

func TestServerBroadcastsText(t *testing.T) {
	rly := startRelay(t)

	viewer := dialClient(t, rly.url)
	sharer := dialClient(t, rly.url)

	if err := sharer.SendText("cursor 10,20"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	for _, client := range []*Client{viewer, sharer} {
		env := readEnvelope(t, client)
		if env.Kind != relay.KindText || env.Text != "cursor 10,20" {
			t.Errorf("expected text broadcast, got %s %q", env.Kind, env.Text)
		}
	}
}

func TestServerRoutesBinaryToRegisteredPeer(t *testing.T) {
	rly := startRelay(t)

	viewer := dialClient(t, rly.url)
	sharer := dialClient(t, rly.url)

	if err := viewer.Register(testHash); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// The handshake rebroadcast reaches both peers; drain it before the
	// binary frame.
	readEnvelope(t, viewer)
	readEnvelope(t, sharer)
	waitForRegistration(t, rly.registry, testHash)

	if err := sharer.SendTo(testHash, []byte{0x89, 0x50, 0x4e, 0x47}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	env := readEnvelope(t, viewer)
	if env.Kind != relay.KindBinary {
		t.Fatalf("expected binary frame, got %s", env.Kind)
	}
	if string(env.Data) != "\x89PNG" {
		t.Errorf("expected header-stripped body, got %q", env.Data)
	}
}

func TestServerSendToRejectsBadIdentifier(t *testing.T) {
	rly := startRelay(t)
	client := dialClient(t, rly.url)

	if err := client.SendTo("short", []byte("body")); err == nil {
		t.Error("identifier of the wrong length should be rejected before sending")
	}
}

func TestServerClosesCleanUpRegistrations(t *testing.T) {
	rly := startRelay(t)

	client := dialClient(t, rly.url)

	if err := client.Register(testHash); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	waitForRegistration(t, rly.registry, testHash)

	if err := client.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	waitForEmptyRegistry(t, rly.registry)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && rly.hub.SubscriberCount() > 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if rly.hub.SubscriberCount() != 0 {
		t.Errorf("expected no subscribers after disconnect, got %d", rly.hub.SubscriberCount())
	}
}

func TestServerRejectsPlainHTTP(t *testing.T) {
	rly := startRelay(t)

	httpURL := "http" + strings.TrimPrefix(rly.url, "ws")
	resp, err := http.Get(httpURL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusSwitchingProtocols {
		t.Error("plain GET without upgrade headers should not switch protocols")
	}
}
