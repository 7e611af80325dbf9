package realtime

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"
)

func TestHubDeliversToAllSubscribers(t *testing.T) {
	h := NewHub()
	id1, ch1 := h.Subscribe()
	_, ch2 := h.Subscribe()

	if err := h.NotifyNextInvoice(context.Background(), "0002"); err != nil {
		t.Fatalf("notify: %v", err)
	}

	for _, ch := range []<-chan Event{ch1, ch2} {
		ev := <-ch
		if ev.Name != EventNextInvoice {
			t.Errorf("event name = %q", ev.Name)
		}
		var p nextInvoicePayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil || p.NewInvoiceCode != "0002" {
			t.Errorf("payload = %s (%v)", ev.Payload, err)
		}
	}

	h.Unsubscribe(id1)
	if _, ok := <-ch1; ok {
		t.Error("channel still open after unsubscribe")
	}
	if h.Subscribers() != 1 {
		t.Errorf("subscribers = %d, want 1", h.Subscribers())
	}
	h.Unsubscribe(id1)
}

func TestHubDropsForSlowSubscribers(t *testing.T) {
	h := NewHub()
	_, slow := h.Subscribe()

	for i := 0; i < subscriberBuffer; i++ {
		if n := h.Publish(NextInvoiceEvent("0001")); n != 1 {
			t.Fatalf("publish %d delivered to %d", i, n)
		}
	}

	done := make(chan int)
	go func() { done <- h.Publish(NextInvoiceEvent("0009")) }()
	select {
	case n := <-done:
		if n != 0 {
			t.Errorf("full subscriber got the event")
		}
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	if len(slow) != subscriberBuffer {
		t.Errorf("buffered = %d", len(slow))
	}
}

func TestBridgeRelayIgnoresOwnMessages(t *testing.T) {
	h := NewHub()
	_, ch := h.Subscribe()
	b := NewRedisBridge("127.0.0.1:0", "", 0, "test", h)
	defer b.Close()

	own, _ := json.Marshal(envelope{Origin: b.origin, Event: NextInvoiceEvent("0003")})
	if b.relay(string(own)) {
		t.Error("relayed its own message")
	}
	if b.relay("not json") {
		t.Error("relayed garbage")
	}

	other, _ := json.Marshal(envelope{Origin: "other", Event: NextInvoiceEvent("0004")})
	if !b.relay(string(other)) {
		t.Fatal("message from another instance not relayed")
	}
	ev := <-ch
	var p nextInvoicePayload
	_ = json.Unmarshal(ev.Payload, &p)
	if p.NewInvoiceCode != "0004" {
		t.Errorf("relayed code = %q", p.NewInvoiceCode)
	}
}

func TestRedisBridgeIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hubA, hubB := NewHub(), NewHub()
	a := NewRedisBridge(addr, "", 0, "pos-test-events", hubA)
	b := NewRedisBridge(addr, "", 0, "pos-test-events", hubB)
	defer a.Close()
	defer b.Close()
	if err := a.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	_, ch := hubB.Subscribe()
	go b.Run(ctx)
	time.Sleep(200 * time.Millisecond)

	if err := a.NotifyNextInvoice(ctx, "0005"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	select {
	case ev := <-ch:
		if ev.Name != EventNextInvoice {
			t.Errorf("event = %q", ev.Name)
		}
	case <-ctx.Done():
		t.Fatal("event never reached the other instance")
	}
}
