package nav

import (
	"encoding/json"
	"testing"
	"time"

	"wander/models"
)

func recv(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case got := <-c.Send:
		return got
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for event")
		return nil
	}
}

func TestHubRegisterEmitUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &Client{Send: make(chan []byte, 10), UserID: "u1"}
	hub.register <- client

	hub.Emit("u1", Event{Type: "mode", Mode: models.ModeNavigation})

	var got Event
	if err := json.Unmarshal(recv(t, client), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != "mode" || got.Mode != models.ModeNavigation {
		t.Fatalf("unexpected event %+v", got)
	}

	hub.unregister <- client
}

func TestHubFansOutToEveryDevice(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	phone := &Client{Send: make(chan []byte, 10), UserID: "u1"}
	tablet := &Client{Send: make(chan []byte, 10), UserID: "u1"}
	other := &Client{Send: make(chan []byte, 10), UserID: "u2"}
	hub.register <- phone
	hub.register <- tablet
	hub.register <- other

	hub.Emit("u1", Event{Type: "arrival", StopID: "s1"})

	for _, c := range []*Client{phone, tablet} {
		var got Event
		if err := json.Unmarshal(recv(t, c), &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.StopID != "s1" {
			t.Fatalf("expected stop s1, got %+v", got)
		}
	}

	select {
	case msg := <-other.Send:
		t.Fatalf("other user received %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDropsSlowDevice(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	slow := &Client{Send: make(chan []byte, 1), UserID: "u1"}
	hub.register <- slow

	hub.Emit("u1", Event{Type: "recenter"})
	hub.Emit("u1", Event{Type: "recenter"}) // buffer full, device dropped

	if _, open := <-slow.Send; !open {
		t.Fatal("expected the buffered event before close")
	}
	select {
	case _, open := <-slow.Send:
		if open {
			t.Fatal("expected channel closed after drop")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for close")
	}
}
