package api

import (
	"testing"
	"time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	jid := "j1"
	ch := b.Subscribe(jid)

	evt := SSEEvent{Type: "trial.finished", Data: map[string]any{"trial": 1}}
	b.Publish(jid, evt)

	select {
	case got := <-ch:
		if got.Type != evt.Type { t.Fatalf("got type %s, want %s", got.Type, evt.Type) }
		if got.Data["trial"].(int) != 1 { t.Fatalf("bad payload: %+v", got.Data) }
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe(jid, ch)
	select {
	case _, ok := <-ch:
		if ok { t.Fatal("channel should be closed after unsubscribe") }
	case <-time.After(50 * time.Millisecond):
		// acceptable if already drained and closed
	}
}

func TestBrokerIsolatesJobs(t *testing.T) {
	b := NewBroker()
	chA := b.Subscribe("a")
	chB := b.Subscribe("b")
	defer b.Unsubscribe("a", chA)
	defer b.Unsubscribe("b", chB)

	b.Publish("a", SSEEvent{Type: "job.started", Data: map[string]any{"jobId": "a"}})

	select {
	case got := <-chA:
		if got.Data["jobId"].(string) != "a" { t.Fatalf("bad event: %+v", got) }
	case <-time.After(200 * time.Millisecond):
		t.Fatal("subscriber a got nothing")
	}
	select {
	case got := <-chB:
		t.Fatalf("subscriber b leaked event: %+v", got)
	default:
	}
}

func TestBrokerDropsWhenSubscriberFull(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("a")
	defer b.Unsubscribe("a", ch)

	// channel capacity is 16; extra events must not block the publisher
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish("a", SSEEvent{Type: "trial.finished", Data: map[string]any{"trial": i}})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
}
