package eventbus

import (
	"errors"
	"sync"
	"testing"
	"time"
)

const (
	kindFoo Kind = "foo"
	kindBar Kind = "bar"

	requestPing RequestKind = "ping"
)

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event delivery")
	}
}

func TestSendEventDeliversToAllSubscribers(t *testing.T) {
	bus := New()
	defer bus.Close()

	var mu sync.Mutex
	var got []string
	done := make(chan struct{}, 2)

	bus.AddListener(kindFoo, func(e Event) {
		mu.Lock()
		got = append(got, "first:"+e.Payload.(string))
		mu.Unlock()
		done <- struct{}{}
	})
	bus.AddListener(kindFoo, func(e Event) {
		mu.Lock()
		got = append(got, "second:"+e.Payload.(string))
		mu.Unlock()
		done <- struct{}{}
	})

	bus.SendEvent(Event{Kind: kindFoo, Payload: "hello"})

	waitFor(t, done)
	waitFor(t, done)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d: %v", len(got), got)
	}
}

func TestSameKindOrderPreservedPerSubscriber(t *testing.T) {
	bus := New()
	defer bus.Close()

	var mu sync.Mutex
	var seq []int
	done := make(chan struct{}, 5)

	bus.AddListener(kindFoo, func(e Event) {
		mu.Lock()
		seq = append(seq, e.Payload.(int))
		mu.Unlock()
		done <- struct{}{}
	})

	for i := 0; i < 5; i++ {
		bus.SendEvent(Event{Kind: kindFoo, Payload: i})
	}
	for i := 0; i < 5; i++ {
		waitFor(t, done)
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range seq {
		if v != i {
			t.Fatalf("expected sequence 0..4 in order, got %v", seq)
		}
	}
}

func TestRemoveListenerIsIdempotentAndStopsDelivery(t *testing.T) {
	bus := New()
	defer bus.Close()

	calls := 0
	var mu sync.Mutex
	done := make(chan struct{}, 1)

	sub := bus.AddListener(kindFoo, func(e Event) {
		mu.Lock()
		calls++
		mu.Unlock()
		done <- struct{}{}
	})

	bus.RemoveListener(sub)
	bus.RemoveListener(sub) // idempotent
	bus.RemoveListener(nil) // no-op, must not panic

	bus.SendEvent(Event{Kind: kindFoo, Payload: "ignored"})

	// Give the dispatch loop a chance to (not) deliver.
	time.Sleep(50 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("listener was invoked after removal")
	default:
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Fatalf("expected 0 calls after removal, got %d", calls)
	}
}

func TestPanickingListenerDoesNotAffectSiblings(t *testing.T) {
	bus := New()
	defer bus.Close()

	done := make(chan struct{}, 1)
	bus.AddListener(kindFoo, func(e Event) {
		panic("boom")
	})
	bus.AddListener(kindFoo, func(e Event) {
		done <- struct{}{}
	})

	bus.SendEvent(Event{Kind: kindFoo})
	waitFor(t, done)
}

func TestUnrelatedKindsDoNotCrossDeliver(t *testing.T) {
	bus := New()
	defer bus.Close()

	fooCh := make(chan struct{}, 1)
	barCh := make(chan struct{}, 1)
	bus.AddListener(kindFoo, func(e Event) { fooCh <- struct{}{} })
	bus.AddListener(kindBar, func(e Event) { barCh <- struct{}{} })

	bus.SendEvent(Event{Kind: kindBar})
	waitFor(t, barCh)

	select {
	case <-fooCh:
		t.Fatal("foo listener should not have been invoked for a bar event")
	default:
	}
}

func TestSynchronousRequestResponse(t *testing.T) {
	bus := New()
	defer bus.Close()

	bus.AddSynchronousListener(requestPing, func(r Request) (interface{}, error) {
		return "pong:" + r.Payload.(string), nil
	})

	resp, ok, err := bus.SendSynchronousEvent(Request{Kind: requestPing, Payload: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected a responder to be registered")
	}
	if resp != "pong:x" {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestSynchronousRequestAbsentResponder(t *testing.T) {
	bus := New()
	defer bus.Close()

	resp, ok, err := bus.SendSynchronousEvent(Request{Kind: requestPing})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected no responder to be registered")
	}
	if resp != nil {
		t.Fatalf("expected nil response, got %v", resp)
	}
}

func TestSynchronousRequestResponderFailurePropagates(t *testing.T) {
	bus := New()
	defer bus.Close()

	wantErr := errors.New("responder failed")
	bus.AddSynchronousListener(requestPing, func(r Request) (interface{}, error) {
		return nil, wantErr
	})

	_, ok, err := bus.SendSynchronousEvent(Request{Kind: requestPing})
	if !ok {
		t.Fatal("expected a responder to be registered")
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected responder error to propagate, got %v", err)
	}
}

func TestSecondSynchronousRegistrationReplacesFirst(t *testing.T) {
	bus := New()
	defer bus.Close()

	bus.AddSynchronousListener(requestPing, func(r Request) (interface{}, error) {
		return "first", nil
	})
	bus.AddSynchronousListener(requestPing, func(r Request) (interface{}, error) {
		return "second", nil
	})

	resp, ok, _ := bus.SendSynchronousEvent(Request{Kind: requestPing})
	if !ok || resp != "second" {
		t.Fatalf("expected second responder to win, got %v (ok=%v)", resp, ok)
	}

	bus.RemoveSynchronousListener(requestPing)
	bus.RemoveSynchronousListener(requestPing) // idempotent

	_, ok, _ = bus.SendSynchronousEvent(Request{Kind: requestPing})
	if ok {
		t.Fatal("expected no responder after removal")
	}
}
