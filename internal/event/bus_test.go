package event

import (
	"errors"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"map-viewer/internal/metrics"
	"map-viewer/pkg/maperr"
)

func recorder(calls *[]string, name string) Handler {
	return func(Event) error {
		*calls = append(*calls, name)
		return nil
	}
}

func TestEmitSubscriptionOrder(t *testing.T) {
	b := NewBus(nil, nil)
	var calls []string
	for _, name := range []string{"first", "second", "third"} {
		if _, err := b.Subscribe(LeftClick, name, recorder(&calls, name)); err != nil {
			t.Fatalf("Subscribe(%s): %v", name, err)
		}
	}
	b.Subscribe(DoubleClick, "other", recorder(&calls, "other"))

	b.Emit(Event{Kind: LeftClick})
	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestUnsubscribeRemovesExactlyOne(t *testing.T) {
	b := NewBus(nil, nil)
	var calls []string
	h1, _ := b.Subscribe(LeftClick, "a", recorder(&calls, "a"))
	h2, _ := b.Subscribe(LeftClick, "a", recorder(&calls, "a"))

	if err := b.Unsubscribe(h1); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if b.Registered(h1) || !b.Registered(h2) {
		t.Fatalf("Registered(h1)=%v Registered(h2)=%v", b.Registered(h1), b.Registered(h2))
	}
	b.Emit(Event{Kind: LeftClick})
	if len(calls) != 1 {
		t.Errorf("handler called %d times, want 1", len(calls))
	}
	if b.Count(LeftClick) != 1 {
		t.Errorf("Count = %d, want 1", b.Count(LeftClick))
	}
}

func TestUnsubscribeUnknownHandle(t *testing.T) {
	b := NewBus(nil, nil)
	h, _ := b.Subscribe(Scroll, "s", func(Event) error { return nil })
	if err := b.Unsubscribe(h); err != nil {
		t.Fatalf("first Unsubscribe: %v", err)
	}
	tests := []struct {
		name string
		h    Handle
	}{
		{"released", h},
		{"zero", Handle{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.Unsubscribe(tt.h)
			if !maperr.IsInvalidState(err) {
				t.Errorf("Unsubscribe(%s) = %v, want InvalidStateError", tt.name, err)
			}
		})
	}
}

func TestSubscribeRejectsBadInput(t *testing.T) {
	b := NewBus(nil, nil)
	if _, err := b.Subscribe(Kind(-1), "x", func(Event) error { return nil }); err == nil {
		t.Error("expected error for invalid kind")
	}
	if _, err := b.Subscribe(LeftClick, "x", nil); err == nil {
		t.Error("expected error for nil handler")
	}
}

func TestFailingHandlerIsIsolated(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := metrics.New(nil)
	b := NewBus(zap.New(core), m)

	var calls []string
	b.Subscribe(LeftClick, "broken", func(Event) error { return errors.New("boom") })
	b.Subscribe(LeftClick, "panicky", func(Event) error { panic("kaboom") })
	b.Subscribe(LeftClick, "healthy", recorder(&calls, "healthy"))

	b.Emit(Event{Kind: LeftClick})

	if len(calls) != 1 {
		t.Fatalf("healthy handler called %d times, want 1", len(calls))
	}
	entries := logs.FilterMessage("event handler failed").All()
	if len(entries) != 2 {
		t.Fatalf("logged %d failures, want 2", len(entries))
	}
	if got := entries[0].ContextMap()["subscriber"]; got != "broken" {
		t.Errorf("first failure subscriber = %v", got)
	}
	if got := testutil.ToFloat64(m.HandlerFailures(LeftClick.String())); got != 2 {
		t.Errorf("handler failure counter = %v, want 2", got)
	}
}

func TestUnsubscribeDuringDispatch(t *testing.T) {
	b := NewBus(nil, nil)
	var calls []string
	var second Handle
	b.Subscribe(MiddleDragEnd, "first", func(Event) error {
		calls = append(calls, "first")
		return b.Unsubscribe(second)
	})
	second, _ = b.Subscribe(MiddleDragEnd, "second", recorder(&calls, "second"))

	b.Emit(Event{Kind: MiddleDragEnd})
	if !reflect.DeepEqual(calls, []string{"first"}) {
		t.Errorf("calls = %v, want only first", calls)
	}
}

func TestSubscribeDuringDispatchWaitsForNextEvent(t *testing.T) {
	b := NewBus(nil, nil)
	var calls []string
	b.Subscribe(LeftClick, "first", func(Event) error {
		calls = append(calls, "first")
		if len(calls) == 1 {
			_, err := b.Subscribe(LeftClick, "late", recorder(&calls, "late"))
			return err
		}
		return nil
	})
	b.Emit(Event{Kind: LeftClick})
	if !reflect.DeepEqual(calls, []string{"first"}) {
		t.Fatalf("calls after first emit = %v", calls)
	}
	b.Emit(Event{Kind: LeftClick})
	if !reflect.DeepEqual(calls, []string{"first", "first", "late"}) {
		t.Errorf("calls after second emit = %v", calls)
	}
}

func TestKindString(t *testing.T) {
	if LeftClick.String() == MiddleDragStart.String() {
		t.Error("kind names should be distinct")
	}
	if Kind(999).Valid() {
		t.Error("Kind(999) should be invalid")
	}
}
