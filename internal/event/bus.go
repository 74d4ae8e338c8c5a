package event

import (
	"fmt"
	"sync"

	"map-viewer/internal/metrics"
	"map-viewer/pkg/maperr"

	"go.uber.org/zap"
)

type subscriber struct {
	id   uint64
	name string
	fn   Handler
}

// Bus broadcasts events to every handler subscribed to the event's kind, in
// subscription order. Handlers for the same kind do not know about each other;
// several may react to one gesture.
//
// The bus is driven from the canvas's owning goroutine. The mutex only guards
// the subscriber lists so handlers may subscribe or unsubscribe while an event
// is being dispatched.
type Bus struct {
	mu          sync.Mutex
	nextID      uint64
	subscribers [kindCount][]subscriber
	live        map[uint64]struct{}

	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewBus creates an empty bus. logger and m may be nil.
func NewBus(logger *zap.Logger, m *metrics.Metrics) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		live:    make(map[uint64]struct{}),
		logger:  logger.Named("events"),
		metrics: m,
	}
}

// Subscribe registers fn for kind. name identifies the subscriber in logs.
func (b *Bus) Subscribe(kind Kind, name string, fn Handler) (Handle, error) {
	if !kind.Valid() {
		return Handle{}, fmt.Errorf("subscribe %s: unknown event kind %d", name, int(kind))
	}
	if fn == nil {
		return Handle{}, fmt.Errorf("subscribe %s to %s: nil handler", name, kind)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subscribers[kind] = append(b.subscribers[kind], subscriber{id: id, name: name, fn: fn})
	b.live[id] = struct{}{}
	return Handle{kind: kind, id: id}, nil
}

// Unsubscribe removes exactly the registration identified by h. Unknown or
// already released handles fail with *maperr.InvalidStateError.
func (b *Bus) Unsubscribe(h Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.live[h.id]; !ok || !h.kind.Valid() {
		return &maperr.InvalidStateError{Op: "unsubscribe", Reason: fmt.Sprintf("unknown handle %d for %s", h.id, h.kind)}
	}
	subs := b.subscribers[h.kind]
	for i, s := range subs {
		if s.id == h.id {
			// Copy so snapshots taken by an in-flight Emit stay intact.
			next := make([]subscriber, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			b.subscribers[h.kind] = next
			break
		}
	}
	delete(b.live, h.id)
	return nil
}

// Registered reports whether h is still subscribed.
func (b *Bus) Registered(h Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.live[h.id]
	return ok
}

// Count returns the number of handlers subscribed to kind.
func (b *Bus) Count(kind Kind) int {
	if !kind.Valid() {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers[kind])
}

// Emit delivers ev to every handler currently subscribed to ev.Kind. A handler
// that returns an error or panics is logged and skipped; the remaining
// handlers still run. Handlers removed during dispatch are not called.
func (b *Bus) Emit(ev Event) {
	if !ev.Kind.Valid() {
		b.logger.Warn("dropping event of unknown kind", zap.Int("kind", int(ev.Kind)))
		return
	}
	b.mu.Lock()
	snapshot := b.subscribers[ev.Kind]
	b.mu.Unlock()

	b.metrics.EventDispatched(ev.Kind.String())
	for _, s := range snapshot {
		if !b.stillLive(s.id) {
			continue
		}
		if err := call(s.fn, ev); err != nil {
			b.metrics.HandlerFailed(ev.Kind.String())
			b.logger.Error("event handler failed",
				zap.String("kind", ev.Kind.String()),
				zap.String("subscriber", s.name),
				zap.Error(err))
		}
	}
}

func (b *Bus) stillLive(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.live[id]
	return ok
}

func call(fn Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in handler: %v", r)
		}
	}()
	return fn(ev)
}
