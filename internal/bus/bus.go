package bus

import (
	"log/slog"
	"sort"
	"sync"
)

// Event names published by a REPL session.
const (
	EventSessionStart = "session.start"
	EventSessionEnd   = "session.end"
	EventInterrupted  = "read.interrupted"
	EventFallback     = "read.fallback"
	EventRetry        = "read.retry"
	EventExhausted    = "read.exhausted"
	EventRepaint      = "indent.repaint"
	EventVerdict      = "eval.verdict"
)

// Event is one lifecycle notification.
type Event struct {
	Name    string
	Session string
	Source  string // input adapter involved, if any
	Err     error
	Attrs   map[string]any
}

// EventHandler receives events synchronously on the publishing goroutine.
type EventHandler func(Event)

// Bus fans session events out to subscribers. A nil *Bus drops everything.
type Bus struct {
	subscribers map[string]EventHandler
	subMu       sync.RWMutex
}

func New() *Bus {
	return &Bus{subscribers: make(map[string]EventHandler)}
}

// Subscribe registers handler under id, replacing any previous one.
func (b *Bus) Subscribe(id string, handler EventHandler) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	b.subscribers[id] = handler
}

// Unsubscribe removes a subscriber.
func (b *Bus) Unsubscribe(id string) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	delete(b.subscribers, id)
}

// Publish delivers event to every subscriber in id order. Handlers must not
// block: they run inside the read-eval cycle.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}
	b.subMu.RLock()
	ids := make([]string, 0, len(b.subscribers))
	for id := range b.subscribers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	handlers := make([]EventHandler, len(ids))
	for i, id := range ids {
		handlers[i] = b.subscribers[id]
	}
	b.subMu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// LogHandler writes events to logger at debug level, faults at warn.
func LogHandler(logger *slog.Logger) EventHandler {
	return func(e Event) {
		attrs := []any{"session", e.Session}
		if e.Source != "" {
			attrs = append(attrs, "source", e.Source)
		}
		keys := make([]string, 0, len(e.Attrs))
		for k := range e.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			attrs = append(attrs, k, e.Attrs[k])
		}
		if e.Err != nil {
			logger.Warn(e.Name, append(attrs, "error", e.Err)...)
			return
		}
		logger.Debug(e.Name, attrs...)
	}
}
