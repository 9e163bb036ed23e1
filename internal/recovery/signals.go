package recovery

import (
	"os"
	"os/signal"
	"sync"
)

// Signals delivers asynchronous user interrupts to whoever is subscribed.
type Signals interface {
	// Subscribe returns a channel that receives one value per interrupt and a
	// function that ends the subscription.
	Subscribe() (<-chan struct{}, func())
}

// OSSignals relays os.Interrupt to subscribers. Interrupts that arrive while
// nobody is subscribed are dropped rather than killing the process.
type OSSignals struct {
	mu     sync.Mutex
	subs   map[int]chan struct{}
	nextID int

	c    chan os.Signal
	done chan struct{}
	once sync.Once
}

// NotifyInterrupts starts relaying os.Interrupt until Stop is called.
func NotifyInterrupts() *OSSignals {
	s := &OSSignals{
		subs: make(map[int]chan struct{}),
		c:    make(chan os.Signal, 1),
		done: make(chan struct{}),
	}
	signal.Notify(s.c, os.Interrupt)
	go s.loop()
	return s
}

func (s *OSSignals) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Stop restores default interrupt handling.
func (s *OSSignals) Stop() {
	s.once.Do(func() {
		signal.Stop(s.c)
		close(s.done)
	})
}

func (s *OSSignals) loop() {
	for {
		select {
		case <-s.c:
			s.broadcast()
		case <-s.done:
			return
		}
	}
}

func (s *OSSignals) broadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// ManualSignals is a Signals driven by Fire, for embedding and tests.
type ManualSignals struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

func NewManualSignals() *ManualSignals {
	return &ManualSignals{subs: make(map[int]chan struct{})}
}

func (m *ManualSignals) Subscribe() (<-chan struct{}, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	ch := make(chan struct{}, 1)
	m.subs[id] = ch
	return ch, func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Fire delivers one interrupt and reports how many subscribers received it.
func (m *ManualSignals) Fire() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, ch := range m.subs {
		select {
		case ch <- struct{}{}:
			n++
		default:
		}
	}
	return n
}

// Subscribers reports the number of live subscriptions.
func (m *ManualSignals) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// Relay holds one subscription to an upstream Signals for its whole lifetime
// and fans interrupts out to its own subscribers. Interrupts that arrive
// between subscriptions are dropped here instead of upstream.
type Relay struct {
	fan         *ManualSignals
	unsubscribe func()
	done        chan struct{}
	stopped     chan struct{}
	once        sync.Once
}

// NewRelay subscribes to up until Close.
func NewRelay(up Signals) *Relay {
	ch, unsubscribe := up.Subscribe()
	r := &Relay{
		fan:         NewManualSignals(),
		unsubscribe: unsubscribe,
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	go func() {
		defer close(r.stopped)
		for {
			select {
			case <-ch:
				r.fan.Fire()
			case <-r.done:
				return
			}
		}
	}()
	return r
}

func (r *Relay) Subscribe() (<-chan struct{}, func()) { return r.fan.Subscribe() }

// Close ends the upstream subscription and waits for the relay to stop.
func (r *Relay) Close() {
	r.once.Do(func() {
		close(r.done)
		<-r.stopped
		r.unsubscribe()
	})
}
