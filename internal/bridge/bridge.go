// Package bridge owns the process's single real input source. A
// dedicated OS thread reads raw bytes, decodes them into events and
// broadcasts each event to every live subscriber. The bridge is an
// explicit handle obtained once at startup and shared by reference;
// subscriber reference counts decide the thread's lifetime.
package bridge

import (
	"errors"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dodorz/vtmux/internal/input"
)

// State is the lifecycle phase of the bridge's reader thread.
type State int

const (
	// StateNotStarted means no subscriber has attached yet.
	StateNotStarted State = iota
	// StateRunning means the reader thread is live.
	StateRunning
	// StateTerminated means the reader thread has exited, either
	// because the source failed or because the last subscriber left.
	StateTerminated
)

const (
	readBufSize    = 4096
	subChanBuffer  = 64
	maxPendingSize = 1 << 20
)

var errNoSubscribers = errors.New("bridge: no subscribers")

// source abstracts the terminal the bridge reads from.
type source interface {
	// ReadInput blocks until input bytes arrive (n > 0) or the
	// terminal was resized (resized true, n == 0).
	ReadInput(p []byte) (n int, resized bool, err error)
	// Size reports the current terminal size in cells.
	Size() (rows, cols int, err error)
	Close() error
}

// Bridge broadcasts decoded input events from one source to any number
// of subscribers.
type Bridge struct {
	src source

	mu      sync.Mutex
	subs    map[uint64]*Subscription
	nextID  uint64
	state   State
	started bool
	err     error
}

// New opens the process's controlling terminal as the input source.
func New() (*Bridge, error) {
	src, err := openTTY()
	if err != nil {
		return nil, err
	}
	return newWithSource(src), nil
}

func newWithSource(src source) *Bridge {
	return &Bridge{
		src:  src,
		subs: make(map[uint64]*Subscription),
	}
}

// State reports the reader thread's lifecycle phase.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Err returns the source error that terminated the bridge, if any.
func (b *Bridge) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Subscription is one consumer's view of the event stream.
type Subscription struct {
	b    *Bridge
	id   uint64
	ch   chan input.Event
	once sync.Once
}

// Events returns the subscriber's event channel. The channel is closed
// when the subscription is closed or the bridge terminates.
func (s *Subscription) Events() <-chan input.Event { return s.ch }

// Close detaches the subscriber. Closing the last subscription makes
// the reader thread exit on its next publish attempt.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		if _, live := s.b.subs[s.id]; live {
			delete(s.b.subs, s.id)
			close(s.ch)
		}
	})
}

// Subscribe attaches a new consumer, starting the reader thread on the
// first call. Subscribing to a terminated bridge yields a subscription
// whose channel is already closed.
//
// Delivery is best-effort per subscriber: a consumer that falls behind
// its channel buffer misses events instead of stalling the reader
// thread, so a subscription's stream may have gaps under sustained lag.
func (b *Bridge) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		b:  b,
		id: b.nextID,
		ch: make(chan input.Event, subChanBuffer),
	}
	b.nextID++

	if b.state == StateTerminated {
		close(sub.ch)
		return sub
	}

	b.subs[sub.id] = sub
	if !b.started {
		b.started = true
		b.state = StateRunning
		go b.run()
	}
	return sub
}

// publish delivers ev to every live subscriber. A subscriber whose
// channel is full misses the event rather than blocking the thread.
func (b *Bridge) publish(ev input.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.subs) == 0 {
		return errNoSubscribers
	}
	for _, sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			log.Warn("input subscriber lagging, dropping event")
		}
	}
	return nil
}

// terminate transitions to StateTerminated and closes all remaining
// subscriber channels.
func (b *Bridge) terminate(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateTerminated
	b.err = err
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
	_ = b.src.Close()
}

// run is the reader thread. It stays pinned to one OS thread for the
// lifetime of the bridge because terminal reads and signal delivery
// are thread-affine on some platforms.
func (b *Bridge) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	log.Debug("input thread started")

	buf := make([]byte, readBufSize)
	var pending []byte

	for {
		n, resized, err := b.src.ReadInput(buf)
		if err != nil {
			log.Debug("input source failed", "err", err)
			_ = b.publish(input.ErrorEvent{Err: err})
			b.terminate(err)
			return
		}

		if resized {
			rows, cols, err := b.src.Size()
			if err != nil {
				continue
			}
			if b.publish(input.ResizeEvent{Rows: rows, Cols: cols}) != nil {
				b.terminate(nil)
				return
			}
			continue
		}

		pending = append(pending, buf[:n]...)
		if len(pending) > maxPendingSize {
			pending = pending[:0]
			continue
		}

		// A read that filled the buffer means the sequence may
		// continue in bytes not yet read.
		more := n == len(buf)
		for len(pending) > 0 {
			ev, consumed := input.Parse(pending, more)
			if consumed == 0 {
				break
			}
			pending = pending[consumed:]
			if ev == nil {
				continue
			}
			if b.publish(ev) != nil {
				log.Debug("input thread exiting, no subscribers")
				b.terminate(nil)
				return
			}
		}
		if len(pending) == 0 {
			pending = nil
		}
	}
}
