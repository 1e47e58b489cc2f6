// Package notify broadcasts playlist-list snapshots to in-process subscribers.
package notify

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"chinook/internal/models"
)

// DefaultBuffer is the per-subscriber queue length used when none is configured.
const DefaultBuffer = 8

// Snapshot is a complete copy of a user's playlist list at publish time.
type Snapshot = []models.Playlist

// Notifier is a multicast channel of snapshots. Each subscriber receives
// every snapshot published after it subscribed, in publish order. A
// subscriber that falls behind loses its oldest pending snapshot; Publish
// never blocks.
type Notifier struct {
	mu      sync.Mutex
	subs    map[uint64]chan Snapshot
	nextID  uint64
	buffer  int
	closed  bool
	dropped atomic.Uint64
}

// New creates a Notifier whose subscribers queue up to buffer snapshots.
func New(buffer int) *Notifier {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	return &Notifier{
		subs:   make(map[uint64]chan Snapshot),
		buffer: buffer,
	}
}

// Subscribe registers a subscriber. The returned channel is closed when ctx
// is done, when the cancel func is called or when the Notifier is closed.
func (n *Notifier) Subscribe(ctx context.Context) (<-chan Snapshot, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan Snapshot, n.buffer)
	if n.closed {
		close(ch)
		return ch, func() {}
	}

	id := n.nextID
	n.nextID++
	n.subs[id] = ch

	stop := context.AfterFunc(ctx, func() { n.remove(id) })
	cancel := func() {
		stop()
		n.remove(id)
	}

	log.Debug().Uint64("subscriber", id).Int("subscribers", len(n.subs)).Msg("playlist subscriber added")
	return ch, cancel
}

// Publish delivers snapshot to every current subscriber.
func (n *Notifier) Publish(snapshot Snapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	for id, ch := range n.subs {
		if !n.deliver(ch, models.ClonePlaylists(snapshot)) {
			log.Debug().Uint64("subscriber", id).Msg("playlist snapshot dropped")
		}
	}
}

// deliver sends s, evicting the oldest queued snapshot when the queue is
// full. It reports false when a snapshot was dropped. Callers hold n.mu, so
// n is the only sender on ch.
func (n *Notifier) deliver(ch chan Snapshot, s Snapshot) bool {
	select {
	case ch <- s:
		return true
	default:
	}

	select {
	case <-ch:
		n.dropped.Add(1)
	default:
	}

	select {
	case ch <- s:
	default:
		n.dropped.Add(1)
	}
	return false
}

func (n *Notifier) remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch, ok := n.subs[id]
	if !ok {
		return
	}
	delete(n.subs, id)
	close(ch)
}

// Subscribers returns the number of active subscribers.
func (n *Notifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Dropped returns how many snapshots were discarded for slow subscribers.
func (n *Notifier) Dropped() uint64 {
	return n.dropped.Load()
}

// Close ends every subscription. Later publishes are ignored.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
}
