package notify

import (
	"context"
	"sync"
)

// Topics keeps one Notifier per user, so a subscriber only sees snapshots of
// its own playlists. A topic exists while it has subscribers; publishing to a
// user nobody listens to is a no-op.
type Topics struct {
	mu      sync.Mutex
	buffer  int
	topics  map[string]*Notifier
	retired uint64
	closed  bool
}

// NewTopics creates an empty registry whose notifiers use buffer.
func NewTopics(buffer int) *Topics {
	return &Topics{buffer: buffer, topics: make(map[string]*Notifier)}
}

// Publish delivers snapshot to the subscribers of userID.
func (t *Topics) Publish(userID string, snapshot Snapshot) {
	t.mu.Lock()
	n := t.topics[userID]
	t.mu.Unlock()

	if n != nil {
		n.Publish(snapshot)
	}
}

// Subscribe follows the snapshots published for userID.
func (t *Topics) Subscribe(ctx context.Context, userID string) (<-chan Snapshot, func()) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		ch := make(chan Snapshot)
		close(ch)
		return ch, func() {}
	}
	n, ok := t.topics[userID]
	if !ok {
		n = New(t.buffer)
		t.topics[userID] = n
	}
	ch, cancel := n.Subscribe(ctx)
	t.mu.Unlock()

	var once sync.Once
	done := func() {
		once.Do(func() {
			cancel()
			t.release(userID, n)
		})
	}
	stop := context.AfterFunc(ctx, done)

	return ch, func() {
		stop()
		done()
	}
}

// release drops the topic of userID once its last subscriber is gone.
func (t *Topics) release(userID string, n *Notifier) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.topics[userID] != n || n.Subscribers() > 0 {
		return
	}
	delete(t.topics, userID)
	t.retired += n.Dropped()
}

// Subscribers returns the number of subscribers across all users.
func (t *Topics) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := 0
	for _, n := range t.topics {
		total += n.Subscribers()
	}
	return total
}

// Dropped returns how many snapshots were discarded across all users.
func (t *Topics) Dropped() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := t.retired
	for _, n := range t.topics {
		total += n.Dropped()
	}
	return total
}

// Close ends every subscription.
func (t *Topics) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	for userID, n := range t.topics {
		n.Close()
		t.retired += n.Dropped()
		delete(t.topics, userID)
	}
}
