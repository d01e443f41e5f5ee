package simulator

import (
	"sync"

	"github.com/seantiz/vaultchain/internal/model"
)

// subscriberBufferSize is the channel buffer for each log subscriber.
// Entries are dropped if a subscriber falls this far behind.
const subscriberBufferSize = 64

// LogBroker fans out new vault log entries to subscribers.
// It is safe for concurrent use.
type LogBroker struct {
	mu     sync.Mutex
	topics map[string]*logTopic
	closed bool
}

type logTopic struct {
	subs   map[int]chan model.LogEntry
	nextID int
}

// NewLogBroker creates a new log broker.
func NewLogBroker() *LogBroker {
	return &LogBroker{
		topics: make(map[string]*logTopic),
	}
}

// Subscribe returns a channel that receives log entries for the given vault
// and an unsubscribe function. After Shutdown the returned channel is
// already closed.
func (b *LogBroker) Subscribe(vaultID string) (<-chan model.LogEntry, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan model.LogEntry, subscriberBufferSize)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	t, ok := b.topics[vaultID]
	if !ok {
		t = &logTopic{subs: make(map[int]chan model.LogEntry)}
		b.topics[vaultID] = t
	}

	id := t.nextID
	t.nextID++
	t.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := t.subs[id]; !ok {
			return
		}
		delete(t.subs, id)
		if len(t.subs) == 0 {
			delete(b.topics, vaultID)
		}
	}
}

// Publish sends an entry to all subscribers of the given vault.
// Entries are dropped for subscribers whose buffers are full.
func (b *LogBroker) Publish(vaultID string, e model.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[vaultID]
	if !ok {
		return
	}

	for _, ch := range t.subs {
		select {
		case ch <- e:
		default:
			// Drop for slow subscribers so dispatch never blocks.
		}
	}
}

// Subscribers returns the number of live subscriptions for a vault.
func (b *LogBroker) Subscribers(vaultID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.topics[vaultID]; ok {
		return len(t.subs)
	}
	return 0
}

// Shutdown closes every subscriber channel. Later subscriptions receive a
// closed channel and later publishes are ignored.
func (b *LogBroker) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for vaultID, t := range b.topics {
		for id, ch := range t.subs {
			close(ch)
			delete(t.subs, id)
		}
		delete(b.topics, vaultID)
	}
}
