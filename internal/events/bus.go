// Package events notifies interested views that stored user data changed.
package events

import "sync"

// Kind identifies what changed
type Kind int

const (
	// LemmaChanged is published after a lemma's favorite flag or status is written
	LemmaChanged Kind = iota
	// ListsChanged is published after a list or its membership is written
	ListsChanged
)

func (k Kind) String() string {
	switch k {
	case LemmaChanged:
		return "lemma-changed"
	case ListsChanged:
		return "lists-changed"
	default:
		return "unknown"
	}
}

// Event describes one change. LemmaID is set for LemmaChanged and for
// list membership changes; ListTitle is set for list changes.
type Event struct {
	Kind      Kind
	LemmaID   int64
	ListTitle string
}

// Bus delivers events to subscribers synchronously, in subscription order
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
	order  []int
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registers fn and returns a function that removes it
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.order = append(b.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish calls every subscriber with e. Subscribers must not block.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	fns := make([]func(Event), 0, len(b.order))
	for _, id := range b.order {
		fns = append(fns, b.subs[id])
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}
