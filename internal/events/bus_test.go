package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus()
	var got []string

	bus.Subscribe(func(e Event) { got = append(got, "a:"+e.Kind.String()) })
	bus.Subscribe(func(e Event) { got = append(got, "b:"+e.ListTitle) })

	bus.Publish(Event{Kind: ListsChanged, ListTitle: "Iliad 1"})

	assert.Equal(t, []string{"a:lists-changed", "b:Iliad 1"}, got)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsubscribe := bus.Subscribe(func(Event) { calls++ })

	bus.Publish(Event{Kind: LemmaChanged, LemmaID: 1})
	unsubscribe()
	unsubscribe()
	bus.Publish(Event{Kind: LemmaChanged, LemmaID: 1})

	assert.Equal(t, 1, calls)
}

func TestNilBusPublish(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() { bus.Publish(Event{Kind: LemmaChanged}) })
}

func TestSubscriberMayUnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus()
	var unsubscribe func()
	calls := 0
	unsubscribe = bus.Subscribe(func(Event) {
		calls++
		unsubscribe()
	})

	bus.Publish(Event{Kind: ListsChanged})
	bus.Publish(Event{Kind: ListsChanged})

	assert.Equal(t, 1, calls)
}
