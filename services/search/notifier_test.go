package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotifierDeliversInSubscriptionOrder(t *testing.T) {
	assert := require.New(t)
	n := &Notifier{}

	var order []string
	n.Subscribe(func() { order = append(order, "first") })
	n.Subscribe(func() { order = append(order, "second") })

	n.Notify()
	assert.Equal([]string{"first", "second"}, order)
	assert.Equal(2, n.Len())
}

func TestNotifierUnsubscribeDuringDelivery(t *testing.T) {
	assert := require.New(t)
	n := &Notifier{}

	var secondCalls int
	var unsubscribeSecond func()
	n.Subscribe(func() { unsubscribeSecond() })
	unsubscribeSecond = n.Subscribe(func() { secondCalls++ })

	n.Notify()
	assert.Equal(0, secondCalls, "a listener removed mid-delivery should not be called")
	assert.Equal(1, n.Len())

	unsubscribeSecond()
	assert.Equal(1, n.Len(), "unsubscribing twice should be harmless")
}

func TestNotifierSubscribeDuringDelivery(t *testing.T) {
	assert := require.New(t)
	n := &Notifier{}

	var lateCalls int
	subscribed := false
	n.Subscribe(func() {
		if !subscribed {
			subscribed = true
			n.Subscribe(func() { lateCalls++ })
		}
	})

	n.Notify()
	assert.Equal(0, lateCalls, "a listener added mid-delivery waits for the next signal")

	n.Notify()
	assert.Equal(1, lateCalls)
}

func TestNotifierClear(t *testing.T) {
	assert := require.New(t)
	n := &Notifier{}

	var calls int
	unsubscribe := n.Subscribe(func() { calls++ })
	n.Clear()
	n.Notify()

	assert.Equal(0, calls)
	assert.Equal(0, n.Len())
	unsubscribe()
}
