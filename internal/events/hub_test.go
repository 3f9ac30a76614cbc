package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubFanOut(t *testing.T) {
	hub := NewHub()
	a := hub.Subscribe()
	b := hub.Subscribe()
	defer a.Close()
	defer b.Close()

	event := OrderPlaced{OrderID: "1", TotalAmount: "250.00"}
	hub.Publish(event)

	for _, sub := range []*Subscription{a, b} {
		select {
		case got := <-sub.C():
			assert.Equal(t, event.OrderID, got.OrderID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestHubPublishNeverBlocks(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe()
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		// Nobody drains the subscriber; overflow must be dropped.
		for i := 0; i < DefaultSubscriberBuffer*3; i++ {
			hub.Publish(OrderPlaced{OrderID: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe()
	sub.Close()
	sub.Close() // closing twice is safe

	hub.Publish(OrderPlaced{OrderID: "1"})

	_, open := <-sub.C()
	require.False(t, open, "channel must be closed after unsubscribe")
}

func TestNilHubPublish(t *testing.T) {
	var hub *Hub
	hub.Publish(OrderPlaced{OrderID: "1"})
}
