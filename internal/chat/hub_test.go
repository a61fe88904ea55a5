// internal/chat/hub_test.go
package chat

import (
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewHub(logger)
}

// drain pulls every buffered event off a connection's outbound channel.
func drain(c *Conn) []Event {
	var evs []Event
	for {
		select {
		case ev, ok := <-c.Out:
			if !ok {
				return evs
			}
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func TestHubJoinAndBroadcast(t *testing.T) {
	hub := newTestHub()

	a := hub.Join("lobby-1", "user-a", "Alice")
	b := hub.Join("lobby-1", "user-b", "Bob")

	// a saw b's arrival
	evs := drain(a)
	require.Len(t, evs, 1)
	assert.Equal(t, "user_joined", evs[0].Event)
	joined := evs[0].Data.(UserJoinedData)
	assert.Equal(t, "user-b", joined.UserID)
	assert.Equal(t, "Bob", joined.UserName)

	// the joiner never sees its own announcement
	assert.Empty(t, drain(b))

	hub.Broadcast("lobby-1", Event{Event: "new_message", Data: NewMessageData{SenderID: "user-a", Message: "boo"}})
	evsA, evsB := drain(a), drain(b)
	require.Len(t, evsA, 1)
	require.Len(t, evsB, 1)
	assert.Equal(t, "new_message", evsA[0].Event)
	assert.Equal(t, "boo", evsB[0].Data.(NewMessageData).Message)
}

func TestHubRoomsAreIsolated(t *testing.T) {
	hub := newTestHub()

	a := hub.Join("lobby-1", "user-a", "Alice")
	c := hub.Join("lobby-2", "user-c", "Carol")
	drain(a)
	drain(c)

	hub.Broadcast("lobby-1", Event{Event: "new_message", Data: NewMessageData{Message: "only room one"}})
	assert.Len(t, drain(a), 1)
	assert.Empty(t, drain(c))

	assert.Equal(t, 1, hub.RoomSize("lobby-1"))
	assert.Equal(t, 1, hub.RoomSize("lobby-2"))
	assert.Equal(t, 2, hub.ActiveConnections())
}

func TestHubLeave(t *testing.T) {
	hub := newTestHub()

	a := hub.Join("lobby-1", "user-a", "Alice")
	b := hub.Join("lobby-1", "user-b", "Bob")
	drain(a)
	drain(b)

	hub.Leave(b)

	evs := drain(a)
	require.Len(t, evs, 1)
	assert.Equal(t, "user_left", evs[0].Event)
	assert.Equal(t, "user-b", evs[0].Data.(UserLeftData).UserID)

	// b's channel is closed and it receives nothing further
	_, open := <-b.Out
	assert.False(t, open)

	assert.Equal(t, 1, hub.RoomSize("lobby-1"))
	assert.Equal(t, 1, hub.ActiveConnections())
}

func TestHubLeaveTwiceIsSafe(t *testing.T) {
	hub := newTestHub()

	a := hub.Join("lobby-1", "user-a", "Alice")
	hub.Leave(a)
	hub.Leave(a)

	assert.Equal(t, 0, hub.RoomSize("lobby-1"))
	assert.Equal(t, 0, hub.ActiveConnections())
}

// TestHubBroadcastDuringLeave races broadcasts against members disconnecting.
// A broadcast that snapshotted a connection just before its leave must drop
// the event silently, never send on a closed channel.
func TestHubBroadcastDuringLeave(t *testing.T) {
	hub := newTestHub()

	const rounds = 50
	for i := 0; i < rounds; i++ {
		a := hub.Join("lobby-1", "user-a", "Alice")
		b := hub.Join("lobby-1", "user-b", "Bob")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				hub.Broadcast("lobby-1", Event{Event: "new_message", Data: NewMessageData{Message: "x"}})
			}
		}()
		go func() {
			defer wg.Done()
			hub.Leave(b)
		}()
		wg.Wait()

		hub.Leave(a)
	}

	assert.Equal(t, 0, hub.ActiveConnections())
}

func TestHubSendAfterLeaveIsDropped(t *testing.T) {
	hub := newTestHub()

	a := hub.Join("lobby-1", "user-a", "Alice")
	b := hub.Join("lobby-1", "user-b", "Bob")
	drain(a)
	hub.Leave(b)

	// a direct send on the departed conn must be a no-op
	b.send(Event{Event: "new_message", Data: NewMessageData{Message: "late"}})

	hub.Broadcast("lobby-1", Event{Event: "new_message", Data: NewMessageData{Message: "still here"}})
	evs := drain(a)
	require.NotEmpty(t, evs)
	assert.Equal(t, "user_left", evs[0].Event)
	assert.Equal(t, "new_message", evs[len(evs)-1].Event)
}

func TestHubDropsWhenChannelFull(t *testing.T) {
	hub := newTestHub()
	a := hub.Join("lobby-1", "user-a", "Alice")

	// nobody drains a; fill past the channel buffer
	for i := 0; i < cap(a.Out)+10; i++ {
		hub.Broadcast("lobby-1", Event{Event: "new_message", Data: NewMessageData{Message: "x"}})
	}

	evs := drain(a)
	assert.Len(t, evs, cap(a.Out), "overflow events must be dropped, not block")
}
