package server

import (
	"testing"

	"github.com/dmelnick/relaychat/internal/testutil"
	"github.com/dmelnick/relaychat/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestQueueMessage(t *testing.T) {
	client := &Client{
		send: make(chan *ServerMessage, 1),
		log:  testutil.TestLogger(t),
	}

	ok := client.queueMessage(NoErrAccepted(1))
	assert.True(t, ok, "expected message to be queued")
	assert.Len(t, client.send, 1, "expected 1 message in send channel")

	// channel full
	ok = client.queueMessage(NoErrAccepted(2))
	assert.False(t, ok, "expected queueMessage to report a full channel")
	assert.Len(t, client.send, 1, "expected channel to still hold the first message")
}

func TestSetPendingRoomUpdate(t *testing.T) {
	client := &Client{
		pendingRoomUpdates: make(map[string]types.Room),
		roomUpdateSignal:   make(chan struct{}, 1),
		log:                testutil.TestLogger(t),
	}

	client.setPendingRoomUpdate(types.Room{ExternalId: "room-a", SeqId: 1})
	client.setPendingRoomUpdate(types.Room{ExternalId: "room-a", SeqId: 2})
	client.setPendingRoomUpdate(types.Room{ExternalId: "room-b", SeqId: 5})

	updates := client.drainRoomUpdates()
	assert.Len(t, updates, 2, "expected one pending update per room")

	byRoom := make(map[string]types.Room, len(updates))
	for _, u := range updates {
		byRoom[u.ExternalId] = u
	}
	assert.Equal(t, 2, byRoom["room-a"].SeqId, "expected the latest state for room-a")
	assert.Equal(t, 5, byRoom["room-b"].SeqId)

	assert.Empty(t, client.drainRoomUpdates(), "expected drain to clear pending updates")
}

func TestRouteToRoom(t *testing.T) {
	t.Run("room not joined", func(t *testing.T) {
		client := &Client{
			rooms: make(map[string]*Room),
			send:  make(chan *ServerMessage, 1),
			log:   testutil.TestLogger(t),
		}

		client.routeToRoom("ghost", &ClientMessage{BaseMessage: BaseMessage{Id: 1}})

		select {
		case msg := <-client.send:
			assert.Equal(t, 404, msg.Response.ResponseCode, "expected room not found response")
		default:
			t.Error("expected error response to be queued")
		}
	})

	t.Run("routes to the room goroutine", func(t *testing.T) {
		room := &Room{
			externalId:    "grp-room",
			clientMsgChan: make(chan *ClientMessage, 1),
		}
		client := &Client{
			rooms: map[string]*Room{"grp-room": room},
			send:  make(chan *ServerMessage, 1),
			log:   testutil.TestLogger(t),
		}

		msg := &ClientMessage{BaseMessage: BaseMessage{Id: 1}, Publish: &Publish{RoomId: "grp-room", Content: "hi"}}
		client.routeToRoom("grp-room", msg)

		select {
		case got := <-room.clientMsgChan:
			assert.Equal(t, msg, got, "expected message to be routed to the room")
		default:
			t.Error("expected message on clientMsgChan")
		}
	})

	t.Run("backpressure surfaces as unavailable", func(t *testing.T) {
		room := &Room{
			externalId:    "grp-room",
			clientMsgChan: make(chan *ClientMessage, 1),
		}
		room.clientMsgChan <- &ClientMessage{}

		client := &Client{
			rooms: map[string]*Room{"grp-room": room},
			send:  make(chan *ServerMessage, 1),
			log:   testutil.TestLogger(t),
		}

		client.routeToRoom("grp-room", &ClientMessage{BaseMessage: BaseMessage{Id: 1}})

		select {
		case msg := <-client.send:
			assert.Equal(t, 503, msg.Response.ResponseCode, "expected service unavailable response")
		default:
			t.Error("expected error response to be queued")
		}
	})
}

func TestClientRoomBookkeeping(t *testing.T) {
	client := &Client{rooms: make(map[string]*Room)}
	room := &Room{externalId: "grp-room"}

	client.addRoom(room)
	assert.Equal(t, room, client.getRoom("grp-room"), "expected room to be retrievable after add")

	client.delRoom("grp-room")
	assert.Nil(t, client.getRoom("grp-room"), "expected room to be gone after delete")
}
