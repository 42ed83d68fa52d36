package server

import (
	"context"
	"testing"
	"time"

	"github.com/dmelnick/relaychat/internal/chat"
	"github.com/dmelnick/relaychat/internal/database"
	"github.com/dmelnick/relaychat/internal/stats"
	"github.com/dmelnick/relaychat/internal/testutil"
	"github.com/dmelnick/relaychat/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// nullPresence satisfies chat.PresenceTracker without a backing store.
type nullPresence struct{}

func (nullPresence) Heartbeat(ctx context.Context, userId int) error  { return nil }
func (nullPresence) SetOffline(ctx context.Context, userId int) error { return nil }
func (nullPresence) SetTyping(ctx context.Context, roomExternalId string, userId int, typing bool) error {
	return nil
}
func (nullPresence) TypingUsers(ctx context.Context, roomExternalId string) ([]int, error) {
	return nil, nil
}
func (nullPresence) IsOnline(ctx context.Context, userId int) (bool, error) { return false, nil }

// newTestChatServer creates a new ChatServer instance for testing purposes
func newTestChatServer(t *testing.T, db database.Repository, su *stats.MockStatsUpdater) *ChatServer {
	su.On("RegisterMetric", mock.Anything).Times(4)

	logger := testutil.TestLogger(t)
	chatService := chat.NewService(db, nullPresence{}, logger)
	cs, err := NewChatServer(logger, chatService, su)
	if err != nil {
		t.Fatalf("failed to create test ChatServer: %v", err)
	}
	return cs
}

func TestNewChatServer(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)
	su.On("RegisterMetric", mock.Anything).Times(4)

	logger := testutil.TestLogger(t)
	chatService := chat.NewService(&database.MockRepository{}, nullPresence{}, logger)
	cs, err := NewChatServer(logger, chatService, su)
	assert.NoError(t, err, "expected no error creating ChatServer")
	assert.NotNil(t, cs, "expected ChatServer to be non-nil")
	assert.Equal(t, logger, cs.log, "expected logger to be set")
	assert.Equal(t, chatService, cs.chat, "expected chat service to be set")
	assert.NotNil(t, cs.joinChan, "expected joinChan to be initialized")
	assert.NotNil(t, cs.RegisterChan, "expected RegisterChan to be initialized")
	assert.NotNil(t, cs.deRegisterChan, "expected deRegisterChan to be initialized")
	assert.NotNil(t, cs.unloadRoomChan, "expected unloadRoomChan to be initialized")
	assert.NotNil(t, cs.stop, "expected stop channel to be initialized")
	assert.NotNil(t, cs.clients, "expected clients map to be initialized")
	assert.NotNil(t, cs.userClients, "expected userClients map to be initialized")
	assert.NotNil(t, cs.rooms, "expected rooms map to be initialized")
}

func TestChatServer_addClient_removeClient(t *testing.T) {
	db := &database.MockRepository{}
	// removeClient transitions the user offline in the background once their
	// last session is gone
	db.On("UpdateLastSeen", 1, mock.Anything).Return(nil).Maybe()

	su := &stats.MockStatsUpdater{}
	su.On("Incr", "ConnectedClients").Once()
	su.On("Decr", "ConnectedClients").Once()
	defer su.AssertExpectations(t)

	cs := newTestChatServer(t, db, su)
	user := types.User{Id: 1, Username: "testuser"}
	client := &Client{user: user}
	cs.addClient(client)
	assert.Len(t, cs.clients, 1, "expected 1 client after adding")
	assert.Contains(t, cs.clients, client, "expected client to be added to clients map")
	assert.Len(t, cs.userClients, 1, "expected userClients to have 1 entry")
	assert.Len(t, cs.userClients[user.Id], 1, "expected userClients to have 1 client for user")
	assert.Contains(t, cs.userClients[user.Id], client, "expected userClients to contain client")

	cs.removeClient(client)
	assert.Len(t, cs.clients, 0, "expected 0 clients after removing")
	assert.NotContains(t, cs.clients, client, "expected client to be removed from clients map")
	assert.Len(t, cs.userClients, 0, "expected userClients to be empty after removing client")
}

func TestChatServer_removeClient_secondSession(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	su.On("Incr", "ConnectedClients").Twice()
	su.On("Decr", "ConnectedClients").Once()
	defer su.AssertExpectations(t)

	cs := newTestChatServer(t, &database.MockRepository{}, su)
	user := types.User{Id: 1, Username: "testuser"}
	client1 := &Client{user: user}
	client2 := &Client{user: user}
	cs.addClient(client1)
	cs.addClient(client2)

	// dropping one of two sessions must not mark the user offline
	cs.removeClient(client1)
	assert.Len(t, cs.userClients[user.Id], 1, "expected one session to remain")
}

func TestChatServer_loadedRoom_unloadRoom(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	su.On("Decr", "ActiveRooms").Once()
	defer su.AssertExpectations(t)

	cs := newTestChatServer(t, &database.MockRepository{}, su)
	room := &Room{externalId: "testroom"}

	cs.roomsLock.Lock()
	cs.rooms[room.externalId] = room
	cs.roomsLock.Unlock()

	got := cs.loadedRoom("testroom")
	assert.Equal(t, room, got, "expected loaded room to be returned")

	cs.unloadRoom("testroom")
	assert.Nil(t, cs.loadedRoom("testroom"), "expected room to be unloaded")

	// unloading again must not double-decrement
	cs.unloadRoom("testroom")
}

func TestChatServer_handleJoinRequest_fullJoinChan(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)

	cs := newTestChatServer(t, &database.MockRepository{}, su)
	room := &Room{
		externalId: "fullroom",
		joinChan:   make(chan *ClientMessage, 1),
	}
	cs.roomsLock.Lock()
	cs.rooms[room.externalId] = room
	cs.roomsLock.Unlock()

	// Fill the joinChan
	room.joinChan <- &ClientMessage{}

	client := &Client{send: make(chan *ServerMessage, 1), log: cs.log}
	joinMsg := &ClientMessage{
		BaseMessage: BaseMessage{Id: 1, Timestamp: Now()},
		Join:        &Join{RoomId: "fullroom"},
		client:      client,
	}

	cs.handleJoinRequest(joinMsg)

	select {
	case msg := <-client.send:
		assert.NotNil(t, msg.Response, "expected response message")
		assert.Equal(t, joinMsg.Id, msg.Id, "expected response ID to match join message ID")
		assert.Equal(t, 503, msg.Response.ResponseCode, "expected response code to be 503")
	default:
		t.Error("expected a message to be sent to the client, but none was sent")
	}
}

func TestChatServerShutdown(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)

	cs := newTestChatServer(t, &database.MockRepository{}, su)
	go cs.Run()

	done := make(chan struct{})
	go func() {
		cs.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("expected shutdown to complete")
	}
}

func TestRoomUpdatedCoalesces(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	su.On("Incr", "ConnectedClients").Once()
	defer su.AssertExpectations(t)

	cs := newTestChatServer(t, &database.MockRepository{}, su)
	client := &Client{
		user:               types.User{Id: 1},
		send:               make(chan *ServerMessage, 1),
		pendingRoomUpdates: make(map[string]types.Room),
		roomUpdateSignal:   make(chan struct{}, 1),
		log:                cs.log,
	}
	cs.addClient(client)

	room := types.Room{
		ExternalId: "grp-room",
		SeqId:      7,
		Members:    []types.Member{{User: types.User{Id: 1}}},
	}
	cs.RoomUpdated(room)

	room.SeqId = 8
	cs.RoomUpdated(room)

	updates := client.drainRoomUpdates()
	assert.Len(t, updates, 1, "expected updates for one room to coalesce")
	assert.Equal(t, 8, updates[0].SeqId, "expected the latest state to win")
	assert.Len(t, client.roomUpdateSignal, 1, "expected a pending wake-up signal")
}

func TestMessageAdded(t *testing.T) {
	t.Run("broadcasts to room clients", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		su.On("Incr", "MessagesSent").Once()
		defer su.AssertExpectations(t)

		cs := newTestChatServer(t, &database.MockRepository{}, su)
		client := &Client{
			user: types.User{Id: 1},
			send: make(chan *ServerMessage, 1),
			log:  cs.log,
		}
		room := &Room{
			externalId: "grp-room",
			cs:         cs,
			clients:    map[*Client]struct{}{client: {}},
			userMap:    map[int]map[*Client]struct{}{1: {client: {}}},
			log:        cs.log,
		}
		cs.roomsLock.Lock()
		cs.rooms[room.externalId] = room
		cs.roomsLock.Unlock()

		cs.MessageAdded("grp-room", types.Message{Id: 100, SeqId: 7})

		select {
		case msg := <-client.send:
			assert.NotNil(t, msg.Message, "expected a message event")
			assert.Equal(t, 7, msg.Message.SeqId, "expected SeqId to match")
		default:
			t.Error("expected message to be queued to client")
		}
	})

	t.Run("disconnects a stalled client", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		su.On("Incr", "MessagesSent").Once()
		su.On("Incr", "DroppedClients").Once()
		defer su.AssertExpectations(t)

		cs := newTestChatServer(t, &database.MockRepository{}, su)
		stalled := &Client{
			user: types.User{Id: 1},
			send: make(chan *ServerMessage), // unbuffered, nothing reading
			stop: make(chan struct{}),
			log:  cs.log,
		}
		room := &Room{
			externalId: "grp-room",
			cs:         cs,
			clients:    map[*Client]struct{}{stalled: {}},
			userMap:    map[int]map[*Client]struct{}{1: {stalled: {}}},
			log:        cs.log,
		}
		cs.roomsLock.Lock()
		cs.rooms[room.externalId] = room
		cs.roomsLock.Unlock()

		cs.MessageAdded("grp-room", types.Message{Id: 100, SeqId: 7})

		select {
		case <-stalled.stop:
			// disconnected; the client catches up from its last seq on reconnect
		default:
			t.Error("expected stalled client to be disconnected")
		}
	})

	t.Run("no-op when room is not loaded", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		su.On("Incr", "MessagesSent").Once()
		defer su.AssertExpectations(t)

		cs := newTestChatServer(t, &database.MockRepository{}, su)
		cs.MessageAdded("ghost", types.Message{Id: 100})
	})
}

func TestTypingChanged(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)

	cs := newTestChatServer(t, &database.MockRepository{}, su)
	typer := &Client{user: types.User{Id: 1}, send: make(chan *ServerMessage, 1), log: cs.log}
	other := &Client{user: types.User{Id: 2}, send: make(chan *ServerMessage, 1), log: cs.log}
	room := &Room{
		externalId: "grp-room",
		cs:         cs,
		clients:    map[*Client]struct{}{typer: {}, other: {}},
		userMap: map[int]map[*Client]struct{}{
			1: {typer: {}},
			2: {other: {}},
		},
		log: cs.log,
	}
	cs.roomsLock.Lock()
	cs.rooms[room.externalId] = room
	cs.roomsLock.Unlock()

	cs.TypingChanged("grp-room", 1, true)

	assert.Len(t, typer.send, 0, "expected the typer's own session to be skipped")

	select {
	case msg := <-other.send:
		assert.NotNil(t, msg.Notification, "expected notification message")
		assert.NotNil(t, msg.Notification.Typing, "expected typing notification")
		assert.Equal(t, 1, msg.Notification.Typing.UserId, "expected typing user id to match")
		assert.True(t, msg.Notification.Typing.IsTyping, "expected typing to be true")
	default:
		t.Error("expected typing notification to be queued to the other client")
	}
}
