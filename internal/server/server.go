// Package server is the realtime fan-out layer: one websocket per client
// session, one goroutine per loaded room. It owns no chat semantics; every
// write goes through the chat service, and committed events come back in
// through the Notifier interface for broadcast.
package server

import (
	"log"
	"sync"

	"github.com/dmelnick/relaychat/internal/chat"
	"github.com/dmelnick/relaychat/internal/stats"
)

const (
	connectedClientsMetric = "ConnectedClients"
	activeRoomsMetric      = "ActiveRooms"
	messagesSentMetric     = "MessagesSent"
	droppedClientsMetric   = "DroppedClients"
)

type ChatServer struct {
	log            *log.Logger
	chat           *chat.Service
	stats          stats.StatsProvider
	clients        map[*Client]struct{}
	userClients    map[int]map[*Client]struct{}
	clientsLock    sync.RWMutex
	joinChan       chan *ClientMessage
	RegisterChan   chan *Client
	deRegisterChan chan *Client
	unloadRoomChan chan string
	rooms          map[string]*Room
	roomsLock      sync.RWMutex
	stop           chan struct{}
	done           chan struct{}
}

func NewChatServer(logger *log.Logger, chatService *chat.Service, statsProvider stats.StatsProvider) (*ChatServer, error) {
	cs := &ChatServer{
		log:            logger,
		chat:           chatService,
		stats:          statsProvider,
		clients:        make(map[*Client]struct{}),
		userClients:    make(map[int]map[*Client]struct{}),
		joinChan:       make(chan *ClientMessage),
		RegisterChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		unloadRoomChan: make(chan string),
		rooms:          make(map[string]*Room),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}

	for _, name := range []string{
		connectedClientsMetric,
		activeRoomsMetric,
		messagesSentMetric,
		droppedClientsMetric,
	} {
		statsProvider.RegisterMetric(name)
	}

	return cs, nil
}

func (cs *ChatServer) Run() {
	for {
		select {
		case joinMsg := <-cs.joinChan:
			cs.handleJoinRequest(joinMsg)
		case client := <-cs.RegisterChan:
			cs.log.Printf("adding connection from %q", client.user.Username)
			cs.addClient(client)
		case client := <-cs.deRegisterChan:
			cs.log.Printf("removing connection from %q", client.user.Username)
			cs.removeClient(client)
		case id := <-cs.unloadRoomChan:
			if r := cs.loadedRoom(id); r != nil {
				cs.unloadRoom(id)
				close(r.exit)
				<-r.done
			}
		case <-cs.stop:
			cs.log.Println("shutting down rooms")
			for _, r := range cs.rooms {
				cs.log.Println("shutting down room", r.externalId)
				close(r.exit)
				<-r.done
			}

			close(cs.done)
			return
		}
	}
}

// handleJoinRequest routes a join to the room's goroutine, loading the room
// first if it isn't resident. Membership is checked inside the room so every
// joiner is validated, not just the one who caused the load.
func (cs *ChatServer) handleJoinRequest(joinMsg *ClientMessage) {
	if room := cs.loadedRoom(joinMsg.Join.RoomId); room != nil {
		select {
		case room.joinChan <- joinMsg:
		default:
			cs.log.Printf("join channel full on room %q", room.externalId)
			joinMsg.client.queueMessage(ErrServiceUnavailable(joinMsg.Id))
		}
		return
	}

	room := &Room{
		externalId:    joinMsg.Join.RoomId,
		cs:            cs,
		joinChan:      make(chan *ClientMessage, 256),
		leaveChan:     make(chan *ClientMessage, 256),
		clientMsgChan: make(chan *ClientMessage, 256),
		clients:       make(map[*Client]struct{}),
		userMap:       make(map[int]map[*Client]struct{}),
		log:           cs.log,
		exit:          make(chan struct{}),
		done:          make(chan struct{}),
	}

	cs.roomsLock.Lock()
	cs.rooms[room.externalId] = room
	cs.roomsLock.Unlock()
	cs.stats.Incr(activeRoomsMetric)

	room.joinChan <- joinMsg

	go room.start()
}

func (cs *ChatServer) loadedRoom(externalId string) *Room {
	cs.roomsLock.RLock()
	defer cs.roomsLock.RUnlock()
	return cs.rooms[externalId]
}

func (cs *ChatServer) addClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()

	cs.clients[c] = struct{}{}
	if cs.userClients[c.user.Id] == nil {
		cs.userClients[c.user.Id] = make(map[*Client]struct{})
	}
	cs.userClients[c.user.Id][c] = struct{}{}

	cs.stats.Incr(connectedClientsMetric)
}

func (cs *ChatServer) removeClient(c *Client) {
	cs.clientsLock.Lock()
	if _, ok := cs.clients[c]; !ok {
		cs.clientsLock.Unlock()
		return
	}

	delete(cs.clients, c)

	lastSession := false
	if sessions, ok := cs.userClients[c.user.Id]; ok {
		delete(sessions, c)
		if len(sessions) == 0 {
			delete(cs.userClients, c.user.Id)
			lastSession = true
		}
	}
	cs.clientsLock.Unlock()

	cs.stats.Decr(connectedClientsMetric)

	if lastSession {
		// off the run loop so a slow store can't stall registration
		go func() {
			if err := cs.chat.WentOffline(c.ctx(), c.user.Id); err != nil {
				cs.log.Printf("offline transition for %q: %v", c.user.Username, err)
			}
		}()
	}
}

func (cs *ChatServer) unloadRoom(externalId string) {
	cs.roomsLock.Lock()
	defer cs.roomsLock.Unlock()

	if _, ok := cs.rooms[externalId]; ok {
		cs.log.Printf("removing room %q", externalId)
		delete(cs.rooms, externalId)
		cs.stats.Decr(activeRoomsMetric)
	}
}

func (cs *ChatServer) Shutdown() {
	cs.log.Println("received shutdown signal")

	cs.clientsLock.RLock()
	for c := range cs.clients {
		c.disconnect()
	}
	cs.clientsLock.RUnlock()

	close(cs.stop)

	<-cs.done
}
