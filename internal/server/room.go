package server

import (
	"log"
	"sync"
	"time"

	"github.com/dmelnick/relaychat/internal/chat"
)

const (
	idleRoomTimeout = time.Second * 5
	// catchUpLimit caps how much history a reconnecting client gets replayed
	// inline; anything older it pages over HTTP.
	catchUpLimit = 100
)

type Room struct {
	id            int
	externalId    string
	cs            *ChatServer
	joinChan      chan *ClientMessage
	leaveChan     chan *ClientMessage
	clientMsgChan chan *ClientMessage
	clients       map[*Client]struct{}
	userMap       map[int]map[*Client]struct{}
	clientLock    sync.RWMutex
	log           *log.Logger
	// killTimer unloads the room once the last client is gone
	killTimer *time.Timer
	exit      chan struct{}
	done      chan struct{}
}

func (r *Room) start() {
	r.log.Printf("starting room %q", r.externalId)
	r.killTimer = time.NewTimer(idleRoomTimeout)
	r.killTimer.Stop()

	for {
		select {
		case join := <-r.joinChan:
			r.handleJoin(join)
		case leaveMsg := <-r.leaveChan:
			r.handleLeave(leaveMsg)
		case msg := <-r.clientMsgChan:
			if msg.Publish != nil {
				r.handlePublish(msg)
			} else if msg.Read != nil {
				r.handleRead(msg)
			}
		case <-r.killTimer.C:
			r.handleRoomTimeout()
		case <-r.exit:
			r.handleRoomExit()
			return
		}
	}
}

func (r *Room) handleJoin(join *ClientMessage) {
	// stop the kill timer since we have a new client
	r.killTimer.Stop()

	c := join.client
	roomInfo, err := r.cs.chat.GetRoom(c.ctx(), r.externalId, c.user.Id)
	if err != nil {
		c.queueMessage(ErrorResponse(join.Id, err))
		// reset the timer if the failed join was the only reason we loaded
		if r.clientCount() == 0 {
			r.killTimer.Reset(idleRoomTimeout)
		}
		return
	}

	r.id = roomInfo.Id

	r.addClient(c)

	// replay what the client missed while disconnected, oldest first, before
	// live events resume
	if join.Join.SinceSeq > 0 && join.Join.SinceSeq < roomInfo.SeqId {
		missed, err := r.cs.chat.ListPage(c.ctx(), r.externalId, c.user.Id, join.Join.SinceSeq, 0, catchUpLimit)
		if err != nil {
			r.log.Printf("catch-up for %q in room %q: %v", c.user.Username, r.externalId, err)
		} else {
			for i := len(missed) - 1; i >= 0; i-- {
				m := missed[i]
				c.queueMessage(&ServerMessage{
					BaseMessage: BaseMessage{Timestamp: Now()},
					Message:     &m,
				})
			}
		}
	}

	c.queueMessage(NoErrOK(join.Id, map[string]any{"room": roomInfo}))

	// notify the room the user came in, unless another of their sessions is
	// already here
	if r.sessionCount(c.user.Id) == 1 {
		r.broadcast(&ServerMessage{
			BaseMessage: BaseMessage{Timestamp: Now()},
			Notification: &Notification{
				Presence: &Presence{
					Present: true,
					RoomId:  r.externalId,
					UserId:  c.user.Id,
				},
			},
			SkipClient: c,
		})
	}
}

func (r *Room) handleLeave(leaveMsg *ClientMessage) {
	client := leaveMsg.client
	r.removeClient(client)

	if leaveMsg.Id != 0 {
		client.queueMessage(NoErrOK(leaveMsg.Id, nil))
	}

	// notify the room the user is gone once their last session leaves
	if r.sessionCount(client.user.Id) == 0 {
		r.broadcast(&ServerMessage{
			BaseMessage: BaseMessage{Timestamp: Now()},
			Notification: &Notification{
				Presence: &Presence{
					Present: false,
					RoomId:  r.externalId,
					UserId:  client.user.Id,
				},
			},
			SkipClient: client,
		})
	}
}

// handlePublish persists the message through the chat service. The service
// assigns the sequence number inside its transaction and fans the message
// out on commit; serializing publishes through this goroutine keeps the
// room's broadcast order equal to its sequence order.
func (r *Room) handlePublish(msg *ClientMessage) {
	_, err := r.cs.chat.Append(msg.client.ctx(), chat.AppendParams{
		RoomId:     r.id,
		SenderId:   msg.UserId,
		Content:    msg.Publish.Content,
		Attachment: msg.Publish.Attachment,
		ReplyToId:  msg.Publish.ReplyToId,
	})
	if err != nil {
		r.log.Printf("publish in room %q: %v", r.externalId, err)
		msg.client.queueMessage(ErrorResponse(msg.Id, err))
		return
	}

	msg.client.queueMessage(NoErrAccepted(msg.Id))
}

func (r *Room) handleRead(msg *ClientMessage) {
	n, err := r.cs.chat.MarkSeen(msg.client.ctx(), r.id, msg.UserId, msg.Read.SeqId)
	if err != nil {
		r.log.Printf("mark seen in room %q: %v", r.externalId, err)
		msg.client.queueMessage(ErrorResponse(msg.Id, err))
		return
	}

	msg.client.queueMessage(NoErrOK(msg.Id, map[string]any{"updated": n}))
}

func (r *Room) handleRoomTimeout() {
	r.log.Printf("room %q timed out", r.externalId)
	r.cs.unloadRoomChan <- r.externalId
}

func (r *Room) handleRoomExit() {
	r.log.Printf("room %q is exiting", r.externalId)

	r.clientLock.Lock()
	for c := range r.clients {
		c.delRoom(r.externalId)
	}
	r.clients = make(map[*Client]struct{})
	r.userMap = make(map[int]map[*Client]struct{})
	r.clientLock.Unlock()

	close(r.done)
}

func (r *Room) addClient(c *Client) {
	r.clientLock.Lock()
	defer r.clientLock.Unlock()

	r.clients[c] = struct{}{}
	if r.userMap[c.user.Id] == nil {
		r.userMap[c.user.Id] = make(map[*Client]struct{})
	}
	r.userMap[c.user.Id][c] = struct{}{}

	c.addRoom(r)
}

func (r *Room) removeClient(c *Client) {
	r.clientLock.Lock()
	defer r.clientLock.Unlock()

	if _, ok := r.clients[c]; !ok {
		return
	}

	delete(r.clients, c)
	c.delRoom(r.externalId)

	if userClients, ok := r.userMap[c.user.Id]; ok {
		delete(userClients, c)
		if len(userClients) == 0 {
			delete(r.userMap, c.user.Id)
		}
	}

	if len(r.clients) == 0 {
		r.log.Printf("no clients in %q, starting kill timer", r.externalId)
		r.killTimer.Reset(idleRoomTimeout)
	}
}

func (r *Room) clientCount() int {
	r.clientLock.RLock()
	defer r.clientLock.RUnlock()
	return len(r.clients)
}

func (r *Room) sessionCount(userId int) int {
	r.clientLock.RLock()
	defer r.clientLock.RUnlock()
	return len(r.userMap[userId])
}

func (r *Room) broadcast(msg *ServerMessage) {
	r.clientLock.RLock()
	defer r.clientLock.RUnlock()

	for client := range r.clients {
		if client == msg.SkipClient {
			continue
		}

		client.queueMessage(msg)
	}
}

func (r *Room) broadcastExceptUser(userId int, msg *ServerMessage) {
	r.clientLock.RLock()
	defer r.clientLock.RUnlock()

	for client := range r.clients {
		if client.user.Id == userId {
			continue
		}

		client.queueMessage(msg)
	}
}

// broadcastOrDisconnect delivers to every client in the room and disconnects
// any whose send buffer is full. The dropped client reconnects and catches
// up from its last sequence number, which beats silently losing a message.
func (r *Room) broadcastOrDisconnect(msg *ServerMessage) {
	r.clientLock.RLock()
	var stalled []*Client
	for client := range r.clients {
		if !client.queueMessage(msg) {
			stalled = append(stalled, client)
		}
	}
	r.clientLock.RUnlock()

	for _, client := range stalled {
		r.log.Printf("disconnecting stalled client %q in room %q", client.user.Username, r.externalId)
		r.cs.stats.Incr(droppedClientsMetric)
		client.disconnect()
	}
}
