package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/dmelnick/relaychat/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096
)

type Client struct {
	conn       *websocket.Conn
	chatServer *ChatServer
	log        *log.Logger
	user       types.User
	send       chan *ServerMessage
	rooms      map[string]*Room
	roomsLock  sync.RWMutex
	// pendingRoomUpdates coalesces room_updated events last-writer-wins, so a
	// burst of updates for one room costs a slow client a single frame
	pendingRoomUpdates map[string]types.Room
	pendingLock        sync.Mutex
	roomUpdateSignal   chan struct{}
	stop               chan struct{}
	stopOnce           sync.Once
}

func NewClient(user types.User, conn *websocket.Conn, cs *ChatServer, l *log.Logger) *Client {
	return &Client{
		conn:               conn,
		chatServer:         cs,
		log:                l,
		user:               user,
		send:               make(chan *ServerMessage, 256),
		rooms:              make(map[string]*Room),
		pendingRoomUpdates: make(map[string]types.Room),
		roomUpdateSignal:   make(chan struct{}, 1),
		stop:               make(chan struct{}),
	}
}

func (c *Client) ctx() context.Context {
	return context.Background()
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Println("write exiting")
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			if !c.writeServerMessage(msg) {
				return
			}
		case <-c.roomUpdateSignal:
			for _, room := range c.drainRoomUpdates() {
				rm := room
				msg := &ServerMessage{
					BaseMessage:  BaseMessage{Timestamp: Now()},
					Notification: &Notification{RoomUpdated: &rm},
				}
				if !c.writeServerMessage(msg) {
					return
				}
			}
		case <-c.stop:
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
		c.log.Println("read exiting")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		// a live socket doubles as the online heartbeat
		if err := c.chatServer.chat.Heartbeat(c.ctx(), c.user.Id); err != nil {
			c.log.Printf("heartbeat for %q: %v", c.user.Username, err)
		}
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			c.queueMessage(ErrInvalidMessage(-1))
			continue
		}

		msg.client = c
		msg.UserId = c.user.Id
		msg.Timestamp = Now()

		switch {
		case msg.Join != nil:
			c.joinRoom(&msg)
		case msg.Leave != nil:
			c.leaveRoom(&msg)
		case msg.Publish != nil:
			c.routeToRoom(msg.Publish.RoomId, &msg)
		case msg.Read != nil:
			c.routeToRoom(msg.Read.RoomId, &msg)
		case msg.Typing != nil:
			c.setTyping(&msg)
		default:
			c.queueMessage(ErrInvalidMessage(msg.Id))
		}
	}
}

// setTyping goes straight to the chat service: typing state is ephemeral
// and doesn't need the room goroutine's ordering.
func (c *Client) setTyping(msg *ClientMessage) {
	err := c.chatServer.chat.SetTyping(c.ctx(), msg.Typing.RoomId, c.user.Id, msg.Typing.IsTyping)
	if err != nil {
		c.queueMessage(ErrorResponse(msg.Id, err))
		return
	}

	if msg.Id != 0 {
		c.queueMessage(NoErrOK(msg.Id, nil))
	}
}

func (c *Client) routeToRoom(roomId string, msg *ClientMessage) {
	r := c.getRoom(roomId)
	if r == nil {
		c.queueMessage(ErrRoomNotFound(msg.Id))
		return
	}

	select {
	case r.clientMsgChan <- msg:
	default:
		c.log.Printf("clientMsgChan full for room %q", r.externalId)
		c.queueMessage(ErrServiceUnavailable(msg.Id))
	}
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Println("failed to send message to client, channel is full")
		return false
	}

	return true
}

func (c *Client) setPendingRoomUpdate(room types.Room) {
	c.pendingLock.Lock()
	c.pendingRoomUpdates[room.ExternalId] = room
	c.pendingLock.Unlock()

	select {
	case c.roomUpdateSignal <- struct{}{}:
	default:
	}
}

func (c *Client) drainRoomUpdates() []types.Room {
	c.pendingLock.Lock()
	defer c.pendingLock.Unlock()

	updates := make([]types.Room, 0, len(c.pendingRoomUpdates))
	for _, room := range c.pendingRoomUpdates {
		updates = append(updates, room)
	}
	c.pendingRoomUpdates = make(map[string]types.Room)

	return updates
}

func (c *Client) writeServerMessage(msg *ServerMessage) bool {
	bytes, err := json.Marshal(msg)
	if err != nil {
		c.log.Println("failed to serialize message:", err)
		return true
	}

	return c.sendMessage(websocket.TextMessage, bytes)
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) disconnect() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Client) cleanup() {
	c.chatServer.deRegisterChan <- c
	c.leaveAllRooms()
	c.disconnect()
}

func (c *Client) leaveAllRooms() {
	c.roomsLock.RLock()
	defer c.roomsLock.RUnlock()

	for _, room := range c.rooms {
		room.leaveChan <- &ClientMessage{
			Leave:  &Leave{RoomId: room.externalId},
			UserId: c.user.Id,
			client: c,
		}
	}
}

func (c *Client) joinRoom(msg *ClientMessage) {
	select {
	case c.chatServer.joinChan <- msg:
	default:
		c.log.Printf("joinChan full")
		c.queueMessage(ErrServiceUnavailable(msg.Id))
	}
}

func (c *Client) leaveRoom(msg *ClientMessage) {
	r := c.getRoom(msg.Leave.RoomId)
	if r == nil {
		c.queueMessage(ErrRoomNotFound(msg.Id))
		return
	}

	select {
	case r.leaveChan <- msg:
	default:
		c.log.Printf("leaveChan full for room %q", r.externalId)
		c.queueMessage(ErrServiceUnavailable(msg.Id))
	}
}

func (c *Client) delRoom(id string) {
	c.roomsLock.Lock()
	defer c.roomsLock.Unlock()

	delete(c.rooms, id)
}

func (c *Client) addRoom(r *Room) {
	c.roomsLock.Lock()
	defer c.roomsLock.Unlock()

	c.rooms[r.externalId] = r
}

func (c *Client) getRoom(id string) *Room {
	c.roomsLock.RLock()
	defer c.roomsLock.RUnlock()

	return c.rooms[id]
}
