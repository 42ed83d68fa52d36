package server

import (
	"github.com/dmelnick/relaychat/internal/types"
)

// ChatServer implements chat.Notifier. These methods run on whatever
// goroutine committed the write, so they only touch lock-guarded state and
// never block on a room's own channel.

// MessageAdded pushes a committed message to every client in the room.
// Broadcast order matches commit order because appends are serialized
// through the room goroutine. A client that can't absorb the message is
// disconnected rather than skipped: after reconnecting it catches up from
// its last sequence number, so nothing is silently lost.
func (cs *ChatServer) MessageAdded(roomExternalId string, msg types.Message) {
	cs.stats.Incr(messagesSentMetric)

	r := cs.loadedRoom(roomExternalId)
	if r == nil {
		return
	}

	m := msg
	r.broadcastOrDisconnect(&ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Message:     &m,
	})
}

func (cs *ChatServer) MessageEdited(roomExternalId string, msg types.Message) {
	r := cs.loadedRoom(roomExternalId)
	if r == nil {
		return
	}

	m := msg
	r.broadcast(&ServerMessage{
		BaseMessage:  BaseMessage{Timestamp: Now()},
		Notification: &Notification{MessageEdited: &m},
	})
}

func (cs *ChatServer) MessageDeleted(roomExternalId string, msg types.Message) {
	r := cs.loadedRoom(roomExternalId)
	if r == nil {
		return
	}

	r.broadcast(&ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Notification: &Notification{
			MessageDeleted: &MessageDeleted{
				RoomId:    roomExternalId,
				MessageId: msg.Id,
				SeqId:     msg.SeqId,
			},
		},
	})
}

func (cs *ChatServer) MessagesSeen(roomExternalId string, viewerId, upToSeq int) {
	r := cs.loadedRoom(roomExternalId)
	if r == nil {
		return
	}

	r.broadcast(&ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Notification: &Notification{
			Seen: &Seen{
				RoomId:   roomExternalId,
				ViewerId: viewerId,
				UpToSeq:  upToSeq,
			},
		},
	})
}

func (cs *ChatServer) ReactionChanged(roomExternalId string, messageId int, reactions map[string][]int) {
	r := cs.loadedRoom(roomExternalId)
	if r == nil {
		return
	}

	r.broadcast(&ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Notification: &Notification{
			Reaction: &ReactionChange{
				RoomId:    roomExternalId,
				MessageId: messageId,
				Reactions: reactions,
			},
		},
	})
}

func (cs *ChatServer) TypingChanged(roomExternalId string, userId int, typing bool) {
	r := cs.loadedRoom(roomExternalId)
	if r == nil {
		return
	}

	// the typer's own sessions already know
	r.broadcastExceptUser(userId, &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Notification: &Notification{
			Typing: &TypingChange{
				RoomId:   roomExternalId,
				UserId:   userId,
				IsTyping: typing,
			},
		},
	})
}

// RoomUpdated reaches every member's connected sessions, in or out of the
// room, so list previews and unread badges stay live. Updates for the same
// room coalesce last-writer-wins on each client's pending map; a slow
// client only ever misses intermediate states, never the final one.
func (cs *ChatServer) RoomUpdated(room types.Room) {
	cs.clientsLock.RLock()
	defer cs.clientsLock.RUnlock()

	for _, member := range room.Members {
		for c := range cs.userClients[member.Id] {
			c.setPendingRoomUpdate(room)
		}
	}
}
