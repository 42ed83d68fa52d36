package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmelnick/relaychat/internal/chat"
	"github.com/dmelnick/relaychat/internal/types"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ClientMessage struct {
	BaseMessage
	Publish *Publish `json:"publish,omitempty"`
	Join    *Join    `json:"join,omitempty"`
	Leave   *Leave   `json:"leave,omitempty"`
	Read    *Read    `json:"read,omitempty"`
	Typing  *Typing  `json:"typing,omitempty"`
	UserId  int      `json:"-"`
	client  *Client  `json:"-"`
}

type Publish struct {
	RoomId     string            `json:"room_id"`
	Content    string            `json:"content"`
	Attachment *types.Attachment `json:"attachment,omitempty"`
	ReplyToId  int               `json:"reply_to_id,omitempty"`
}

type Join struct {
	RoomId string `json:"room_id"`
	// SinceSeq is the last sequence number the client has; the server
	// replays anything newer before live events resume.
	SinceSeq int `json:"since_seq,omitempty"`
}

type Leave struct {
	RoomId string `json:"room_id"`
}

// Read acknowledges that the client has rendered messages up to SeqId while
// the room was focused.
type Read struct {
	RoomId string `json:"room_id"`
	SeqId  int    `json:"seq_id"`
}

type Typing struct {
	RoomId   string `json:"room_id"`
	IsTyping bool   `json:"is_typing"`
}

type ServerMessage struct {
	BaseMessage
	Response     *Response      `json:"response,omitempty"`
	Message      *types.Message `json:"message,omitempty"`
	Notification *Notification  `json:"notification,omitempty"`
	SkipClient   *Client        `json:"-"`
	UserId       int            `json:"-"`
}

type Response struct {
	ResponseCode int            `json:"response_code"`
	Error        string         `json:"error,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

type Notification struct {
	MessageEdited  *types.Message  `json:"message_edited,omitempty"`
	MessageDeleted *MessageDeleted `json:"message_deleted,omitempty"`
	Seen           *Seen           `json:"seen,omitempty"`
	Reaction       *ReactionChange `json:"reaction,omitempty"`
	RoomUpdated    *types.Room     `json:"room_updated,omitempty"`
	Typing         *TypingChange   `json:"typing,omitempty"`
	Presence       *Presence       `json:"presence,omitempty"`
}

type MessageDeleted struct {
	RoomId    string `json:"room_id"`
	MessageId int    `json:"message_id"`
	SeqId     int    `json:"seq_id"`
}

type Seen struct {
	RoomId   string `json:"room_id"`
	ViewerId int    `json:"viewer_id"`
	UpToSeq  int    `json:"up_to_seq"`
}

type ReactionChange struct {
	RoomId    string           `json:"room_id"`
	MessageId int              `json:"message_id"`
	Reactions map[string][]int `json:"reactions"`
}

type TypingChange struct {
	RoomId   string `json:"room_id"`
	UserId   int    `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

type Presence struct {
	Present bool   `json:"present"`
	UserId  int    `json:"user_id"`
	RoomId  string `json:"room_id"`
}

func NoErrOK(id int, data map[string]any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func NoErrAccepted(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusAccepted,
		},
	}
}

func ErrRoomNotFound(id int) *ServerMessage {
	return errResponse(id, http.StatusNotFound, "room not found")
}

func ErrInternalError(id int) *ServerMessage {
	return errResponse(id, http.StatusInternalServerError, "internal server error")
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return errResponse(id, http.StatusServiceUnavailable, "service unavailable")
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := errResponse(0, http.StatusBadRequest, "invalid message format")
	if id > 0 {
		msg.Id = id
	}
	return msg
}

// ErrorResponse maps a domain error onto a wire response.
func ErrorResponse(id int, err error) *ServerMessage {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		return errResponse(id, http.StatusNotFound, "not found")
	case errors.Is(err, chat.ErrForbidden):
		return errResponse(id, http.StatusForbidden, "forbidden")
	case errors.Is(err, chat.ErrBlocked):
		return errResponse(id, http.StatusForbidden, "messaging is blocked between these users")
	case errors.Is(err, chat.ErrInvariant):
		return errResponse(id, http.StatusConflict, err.Error())
	case errors.Is(err, chat.ErrConflict):
		return errResponse(id, http.StatusConflict, "conflict, try again")
	case errors.Is(err, chat.ErrRateLimited):
		return errResponse(id, http.StatusTooManyRequests, "slow down")
	case errors.Is(err, chat.ErrUnavailable):
		return ErrServiceUnavailable(id)
	default:
		return ErrInternalError(id)
	}
}

func errResponse(id, code int, text string) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: code,
			Error:        text,
		},
	}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
