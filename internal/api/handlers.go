package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/dmelnick/relaychat/internal/chat"
	"github.com/dmelnick/relaychat/internal/database"
	"github.com/dmelnick/relaychat/internal/server"
	"github.com/dmelnick/relaychat/internal/types"
)

type RegisterRequest struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateAccountRequest struct {
	DisplayName string `json:"display_name"`
	AvatarUrl   string `json:"avatar_url"`
}

type CreateDirectRoomRequest struct {
	UserId int `json:"user_id"`
}

type CreateGroupRoomRequest struct {
	Name      string `json:"name"`
	MemberIds []int  `json:"member_ids"`
}

type MemberRequest struct {
	RoomId int `json:"room_id"`
	UserId int `json:"user_id"`
}

type RoomBackgroundRequest struct {
	RoomId int    `json:"room_id"`
	Url    string `json:"url"`
}

type EditMessageRequest struct {
	Id      int    `json:"id"`
	Content string `json:"content"`
}

type MarkSeenRequest struct {
	RoomId int `json:"room_id"`
	SeqId  int `json:"seq_id"`
}

type ReactionRequest struct {
	MessageId int    `json:"message_id"`
	Emoji     string `json:"emoji"`
}

type PinRequest struct {
	RoomId    int    `json:"room_id"`
	MessageId int    `json:"message_id"`
	Duration  string `json:"duration"`
}

type StatusRequest struct {
	Body     string `json:"body"`
	ImageUrl string `json:"image_url"`
}

type StatusLikeRequest struct {
	StatusId int `json:"status_id"`
}

type StatusCommentRequest struct {
	StatusId int    `json:"status_id"`
	Body     string `json:"body"`
}

type BlockRequest struct {
	UserId int `json:"user_id"`
}

type ReportRequest struct {
	RoomId       int `json:"room_id"`
	TargetUserId int `json:"target_user_id"`
}

type UpdateReportRequest struct {
	Id     string `json:"id"`
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type DisableUserRequest struct {
	UserId int        `json:"user_id"`
	Until  *time.Time `json:"until"`
}

type BanUserRequest struct {
	UserId int  `json:"user_id"`
	Banned bool `json:"banned"`
}

type AnnouncementRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *ChatApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *ChatApp) chatError(w http.ResponseWriter, err error) {
	errResp := NewChatError(err)
	if errResp.StatusCode == http.StatusInternalServerError || errResp.StatusCode == http.StatusServiceUnavailable {
		s.log.Printf("chat service: %v", err)
	}
	s.writeJson(w, errResp.StatusCode, errResp)
}

func (s *ChatApp) requireUserId(w http.ResponseWriter, r *http.Request) (int, bool) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
	}
	return userId, ok
}

func userResponse(u database.User) types.User {
	return types.User{
		Id:            u.Id,
		Username:      u.Username,
		DisplayName:   u.DisplayName,
		EmailAddress:  u.EmailAddress,
		AvatarUrl:     u.AvatarUrl,
		IsAdmin:       u.IsAdmin,
		IsDisabled:    u.IsDisabled,
		DisabledUntil: u.DisabledUntil,
		IsBanned:      u.IsBanned,
		LastSeenAt:    u.LastSeenAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (s *ChatApp) createAccount(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	newUser, err := s.db.CreateAccount(database.CreateAccountParams{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		EmailAddress: req.Email,
		PasswordHash: pwdHash,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, userResponse(newUser))
}

func (s *ChatApp) login(w http.ResponseWriter, r *http.Request) {
	var lr LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if lr.Email == "" || lr.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbUser, err := s.db.GetAccountByEmail(lr.Email)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !verifyPassword(dbUser.PasswordHash, lr.Password) {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if dbUser.IsBanned || chat.DisabledNow(dbUser, time.Now()) {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if dbUser.IsDisabled {
		// lapsed temporary disable clears on the next successful login
		if err := s.db.SetAccountDisabled(dbUser.Id, nil); err != nil {
			s.log.Printf("clear lapsed disable for user %d: %v", dbUser.Id, err)
		} else {
			dbUser.IsDisabled = false
			dbUser.DisabledUntil = nil
		}
	}

	u := userResponse(dbUser)

	token, err := s.createJwtForSession(u, defaultJwtExpiration)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	http.SetCookie(w, createJwtCookie(token, defaultJwtExpiration))

	s.writeJson(w, http.StatusOK, u)
}

func (s *ChatApp) session(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	user, err := s.db.GetAccountById(userId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, userResponse(user))
}

func (s *ChatApp) logout(w http.ResponseWriter, _ *http.Request) {
	// instruct browser to delete cookie by overwriting it with an expired token
	http.SetCookie(w, createJwtCookie("", time.Duration(time.Unix(0, 0).Unix())))
	w.WriteHeader(http.StatusNoContent)
}

func (s *ChatApp) updateAccount(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.DisplayName == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbUser, err := s.db.UpdateAccount(database.UpdateAccountParams{
		UserId:      userId,
		DisplayName: req.DisplayName,
		AvatarUrl:   req.AvatarUrl,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, userResponse(dbUser))
}

func (s *ChatApp) createDirectRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	var req CreateDirectRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserId == 0 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.chat.CreateDirectRoom(r.Context(), userId, req.UserId)
	if err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, room)
}

func (s *ChatApp) createGroupRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	var req CreateGroupRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.chat.CreateGroup(r.Context(), userId, req.MemberIds, req.Name)
	if err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, room)
}

func (s *ChatApp) listRooms(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	rooms, err := s.chat.ListRooms(r.Context(), userId)
	if err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, rooms)
}

func (s *ChatApp) getRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	externalId := r.URL.Query().Get("id")
	if externalId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.chat.GetRoom(r.Context(), externalId, userId)
	if err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, room)
}

func (s *ChatApp) hideRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	roomId, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.chat.HideRoom(r.Context(), userId, roomId); err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *ChatApp) setRoomBackground(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	var req RoomBackgroundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomId == 0 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.chat.SetBackground(r.Context(), req.RoomId, userId, req.Url); err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *ChatApp) addMember(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	var req MemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.chat.AddMember(r.Context(), req.RoomId, userId, req.UserId); err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *ChatApp) removeMember(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	var req MemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.chat.RemoveMember(r.Context(), req.RoomId, userId, req.UserId); err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *ChatApp) promoteAdmin(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	var req MemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.chat.PromoteAdmin(r.Context(), req.RoomId, userId, req.UserId); err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *ChatApp) getMessages(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	externalId := r.URL.Query().Get("room_id")
	if externalId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var since, before, limit int
	var err error
	for _, q := range []struct {
		name string
		dst  *int
	}{
		{"since", &since},
		{"before", &before},
		{"limit", &limit},
	} {
		if v := r.URL.Query().Get(q.name); v != "" {
			*q.dst, err = strconv.Atoi(v)
			if err != nil {
				errResp := NewBadRequestError()
				s.writeJson(w, errResp.StatusCode, errResp)
				return
			}
		}
	}

	messages, err := s.chat.ListPage(r.Context(), externalId, userId, since, before, limit)
	if err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, messages)
}

func (s *ChatApp) editMessage(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	var req EditMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Id == 0 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg, err := s.chat.Edit(r.Context(), req.Id, userId, req.Content)
	if err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, msg)
}

func (s *ChatApp) deleteMessage(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	messageId, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.chat.SoftDelete(r.Context(), messageId, userId); err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *ChatApp) markSeen(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	var req MarkSeenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	n, err := s.chat.MarkSeen(r.Context(), req.RoomId, userId, req.SeqId)
	if err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]int{"updated": n})
}

func (s *ChatApp) setReaction(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	var req ReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MessageId == 0 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	reactions, err := s.chat.React(r.Context(), req.MessageId, userId, req.Emoji)
	if err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, reactions)
}

func (s *ChatApp) pinMessage(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	var req PinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.chat.Pin(r.Context(), req.RoomId, userId, req.MessageId, req.Duration); err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *ChatApp) unpinMessage(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	roomId, err := strconv.Atoi(r.URL.Query().Get("room_id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.chat.Unpin(r.Context(), roomId, userId); err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *ChatApp) postStatus(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	status, err := s.chat.PostStatus(r.Context(), userId, req.Body, req.ImageUrl)
	if err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, status)
}

func (s *ChatApp) statusFeed(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		var err error
		limit, err = strconv.Atoi(v)
		if err != nil {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	updates, err := s.chat.StatusFeed(r.Context(), limit)
	if err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, updates)
}

func (s *ChatApp) likeStatus(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	var req StatusLikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StatusId == 0 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	likerIds, err := s.chat.ToggleStatusLike(r.Context(), req.StatusId, userId)
	if err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, map[string][]int{"liked_by_user_ids": likerIds})
}

func (s *ChatApp) commentOnStatus(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	var req StatusCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StatusId == 0 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	comment, err := s.chat.CommentOnStatus(r.Context(), req.StatusId, userId, req.Body)
	if err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, comment)
}

func (s *ChatApp) listStatusComments(w http.ResponseWriter, r *http.Request) {
	statusId, err := strconv.Atoi(r.URL.Query().Get("status_id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	comments, err := s.chat.StatusComments(r.Context(), statusId)
	if err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, comments)
}

func (s *ChatApp) createBlock(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	var req BlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserId == 0 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.chat.Block(r.Context(), userId, req.UserId); err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *ChatApp) deleteBlock(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	targetId, err := strconv.Atoi(r.URL.Query().Get("user_id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.chat.Unblock(r.Context(), userId, targetId); err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *ChatApp) createReport(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomId == 0 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	report, err := s.chat.FileReport(r.Context(), req.RoomId, userId, req.TargetUserId)
	if err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, report)
}

func (s *ChatApp) listAnnouncements(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		var err error
		limit, err = strconv.Atoi(v)
		if err != nil {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	announcements, err := s.chat.Announcements(r.Context(), limit)
	if err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, announcements)
}

func (s *ChatApp) listUsers(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	users, err := s.chat.ListUsers(r.Context(), userId)
	if err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, users)
}

func (s *ChatApp) disableUser(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	var req DisableUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserId == 0 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.chat.DisableUser(r.Context(), userId, req.UserId, req.Until); err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *ChatApp) banUser(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	var req BanUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserId == 0 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.chat.BanUser(r.Context(), userId, req.UserId, req.Banned); err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *ChatApp) listReports(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	reports, err := s.chat.ListReports(r.Context(), userId)
	if err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, reports)
}

func (s *ChatApp) updateReport(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	var req UpdateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Id == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	report, err := s.chat.UpdateReport(r.Context(), userId, req.Id, req.Status, req.Notes)
	if err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, report)
}

func (s *ChatApp) createAnnouncement(w http.ResponseWriter, r *http.Request) {
	userId, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	var req AnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	announcement, err := s.chat.Announce(r.Context(), userId, req.Title, req.Body)
	if err != nil {
		s.chatError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, announcement)
}

func (s *ChatApp) serveWs(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireUserId(w, r)
	if !ok {
		return
	}

	user, err := s.db.GetAccountById(id)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if user.IsBanned {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(userResponse(user), conn, s.cs, s.log)

	s.cs.RegisterChan <- client
	go client.Write()
	go client.Read()
}
