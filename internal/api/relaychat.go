// Package api is the HTTP surface: auth, room and message management,
// reactions, pins, blocks, the status feed, moderation, and the websocket
// upgrade. Handlers validate and translate; the chat service owns the
// semantics.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/dmelnick/relaychat/internal/chat"
	"github.com/dmelnick/relaychat/internal/config"
	"github.com/dmelnick/relaychat/internal/database"
	"github.com/dmelnick/relaychat/internal/server"
)

type ChatApp struct {
	log            *log.Logger
	db             database.Repository
	chat           *chat.Service
	cs             *server.ChatServer
	mux            *http.Server
	signingKey     []byte
	allowedOrigins []string
}

func NewChatApp(mux *http.ServeMux, logger *log.Logger, cs *server.ChatServer, chatService *chat.Service, db database.Repository, cfg *config.Config) *ChatApp {
	s := &ChatApp{
		log:            logger,
		db:             db,
		chat:           chatService,
		cs:             cs,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.HandleFunc("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.HandleFunc("PUT /api/account", s.authMiddleware(s.updateAccount))

	mux.HandleFunc("POST /api/rooms/direct", s.authMiddleware(s.createDirectRoom))
	mux.HandleFunc("POST /api/rooms/group", s.authMiddleware(s.createGroupRoom))
	mux.HandleFunc("GET /api/rooms", s.authMiddleware(s.listRooms))
	mux.HandleFunc("GET /api/rooms/info", s.authMiddleware(s.getRoom))
	mux.HandleFunc("DELETE /api/rooms", s.authMiddleware(s.hideRoom))
	mux.HandleFunc("PUT /api/rooms/background", s.authMiddleware(s.setRoomBackground))
	mux.HandleFunc("POST /api/rooms/members", s.authMiddleware(s.addMember))
	mux.HandleFunc("DELETE /api/rooms/members", s.authMiddleware(s.removeMember))
	mux.HandleFunc("POST /api/rooms/promote", s.authMiddleware(s.promoteAdmin))

	mux.HandleFunc("GET /api/messages", s.authMiddleware(s.getMessages))
	mux.HandleFunc("PUT /api/messages", s.authMiddleware(s.editMessage))
	mux.HandleFunc("DELETE /api/messages", s.authMiddleware(s.deleteMessage))
	mux.HandleFunc("POST /api/messages/seen", s.authMiddleware(s.markSeen))

	mux.HandleFunc("POST /api/reactions", s.authMiddleware(s.setReaction))
	mux.HandleFunc("POST /api/pins", s.authMiddleware(s.pinMessage))
	mux.HandleFunc("DELETE /api/pins", s.authMiddleware(s.unpinMessage))

	mux.HandleFunc("GET /api/status", s.authMiddleware(s.statusFeed))
	mux.HandleFunc("POST /api/status", s.authMiddleware(s.postStatus))
	mux.HandleFunc("POST /api/status/likes", s.authMiddleware(s.likeStatus))
	mux.HandleFunc("GET /api/status/comments", s.authMiddleware(s.listStatusComments))
	mux.HandleFunc("POST /api/status/comments", s.authMiddleware(s.commentOnStatus))

	mux.HandleFunc("POST /api/blocks", s.authMiddleware(s.createBlock))
	mux.HandleFunc("DELETE /api/blocks", s.authMiddleware(s.deleteBlock))

	mux.HandleFunc("POST /api/reports", s.authMiddleware(s.createReport))
	mux.HandleFunc("GET /api/announcements", s.authMiddleware(s.listAnnouncements))

	mux.HandleFunc("GET /api/admin/users", s.adminMiddleware(s.listUsers))
	mux.HandleFunc("POST /api/admin/users/disable", s.adminMiddleware(s.disableUser))
	mux.HandleFunc("POST /api/admin/users/ban", s.adminMiddleware(s.banUser))
	mux.HandleFunc("GET /api/admin/reports", s.adminMiddleware(s.listReports))
	mux.HandleFunc("PUT /api/admin/reports", s.adminMiddleware(s.updateReport))
	mux.HandleFunc("POST /api/admin/announcements", s.adminMiddleware(s.createAnnouncement))

	mux.HandleFunc("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *ChatApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *ChatApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
