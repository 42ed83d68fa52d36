package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/dmelnick/relaychat/internal/api"
	"github.com/dmelnick/relaychat/internal/chat"
	"github.com/dmelnick/relaychat/internal/config"
	"github.com/dmelnick/relaychat/internal/database"
	"github.com/dmelnick/relaychat/internal/presence"
	"github.com/dmelnick/relaychat/internal/server"
	"github.com/dmelnick/relaychat/internal/stats"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

var (
	addr           string
	dsn            string
	redisAddr      string
	signingKey     string
	migrationsPath string
	allowedOrigins stringSliceFlag
)

func main() {
	// .env is optional; flags and real env win
	godotenv.Load()

	flag.StringVar(&addr, "addr", envOr("RELAYCHAT_ADDR", "localhost:8000"), "server address")
	flag.StringVar(&dsn, "dsn", envOr("RELAYCHAT_DSN", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"), "database connection string")
	flag.StringVar(&redisAddr, "redis-addr", envOr("RELAYCHAT_REDIS_ADDR", "localhost:6379"), "redis address")
	flag.StringVar(&signingKey, "signing-key", envOr("RELAYCHAT_SIGNING_KEY", ""), "base64 encoded signing key")
	flag.StringVar(&migrationsPath, "migrations", envOr("RELAYCHAT_MIGRATIONS", "db/migrations"), "path to schema migrations")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[relaychat] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dsn, redisAddr, signingKey, allowedOrigins, migrationsPath)
	if err != nil {
		logger.Fatal("config: ", err)
	}

	db, err := database.NewPgRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Println("db close:", err)
		}
	}()

	if err := db.Migrate(cfg.MigrationsPath); err != nil {
		logger.Fatal("migrate: ", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	tracker := presence.NewTracker(rdb, logger)

	chatService := chat.NewService(db, tracker, logger)

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	chatServer, err := server.NewChatServer(logger, chatService, statsUpdater)
	if err != nil {
		logger.Fatal("new chat server: ", err)
	}
	chatService.SetNotifier(chatServer)

	srv := api.NewChatApp(mux, logger, chatServer, chatService, db, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go chatServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down chat server...")
	chatServer.Shutdown()

	logger.Println("shutdown complete")
}
