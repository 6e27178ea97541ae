package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/joho/godotenv"
	minioclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mpavlovic/whisper/internal/cache"
	"github.com/mpavlovic/whisper/internal/config"
	"github.com/mpavlovic/whisper/internal/database"
	"github.com/mpavlovic/whisper/internal/logger"
	"github.com/mpavlovic/whisper/internal/repository"
	"github.com/mpavlovic/whisper/internal/repository/cached"
	postgresrepo "github.com/mpavlovic/whisper/internal/repository/postgres"
	"github.com/mpavlovic/whisper/internal/service"
	"github.com/mpavlovic/whisper/internal/storage/minio"
	syncer "github.com/mpavlovic/whisper/internal/sync"
	"github.com/mpavlovic/whisper/internal/transport/http/handlers"
	"github.com/mpavlovic/whisper/internal/transport/http/middleware"
	"github.com/mpavlovic/whisper/internal/transport/ws"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	lg := logger.New(cfg.LogLevel)
	ctx := context.Background()

	// Database
	pool, err := database.Connect(ctx, cfg.Database.DSN)
	if err != nil {
		lg.Fatal("database connect failed", "error", err)
	}
	defer pool.Close()
	lg.Info("connected to database")

	// Blob storage
	mc, err := minioclient.New(cfg.Storage.Endpoint, &minioclient.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		lg.Fatal("object storage client failed", "error", err)
	}
	blobs, err := minio.NewClient(ctx, mc, cfg.Storage.Bucket)
	if err != nil {
		lg.Fatal("object storage bucket failed", "error", err)
	}

	// Repositories
	var userRepo repository.UserRepository = postgresrepo.NewUserRepo(pool)
	chatRepo := postgresrepo.NewChatRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)

	// Profile cache is optional: without Redis the store serves every read.
	if cfg.Redis.Addr != "" {
		c, err := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			lg.Error("profile cache unavailable, continuing without it", "error", err)
		} else {
			defer c.Close()
			userRepo = cached.NewUserRepo(userRepo, c)
			lg.Info("profile cache enabled", "addr", cfg.Redis.Addr)
		}
	}

	// Live feed
	broker := syncer.NewBroker()
	resolver := syncer.NewResolver(userRepo, broker)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret)
	profileService := service.NewProfileService(userRepo, blobs, lg)
	profileService.SetNotifier(broker)
	chatService := service.NewChatService(chatRepo, userRepo)
	messageService := service.NewMessageService(messageRepo, chatRepo, userRepo, blobs, lg)
	messageService.SetNotifier(broker)

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	profileHandler := handlers.NewProfileHandler(profileService)
	chatHandler := handlers.NewChatHandler(chatService)
	messageHandler := handlers.NewMessageHandler(messageService)

	auth := middleware.Auth(cfg.JWT.Secret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	// Protected - Profile & search
	mux.Handle("GET /api/v1/me", auth(http.HandlerFunc(profileHandler.Me)))
	mux.Handle("PUT /api/v1/me", auth(http.HandlerFunc(profileHandler.Save)))
	mux.Handle("POST /api/v1/me/avatar", auth(http.HandlerFunc(profileHandler.UploadAvatar)))
	mux.Handle("GET /api/v1/users/search", auth(http.HandlerFunc(profileHandler.Search)))

	// Protected - Chats
	mux.Handle("GET /api/v1/chats", auth(http.HandlerFunc(chatHandler.List)))
	mux.Handle("POST /api/v1/chats", auth(http.HandlerFunc(chatHandler.GetOrCreate)))
	mux.Handle("GET /api/v1/chats/{id}/messages", auth(http.HandlerFunc(messageHandler.List)))
	mux.Handle("POST /api/v1/chats/{id}/messages", auth(http.HandlerFunc(messageHandler.SendText)))
	mux.Handle("POST /api/v1/chats/{id}/files", auth(http.HandlerFunc(messageHandler.SendFile)))
	mux.Handle("POST /api/v1/chats/{id}/read", auth(http.HandlerFunc(messageHandler.MarkRead)))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, cfg.JWT.Secret, ws.Deps{
		Chats:    chatRepo,
		Messages: messageRepo,
		Resolver: resolver,
		Feed:     broker,
		Sender:   messageService,
		Logger:   lg,
	}))

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	lg.Info("starting server", "addr", addr)
	if err := http.ListenAndServe(addr, middleware.CORS(mux)); err != nil {
		lg.Fatal("server stopped", "error", err)
	}
}
