package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatroom/internal/config"
	"chatroom/internal/handlers"
	"chatroom/internal/room"
	"chatroom/internal/store"
	"chatroom/internal/websocket"
	"chatroom/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize store
	st, err := openStore(cfg)
	if err != nil {
		logger.Fatal("Failed to open store: %v", err)
	}
	defer st.Close()

	// Initialize live feed hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize room controller and presence sweeper
	roomService := room.NewService(st, hub)
	sweeper := room.NewSweeper(st, cfg.Presence.SweepPeriod, cfg.Presence.TTL, hub)
	sweeper.Start()

	// Initialize handlers
	roomHandlers := handlers.NewRoomHandlers(roomService)
	wsHandlers := handlers.NewWebSocketHandlers(roomService, hub)

	// Setup routes
	mux := http.NewServeMux()
	setupRoutes(mux, roomHandlers, wsHandlers)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	logger.Info("🚀 Server started on http://localhost%s", cfg.Server.Port)
	logger.Info("📡 Live feed endpoint: ws://localhost%s/ws", cfg.Server.Port)
	printAPIEndpoints()

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error: %v", err)
	}
	sweeper.Stop()
	hub.Shutdown()
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Store.Driver == "badger" {
		return store.NewBadgerStore(cfg.Store.BadgerPath)
	}
	return store.NewPostgresStore(cfg.Store.DatabaseURL)
}

func setupRoutes(mux *http.ServeMux, roomHandlers *handlers.RoomHandlers, wsHandlers *handlers.WebSocketHandlers) {
	mux.HandleFunc("/participants", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			roomHandlers.ListParticipants(w, r)
		case http.MethodPost:
			roomHandlers.Join(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			roomHandlers.GetMessages(w, r)
		case http.MethodPost:
			roomHandlers.PostMessage(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		roomHandlers.Heartbeat(w, r)
	})

	// WebSocket route
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, user")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func printAPIEndpoints() {
	logger.Info("🔗 API endpoints:")
	logger.Info("   POST /participants")
	logger.Info("   GET  /participants")
	logger.Info("   POST /messages")
	logger.Info("   GET  /messages")
	logger.Info("   POST /status")
}
