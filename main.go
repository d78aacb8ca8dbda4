package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pocketlearn/pocketlearn/internal/api"
	"github.com/pocketlearn/pocketlearn/internal/handler"
	"github.com/pocketlearn/pocketlearn/internal/repository/sqlite"
	"github.com/pocketlearn/pocketlearn/internal/service"
	"github.com/rs/cors"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	godotenv.Load()

	logOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	logger := slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	slog.SetDefault(logger)

	port := envOrDefault("PORT", "8080")
	dbPath := envOrDefault("SESSION_DB_PATH", "pocketlearn.db")

	apiBaseURL := os.Getenv("API_BASE_URL")
	if apiBaseURL == "" {
		slog.Error("API_BASE_URL environment variable is required")
		os.Exit(1)
	}

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		slog.Error("SESSION_SECRET environment variable is required")
		os.Exit(1)
	}
	if len(sessionSecret) < 32 {
		slog.Error("SESSION_SECRET must be at least 32 characters for HMAC-SHA256 security")
		os.Exit(1)
	}

	// Default to secure cookies; disable only for local development.
	cookieSecure := os.Getenv("COOKIE_SECURE") != "false"

	db, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("failed to open session database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("session database migrations applied")

	client := api.New(apiBaseURL, nil)
	sessions := service.NewSessionManager(client, db.Sessions())
	content := service.NewContentService(client)
	progress := service.NewProgressService(client)
	player := service.NewPlayerService(client, progress)

	cookies := handler.NewSessionCookie(sessionSecret, cookieSecure)
	// 1 attempt every 2 seconds per client, bursting to 5.
	limiter := service.NewLoginLimiter(0.5, 5)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, sessions, content, progress, player, cookies, limiter)

	corsOpts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowCredentials: true,
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		corsOpts.AllowedOrigins = strings.Split(origins, ",")
	}

	root := handler.SecurityHeaders(handler.WithSession(sessions, cookies, mux))

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           cors.New(corsOpts).Handler(root),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "api", apiBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
