package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/harshkumar07/Collab-Board/internal/config"
	"github.com/harshkumar07/Collab-Board/internal/metrics"
	"github.com/harshkumar07/Collab-Board/internal/middleware"
	"github.com/harshkumar07/Collab-Board/internal/protocol"
	"github.com/harshkumar07/Collab-Board/internal/room"
	"github.com/harshkumar07/Collab-Board/internal/store"
	"github.com/harshkumar07/Collab-Board/internal/transport"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := store.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer client.Close()

	eventLog := store.NewRedisLog(client)
	registry := room.NewRegistry(eventLog, cfg.RoomTTL, cfg.MaxRoomSize)

	limits := middleware.NewLimits(cfg.MaxMessageSize, cfg.MessagesPerSecond, cfg.BurstSize)
	ipLimiter := middleware.NewIPRateLimit()
	go cleanupIPLimiters(ctx, ipLimiter)

	wsHandler := transport.NewHandler(registry, eventLog, protocol.NewValidator(), limits, ipLimiter, cfg.AllowedOrigins)

	mux := http.NewServeMux()
	mux.Handle("/ws", wsHandler)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := client.Ping(r.Context()).Err(); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("addr", cfg.Addr).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("Server crashed")
			cancel()
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Shutdown incomplete")
	}
}

// setupLogging configures logrus from the environment
func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// cleanupIPLimiters periodically drops limiters for idle IPs
func cleanupIPLimiters(ctx context.Context, ipLimiter *middleware.IPRateLimit) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ipLimiter.Cleanup()
		}
	}
}
