package transport

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/harshkumar07/Collab-Board/internal/handlers"
	"github.com/harshkumar07/Collab-Board/internal/metrics"
	"github.com/harshkumar07/Collab-Board/internal/middleware"
	"github.com/harshkumar07/Collab-Board/internal/protocol"
	"github.com/harshkumar07/Collab-Board/internal/room"
)

// Handler upgrades HTTP requests to websocket connections and runs each
// connection's read loop
type Handler struct {
	registry  *room.Registry
	store     handlers.EventLog
	validator *protocol.Validator
	limits    *middleware.Limits
	ipLimiter *middleware.IPRateLimit
	upgrader  websocket.Upgrader
	log       *logrus.Entry
}

// NewHandler wires the websocket endpoint. allowedOrigins is the browser
// origin allowlist; "*" allows any, and requests without an Origin header
// (non-browser clients) are always allowed.
func NewHandler(
	registry *room.Registry,
	store handlers.EventLog,
	validator *protocol.Validator,
	limits *middleware.Limits,
	ipLimiter *middleware.IPRateLimit,
	allowedOrigins []string,
) *Handler {
	h := &Handler{
		registry:  registry,
		store:     store,
		validator: validator,
		limits:    limits,
		ipLimiter: ipLimiter,
		log:       logrus.WithField("component", "transport"),
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r.Header.Get("Origin"), allowedOrigins)
		},
	}
	return h
}

// originAllowed checks the Origin header against the allowlist
func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		a = strings.TrimSpace(a)
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

// clientIP: extracts the client IP from the request
func clientIP(r *http.Request) string {
	// Use RemoteAddr only - cannot be spoofed by client
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx] // Remove port
	}
	return ip
}

// ServeHTTP upgrades the connection and processes messages until the socket
// closes. The close path always leaves the current room.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if !h.ipLimiter.Allow(ip) {
		h.log.WithField("ip", ip).Warn("Connection rate limit exceeded")
		http.Error(w, "Too many connections", http.StatusTooManyRequests)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Error("Failed to upgrade connection")
		return
	}

	conn := newWSConn(ws)
	defer conn.Close()

	metrics.ActiveConnections.Inc()
	defer metrics.ActiveConnections.Dec()

	session := handlers.NewSession(conn, h.registry, h.registry.Broadcaster(), h.store, h.validator)
	// The request context is already canceled once the socket dies, so the
	// close path (leave + expiry arming) runs on a background context
	defer session.Close(context.Background())

	logCtx := h.log.WithField("conn_id", conn.ID())
	logCtx.Info("Client connected")
	h.readLoop(r.Context(), ws, conn, session, logCtx)
	logCtx.Info("Client disconnected")
}

// readLoop reads frames until the connection dies. Oversized and over-rate
// messages are dropped without closing the connection.
func (h *Handler) readLoop(ctx context.Context, ws *websocket.Conn, conn *wsConn, session *handlers.Session, logCtx *logrus.Entry) {
	limiter := h.limits.NewMessageLimiter()

	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Keepalive pings until the read loop exits
	done := make(chan struct{})
	defer close(done)
	go h.pingLoop(conn, done)

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			logCtx.WithError(err).Debug("Read loop ended")
			break
		}

		if !h.limits.ValidateMessageSize(len(msg)) {
			metrics.DroppedMessagesTotal.WithLabelValues("oversized").Inc()
			logCtx.WithField("size", len(msg)).Warn("Dropping oversized message")
			continue
		}
		if !limiter.Allow() {
			metrics.DroppedMessagesTotal.WithLabelValues("rate_limited").Inc()
			logCtx.Warn("Dropping message over rate limit")
			continue
		}

		session.HandleMessage(ctx, msg)
	}
}

// pingLoop sends keepalive pings until done is closed or a ping fails
func (h *Handler) pingLoop(conn *wsConn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
