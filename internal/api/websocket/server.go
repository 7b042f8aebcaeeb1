package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// TradeAppliedType tags trade notifications pushed to subscribers.
const TradeAppliedType = "trade_applied"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the envelope written to subscribers.
type Message struct {
	Type      string          `json:"type"`
	MessageID string          `json:"message_id"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Server pushes applied trades to connected websocket clients.
type Server struct {
	server *http.Server
	hub    *Hub
	logger logrus.FieldLogger
}

// NewServer creates the server and starts its hub.
func NewServer(logger logrus.FieldLogger) *Server {
	hub := NewHub(logger)
	go hub.Run()

	return &Server{
		hub:    hub,
		logger: logger,
	}
}

// Handler returns the routed websocket endpoints.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/ws/trades", s.handleTrades)
	router.HandleFunc("/ws/health", s.handleHealth).Methods(http.MethodGet)
	return router
}

// Start listens on port until Shutdown is called.
func (s *Server) Start(port string) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.WithField("port", port).Info("✓ WebSocket server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to upgrade connection")
		return
	}

	client := newClient(s.hub, conn)
	if !client.attach() {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "healthy",
		"clients": s.hub.ClientCount(),
	})
}

// PublishTradeApplied broadcasts an applied trade to every subscriber.
// Delivery is best effort; slow clients are disconnected.
func (s *Server) PublishTradeApplied(ctx context.Context, messageID string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal trade payload: %w", err)
	}

	msg, err := json.Marshal(Message{
		Type:      TradeAppliedType,
		MessageID: messageID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	if !s.hub.Broadcast(msg) {
		return fmt.Errorf("broadcast trade %s: queue unavailable", messageID)
	}
	return nil
}

// ClientCount reports connected subscribers.
func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}

// Shutdown stops the listener and disconnects clients.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.hub.Stop()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
