package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/scenebridge/internal/core/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// editor clients connect from local tools with arbitrary origins
	CheckOrigin: func(*http.Request) bool { return true },
}

// ClientSession represents a connected editor client
type ClientSession struct {
	ID          string
	ConnectedAt time.Time
	LastSeen    int64 // atomic unix timestamp

	conn         *websocket.Conn
	writeMu      sync.Mutex
	writeTimeout time.Duration
}

// Send writes one JSON message. It is safe for concurrent use.
func (c *ClientSession) Send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.conn.WriteJSON(v)
}

func (c *ClientSession) Close() error {
	return c.conn.Close()
}

// authorize checks the token passed as query parameter or bearer header.
func (s *Server) authorize(r *http.Request) error {
	if s.config.AuthToken == "" {
		return nil
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.config.AuthToken)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := s.authorize(r); err != nil {
		s.logger.Warn("Rejected client", log.String("remote_addr", r.RemoteAddr), log.Error(err))
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if s.config.MaxClients > 0 && int(atomic.LoadInt64(&s.clientCount)) >= s.config.MaxClients {
		s.logger.Warn("Maximum clients reached, rejecting connection",
			log.String("remote_addr", r.RemoteAddr))
		http.Error(w, ErrMaxClientsReached.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Websocket upgrade failed", log.Error(err))
		return
	}
	if s.config.MaxMessageSize > 0 {
		conn.SetReadLimit(s.config.MaxMessageSize)
	}

	session := &ClientSession{
		ID:           uuid.NewString(),
		ConnectedAt:  time.Now(),
		LastSeen:     time.Now().Unix(),
		conn:         conn,
		writeTimeout: s.config.WriteTimeout,
	}
	s.clients.Store(session.ID, session)
	atomic.AddInt64(&s.clientCount, 1)

	s.logger.Info("Client connected",
		log.String("client_id", session.ID),
		log.String("remote_addr", conn.RemoteAddr().String()),
		log.Int64("total_clients", atomic.LoadInt64(&s.clientCount)))

	s.handleClient(session)
}

// handleClient reads requests until the connection closes.
func (s *Server) handleClient(session *ClientSession) {
	clientLogger := s.logger.With(log.String("client_id", session.ID))

	defer func() {
		s.clients.Delete(session.ID)
		atomic.AddInt64(&s.clientCount, -1)
		_ = session.Close()

		clientLogger.Info("Client disconnected",
			log.Int64("total_clients", atomic.LoadInt64(&s.clientCount)))
	}()

	if err := session.Send(Response{Type: MessageWelcome, ClientID: session.ID}); err != nil {
		clientLogger.Error("Failed to greet client", log.Error(err))
		return
	}

	for {
		_, data, err := session.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				clientLogger.Error("Failed to receive message", log.Error(err))
			}
			return
		}
		atomic.StoreInt64(&session.LastSeen, time.Now().Unix())

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			s.replyError(session, "", fmt.Errorf("%w: %v", ErrInvalidMessage, err))
			continue
		}
		s.handleMessage(session, &req)
	}
}

func (s *Server) replyError(session *ClientSession, requestID string, err error) {
	resp := Response{
		Type:      MessageError,
		RequestID: requestID,
		Code:      errorCode(err),
		Error:     err.Error(),
	}
	if sendErr := session.Send(resp); sendErr != nil && !errors.Is(sendErr, websocket.ErrCloseSent) {
		s.logger.Debug("Failed to send error response",
			log.String("client_id", session.ID),
			log.Error(sendErr))
	}
}
