package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rinkrivals/game-sync-service/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBufferSize = 64
)

// Client message types.
const (
	msgSubscribe   = "subscribe"
	msgUnsubscribe = "unsubscribe"
	msgPing        = "ping"
)

// Server acknowledgements share the event envelope so clients parse one shape.
const (
	ackSubscribed   EventType = "subscribed"
	ackUnsubscribed EventType = "unsubscribed"
	ackPong         EventType = "pong"
	ackError        EventType = "error"
)

type clientMessage struct {
	Type        string `json:"type"`
	ChallengeID string `json:"challengeId"`
}

// Session is one websocket connection and its outbound buffer.
type Session struct {
	id     string
	conn   *websocket.Conn
	hub    *Hub
	logger *slog.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(id string, conn *websocket.Conn, hub *Hub, logger *slog.Logger) *Session {
	return &Session{
		id:     id,
		conn:   conn,
		hub:    hub,
		logger: logger,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Send queues payload without blocking. It reports false when the buffer is full or the session is closed.
func (s *Session) Send(payload []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

// Close tears the session down once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.hub.Remove(s)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
		_ = s.conn.Close()
	})
}

// readPump handles client messages until the connection fails.
func (s *Session) readPump() {
	defer s.Close()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug(s.logger, "websocket closed unexpectedly", logging.FieldSessionID, s.id, "err", err)
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		s.handle(msg)
	}
}

func (s *Session) handle(msg clientMessage) {
	switch msg.Type {
	case msgSubscribe:
		if msg.ChallengeID == "" {
			s.reply(ackError, "", "challengeId is required")
			return
		}
		s.hub.Subscribe(s, msg.ChallengeID)
		s.reply(ackSubscribed, msg.ChallengeID, "")
	case msgUnsubscribe:
		if msg.ChallengeID == "" {
			s.reply(ackError, "", "challengeId is required")
			return
		}
		s.hub.Unsubscribe(s, msg.ChallengeID)
		s.reply(ackUnsubscribed, msg.ChallengeID, "")
	case msgPing:
		s.reply(ackPong, "", "")
	default:
		s.reply(ackError, msg.ChallengeID, "unknown message type: "+msg.Type)
	}
}

func (s *Session) reply(kind EventType, challengeID, message string) {
	payload, err := json.Marshal(Event{Type: kind, ChallengeID: challengeID, Message: message})
	if err != nil {
		return
	}
	s.Send(payload)
}

// writePump drains the send buffer and keeps the connection alive with pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case <-s.done:
			return
		case payload := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logging.Debug(s.logger, "websocket write failed", logging.FieldSessionID, s.id, "err", err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
