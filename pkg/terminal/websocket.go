package terminal

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/antibyte/templecode/pkg/configuration"
	"github.com/antibyte/templecode/pkg/logger"

	"github.com/gorilla/websocket"
)

// WebSocket-Konfigurationskonstanten - werden aus der Konfiguration
// gelesen, siehe [Network] Sektion in settings.cfg.

func getWriteWait() time.Duration {
	return configuration.GetDuration("Network", "write_wait_timeout", 10*time.Second)
}

func getPongWait() time.Duration {
	return configuration.GetDuration("Network", "pong_timeout", 90*time.Second)
}

func getPingPeriod() time.Duration {
	pongWait := getPongWait()
	return (pongWait * 9) / 10
}

func getMaxMessageSize() int64 {
	return int64(configuration.GetInt("Network", "max_message_size_kb", 64) * 1024)
}

func getMaxChannelBuffer() int {
	return configuration.GetInt("Network", "max_channel_buffer", 10000)
}

// HandleWebSocket upgrades an authenticated HTTP request and binds the
// connection to a fresh interpreter session. Each connection gets its
// own interpreter; closing the socket tears the interpreter down.
func (h *TerminalHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ipAddress := clientIP(r)

	if err := h.sessions.CheckRateLimit(ipAddress); err != nil {
		logger.SecurityWarn("connection from %s rejected: %v", ipAddress, err)
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	if h.sessions.Count() >= getMaxSessions() {
		logger.SecurityWarn("maximum sessions reached, connection rejected: %s", ipAddress)
		http.Error(w, "Server overloaded", http.StatusServiceUnavailable)
		return
	}

	sessionID, err := h.sessionFromRequest(r)
	if err != nil {
		logger.AuthWarn("WebSocket request without valid token from %s: %v", ipAddress, err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WebSocketError("WebSocket upgrade failed for %s: %v", ipAddress, err)
		return
	}

	session := h.newSession(sessionID, conn)
	h.sessions.Add(sessionID, session)
	logger.WebSocketInfo("session %s connected from %s", sessionID, ipAddress)

	go h.writePump(session)
	go h.outputPump(session)
	go h.readPump(session)
}

// readPump liest Client-Nachrichten bis die Verbindung endet.
func (h *TerminalHandler) readPump(s *Session) {
	defer h.closeSession(s)

	s.conn.SetReadLimit(getMaxMessageSize())
	s.conn.SetReadDeadline(time.Now().Add(getPongWait()))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(getPongWait()))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WebSocketWarn("read error for session %s: %v", s.ID, err)
			}
			return
		}
		s.lastActivity = time.Now()
		h.sessions.UpdateActivity(s.ID)

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.WebSocketWarn("invalid JSON from session %s: %v", s.ID, err)
			continue
		}
		h.handleClientMessage(s, msg)
	}
}

// writePump schreibt ausgehende Nachrichten und hält die Verbindung
// per Ping am Leben.
func (h *TerminalHandler) writePump(s *Session) {
	ticker := time.NewTicker(getPingPeriod())
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.WebSocketWarn("write error for session %s: %v", s.ID, err)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.ctx.Done():
			return
		}
	}
}

// outputPump forwards interpreter output to the socket. It runs until
// the session context is cancelled.
func (h *TerminalHandler) outputPump(s *Session) {
	for {
		select {
		case msg := <-s.interp.OutputChan:
			s.sendMessage(msg)
		case <-s.ctx.Done():
			return
		}
	}
}

// clientIP extrahiert die Client-Adresse, Proxy-Header zuerst.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
