package terminal

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/antibyte/templecode/pkg/auth"
	"github.com/antibyte/templecode/pkg/configuration"
	"github.com/antibyte/templecode/pkg/logger"
	"github.com/antibyte/templecode/pkg/shared"
	"github.com/antibyte/templecode/pkg/slotstore"
	"github.com/antibyte/templecode/pkg/templecode"

	"github.com/gorilla/websocket"
)

// TerminalHandler verwaltet alle Interpreter-Sessions und deren
// WebSocket-Verbindungen.
type TerminalHandler struct {
	upgrader          websocket.Upgrader
	sessions          *SessionManager
	securityValidator *SecurityValidator
	slots             slotstore.SlotStore

	mu sync.Mutex
}

// NewTerminalHandler creates the handler shared by all connections.
// The slot store is handed to every interpreter the handler spawns.
func NewTerminalHandler(slots slotstore.SlotStore) *TerminalHandler {
	return &TerminalHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				allowed := configuration.GetString("Network", "allowed_origins", "*")
				if allowed == "*" {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, a := range strings.Split(allowed, ",") {
					if strings.TrimSpace(a) == origin {
						return true
					}
				}
				return false
			},
		},
		sessions:          NewSessionManager(),
		securityValidator: NewSecurityValidator(),
		slots:             slots,
	}
}

// ClientMessage ist eine eingehende Nachricht vom Frontend.
type ClientMessage struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Command string `json:"command,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// handleClientMessage routes one parsed frontend message to the
// session's interpreter.
func (h *TerminalHandler) handleClientMessage(s *Session, msg ClientMessage) {
	switch msg.Type {
	case "load":
		if s.interp.Busy() {
			s.sendMessage(shared.Message{Type: shared.MessageTypeError, Content: "program already running"})
			return
		}
		if err := h.securityValidator.ValidateProgram(msg.Content); err != nil {
			s.sendMessage(shared.Message{Type: shared.MessageTypeError, Content: err.Error()})
			return
		}
		if err := s.interp.Load(msg.Content); err != nil {
			s.sendMessage(shared.Message{Type: shared.MessageTypeError, Content: err.Error()})
			return
		}
		s.sendMessage(shared.Message{Type: shared.MessageTypeText, Content: "READY."})

	case "run":
		if s.interp.IsRunning() {
			s.sendMessage(shared.Message{Type: shared.MessageTypeError, Content: "program already running"})
			return
		}
		go func() {
			s.interp.Run(s.ctx)
			s.sendMessage(shared.Message{Type: shared.MessageTypeSession, Command: "finished"})
		}()

	case "direct":
		if s.interp.Busy() {
			s.sendMessage(shared.Message{Type: shared.MessageTypeError, Content: "program already running"})
			return
		}
		if err := h.securityValidator.ValidateLine(msg.Content); err != nil {
			s.sendMessage(shared.Message{Type: shared.MessageTypeError, Content: err.Error()})
			return
		}
		go s.interp.ExecuteDirect(msg.Content)

	case "input":
		s.interp.ProvideInput(msg.Content)

	case "stop":
		s.interp.StopProgram()

	case "debug":
		h.handleDebugCommand(s, msg)

	default:
		logger.WebSocketWarn("unknown client message type %q from session %s", msg.Type, s.ID)
	}
}

// handleDebugCommand verarbeitet Debugger-Steuerung vom Frontend.
func (h *TerminalHandler) handleDebugCommand(s *Session, msg ClientMessage) {
	switch msg.Command {
	case "enable":
		s.interp.SetDebugMode(true)
		s.sendMessage(shared.Message{Type: shared.MessageTypeDebug, Command: "enabled"})
	case "disable":
		s.interp.SetDebugMode(false)
		s.sendMessage(shared.Message{Type: shared.MessageTypeDebug, Command: "disabled"})
	case "breakpoint":
		on := s.interp.ToggleBreakpoint(msg.Line)
		cmd := "breakpoint_cleared"
		if on {
			cmd = "breakpoint_set"
		}
		s.sendMessage(shared.Message{Type: shared.MessageTypeDebug, Command: cmd, Line: msg.Line})
	case "step":
		go s.interp.Step()
	case "continue":
		go s.interp.ContinueRun(s.ctx)
	default:
		logger.WebSocketWarn("unknown debug command %q from session %s", msg.Command, s.ID)
	}
}

// Session ist eine WebSocket-Verbindung mit eigenem Interpreter.
type Session struct {
	ID     string
	conn   *websocket.Conn
	interp *templecode.Interpreter
	send   chan []byte

	ctx    context.Context
	cancel context.CancelFunc

	lastActivity time.Time
}

// sendMessage queues one message for the write pump. Slow clients are
// dropped rather than blocking the interpreter.
func (s *Session) sendMessage(msg shared.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.WebSocketError("marshal failed for session %s: %v", s.ID, err)
		return
	}
	select {
	case s.send <- data:
	default:
		logger.WebSocketWarn("send buffer full for session %s, message dropped", s.ID)
	}
}

// newSession erstellt eine Session samt Interpreter.
func (h *TerminalHandler) newSession(sessionID string, conn *websocket.Conn) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	interp := templecode.New()
	if h.slots != nil {
		interp.SetSlotStore(h.slots)
	}
	return &Session{
		ID:           sessionID,
		conn:         conn,
		interp:       interp,
		send:         make(chan []byte, getMaxChannelBuffer()),
		ctx:          ctx,
		cancel:       cancel,
		lastActivity: time.Now(),
	}
}

// closeSession räumt eine Session vollständig ab.
func (h *TerminalHandler) closeSession(s *Session) {
	s.interp.StopProgram()
	s.cancel()
	h.sessions.Remove(s.ID)
	if s.conn != nil {
		s.conn.Close()
	}
	logger.WebSocketInfo("session %s closed", s.ID)
}

// reapIdleSessions schließt alle Sessions ohne Aktivität seit maxIdle
// und meldet, wie viele es waren.
func (h *TerminalHandler) reapIdleSessions(maxIdle time.Duration) int {
	reaped := 0
	for _, id := range h.sessions.IdleSessions(maxIdle) {
		if s, ok := h.sessions.Get(id); ok {
			logger.SessionInfo("session %s idle for more than %v, closing", id, maxIdle)
			h.closeSession(s)
			reaped++
		}
	}
	return reaped
}

// StartIdleReaper startet die periodische Räumung inaktiver Sessions.
// Idle-Timeout und Prüfintervall kommen aus der [Network]-Sektion.
func (h *TerminalHandler) StartIdleReaper(ctx context.Context) {
	maxIdle := configuration.GetDuration("Network", "session_idle_timeout", 30*time.Minute)
	interval := configuration.GetDuration("Network", "idle_check_interval", time.Minute)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				h.reapIdleSessions(maxIdle)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// sessionFromRequest validates the JWT token of an incoming WebSocket
// request and returns the session ID it carries.
func (h *TerminalHandler) sessionFromRequest(r *http.Request) (string, error) {
	tokenString, err := auth.ExtractTokenFromRequest(r)
	if err != nil {
		return "", err
	}
	claims, err := auth.ValidateSessionToken(tokenString)
	if err != nil {
		return "", err
	}
	if err := h.securityValidator.ValidateSessionID(claims.SessionID); err != nil {
		return "", err
	}
	return claims.SessionID, nil
}
