package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/vadim/tosembanda/internal/auth"
	"github.com/vadim/tosembanda/internal/domain/chat/entity"
	"github.com/vadim/tosembanda/internal/realtime"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsSendBuffer = 64
)

// RealtimePolicy is the subset of chat operations the bridge needs
type RealtimePolicy interface {
	Conversation(ctx context.Context, conversationID string) (*entity.Conversation, error)
	BroadcastTyping(ctx context.Context, conversationID string, isTyping bool) error
}

// Frame is a server-to-client WebSocket frame
type Frame struct {
	Type    string                `json:"type"`
	Message *entity.Message       `json:"message,omitempty"`
	Typing  *realtime.TypingEvent `json:"typing,omitempty"`
}

// InboundFrame is a client-to-server WebSocket frame
type InboundFrame struct {
	Type     string `json:"type"`
	IsTyping bool   `json:"is_typing"`
}

// RealtimeHandler bridges a conversation's message feed and typing broadcast to browser clients
type RealtimeHandler struct {
	policy   RealtimePolicy
	bus      realtime.Subscriber
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewRealtimeHandler creates a new WebSocket bridge; an origin list containing "*" accepts any origin
func NewRealtimeHandler(p RealtimePolicy, bus realtime.Subscriber, allowedOrigins []string, logger *slog.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		policy: p,
		bus:    bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

// RegisterRoutes registers WebSocket routes
func (h *RealtimeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/conversations/{conversationId}", h.Conversation())
}

// Conversation handles GET /ws/conversations/{conversationId}
func (h *RealtimeHandler) Conversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conv, err := h.policy.Conversation(r.Context(), chi.URLParam(r, "conversationId"))
		if err != nil {
			handleError(w, r, h.logger, err)
			return
		}
		id, _ := auth.FromContext(r.Context())

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade failed", "error", err)
			return
		}

		s := &wsSession{
			conn:   conn,
			userID: id.UserID,
			convID: conv.ID,
			send:   make(chan Frame, wsSendBuffer),
			done:   make(chan struct{}),
			logger: h.logger.With("conversation_id", conv.ID, "user_id", id.UserID),
		}

		if err := s.subscribe(r.Context(), h.bus); err != nil {
			s.logger.Error("failed to subscribe", "error", err)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription failed"),
				time.Now().Add(wsWriteWait))
			conn.Close()
			return
		}

		go s.writeLoop()
		s.readLoop(r.Context(), h.policy)
		s.close()
	}
}

// wsSession owns one socket and the two subscriptions bound to it
type wsSession struct {
	conn   *websocket.Conn
	userID string
	convID string
	send   chan Frame
	done   chan struct{}
	logger *slog.Logger

	messages  realtime.Subscription
	typing    realtime.Subscription
	closeOnce sync.Once
}

// subscribe acquires the message feed and the typing broadcast together
func (s *wsSession) subscribe(ctx context.Context, bus realtime.Subscriber) error {
	msgSub, err := bus.SubscribeMessages(ctx, s.convID, func(evt realtime.MessageEvent) {
		msg := evt.Message
		s.enqueue(Frame{Type: "message", Message: &msg})
	})
	if err != nil {
		return err
	}

	typingSub, err := bus.SubscribeTyping(ctx, s.convID, func(evt realtime.TypingEvent) {
		if evt.SenderID == s.userID {
			return
		}
		s.enqueue(Frame{Type: "typing", Typing: &evt})
	})
	if err != nil {
		return errors.Join(err, msgSub.Unsubscribe())
	}

	s.messages = msgSub
	s.typing = typingSub
	return nil
}

// enqueue hands a frame to the writer; a client that cannot keep up is disconnected
func (s *wsSession) enqueue(f Frame) {
	select {
	case <-s.done:
	case s.send <- f:
	default:
		s.logger.Warn("websocket client too slow, closing")
		go s.close()
	}
}

func (s *wsSession) readLoop(ctx context.Context, p RealtimePolicy) {
	s.conn.SetReadLimit(4096)
	_ = s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var in InboundFrame
		if err := s.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read failed", "error", err)
			}
			return
		}

		switch in.Type {
		case "typing":
			if err := p.BroadcastTyping(ctx, s.convID, in.IsTyping); err != nil {
				s.logger.Warn("failed to relay typing", "error", err)
			}
		default:
			s.logger.Debug("ignoring websocket frame", "type", in.Type)
		}
	}
}

func (s *wsSession) writeLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case f := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteJSON(f); err != nil {
				s.close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// close releases both subscriptions and the socket exactly once, whichever side triggers it
func (s *wsSession) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if err := errors.Join(s.messages.Unsubscribe(), s.typing.Unsubscribe()); err != nil {
			s.logger.Warn("failed to release subscriptions", "error", err)
		}
		s.conn.Close()
	})
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
