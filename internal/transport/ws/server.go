package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/stayhive/conversation-service/internal/domain"
	"github.com/stayhive/conversation-service/internal/security"

	"github.com/gorilla/websocket"
)

type ConversationSvc interface {
	IsParticipant(ctx context.Context, conversationID string, userID int64) error
}

type MessageSvc interface {
	Append(ctx context.Context, conversationID string, senderID int64, content string) (*domain.Message, error)
	Edit(ctx context.Context, messageID string, editorID int64, newContent string) (*domain.Message, error)
}

// Server — live-вход сервиса: handshake с проверкой bearer-токена до
// upgrade, диспетчеризация кадров, fan-out закоммиченных событий.
type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	verifier security.Verifier
	convSvc  ConversationSvc
	msgSvc   MessageSvc

	pingEvery  time.Duration
	maxMsgSize int64
}

func NewServer(hub *Hub, verifier security.Verifier, convSvc ConversationSvc, msgSvc MessageSvc, pingEvery time.Duration, maxMsgSize int64) *Server {
	if pingEvery <= 0 {
		pingEvery = 15 * time.Second
	}
	if maxMsgSize <= 0 {
		maxMsgSize = 1 << 20
	}
	return &Server{
		hub:      hub,
		verifier: verifier,
		convSvc:  convSvc,
		msgSvc:   msgSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery:  pingEvery,
		maxMsgSize: maxMsgSize,
	}
}

// WS endpoint: GET /ws?token=... либо Authorization: Bearer.
// Плохой/просроченный токен — отказ до upgrade, сессия не создаётся,
// состояние не мутируется. Анонимных сессий не бывает.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	token, ok := security.TokenFromRequest(r)
	if !ok {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	userID, err := s.verifier.Verify(token)
	if err != nil {
		// никогда не fail open: неожиданная ошибка — тоже отказ
		slog.Warn("ws handshake refused", "err", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	sess := NewSession(conn, userID)
	s.hub.Register(sess)
	slog.Debug("ws session opened", "session", sess.ID(), "user", userID)

	go s.writeLoop(r.Context(), sess)
	s.readLoop(r.Context(), sess)

	// дисконнект: все подписки освобождаются немедленно
	joined := sess.JoinedConversations()
	s.hub.Unregister(sess)
	_ = sess.Close()
	slog.Debug("ws session closed", "session", sess.ID(), "user", userID, "joined", len(joined))
}

func (s *Server) readLoop(ctx context.Context, sess *Session) {
	defer func() { _ = sess.Close() }()

	conn := sess.conn
	conn.SetReadLimit(s.maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			s.sendError(sess, CodeValidation, "malformed frame")
			continue
		}
		s.dispatch(ctx, sess, f)
	}
}

// client — то, что нужно dispatch-у от сессии; в тестах подменяется.
type client interface {
	Conn
	UserID() int64
	markJoined(conversationID string)
	markLeft(conversationID string)
}

// dispatch обрабатывает один кадр; любая ошибка остаётся в рамках этого
// кадра и возвращается error-кадром, соединение живёт дальше.
func (s *Server) dispatch(ctx context.Context, sess client, f Frame) {
	switch f.Type {
	case TypeJoinConversation:
		var p ConversationRef
		if decode(f.Payload, &p) != nil || p.ConversationID == "" {
			s.sendError(sess, CodeValidation, "conversation_id is required")
			return
		}
		if err := s.convSvc.IsParticipant(ctx, p.ConversationID, sess.UserID()); err != nil {
			s.sendDomainError(sess, err)
			return
		}
		s.hub.Join(sess, p.ConversationID)
		sess.markJoined(p.ConversationID)
		_ = sess.Send(Frame{Type: TypeJoined, Payload: p})

	case TypeLeaveConversation:
		var p ConversationRef
		if decode(f.Payload, &p) != nil || p.ConversationID == "" {
			s.sendError(sess, CodeValidation, "conversation_id is required")
			return
		}
		s.hub.Leave(sess, p.ConversationID)
		sess.markLeft(p.ConversationID)
		_ = sess.Send(Frame{Type: TypeLeft, Payload: p})

	case TypeSendMessage:
		var p SendMessagePayload
		if decode(f.Payload, &p) != nil || p.ConversationID == "" {
			s.sendError(sess, CodeValidation, "conversation_id is required")
			return
		}
		// событие придёт broadcast-ом после коммита
		if _, err := s.msgSvc.Append(ctx, p.ConversationID, sess.UserID(), p.Content); err != nil {
			s.sendDomainError(sess, err)
		}

	case TypeEditMessage:
		var p EditMessagePayload
		if decode(f.Payload, &p) != nil || p.MessageID == "" {
			s.sendError(sess, CodeValidation, "message_id is required")
			return
		}
		if _, err := s.msgSvc.Edit(ctx, p.MessageID, sess.UserID(), p.Content); err != nil {
			s.sendDomainError(sess, err)
		}

	default:
		s.sendError(sess, CodeValidation, "unknown frame type: "+f.Type)
	}
}

func (s *Server) writeLoop(ctx context.Context, sess *Session) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = sess.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-sess.closed:
			return
		}
	}
}

// MessageCreated / MessageEdited — fan-out закоммиченных записей лога
// (service.Broadcaster). Вызывается строго после коммита.
func (s *Server) MessageCreated(conversationID string, m *domain.Message) {
	s.hub.Broadcast(conversationID, Frame{Type: TypeMessageCreated, Payload: ToMessageItem(m)})
}

func (s *Server) MessageEdited(conversationID string, m *domain.Message) {
	s.hub.Broadcast(conversationID, Frame{Type: TypeMessageEdited, Payload: ToMessageItem(m)})
}

func (s *Server) sendError(sess client, code, detail string) {
	_ = sess.Send(Frame{Type: TypeError, Payload: ErrorPayload{Code: code, Detail: detail}})
}

func (s *Server) sendDomainError(sess client, err error) {
	switch {
	case errors.Is(err, domain.ErrConversationNotFound), errors.Is(err, domain.ErrMessageNotFound):
		s.sendError(sess, CodeNotFound, err.Error())
	case errors.Is(err, domain.ErrNotParticipant), errors.Is(err, domain.ErrNotMessageAuthor), errors.Is(err, domain.ErrSystemMessage):
		s.sendError(sess, CodeForbidden, err.Error())
	case errors.Is(err, domain.ErrEmptyMessage), errors.Is(err, domain.ErrMessageTooLong):
		s.sendError(sess, CodeValidation, err.Error())
	default:
		slog.Error("ws command failed", "err", err)
		s.sendError(sess, CodeInternal, "internal error")
	}
}

// --- helpers ---

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}
