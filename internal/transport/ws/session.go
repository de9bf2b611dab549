package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// SessionState — грубое состояние сессии:
// Connecting -> Authenticated -> Closed (терминальное).
// join/leave меняют только набор подписок, не состояние.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateAuthenticated
	StateClosed
)

// Conn — то, что хабу нужно от живого соединения; в тестах подменяется.
type Conn interface {
	Send(f Frame) error
	Close() error
}

// Session — рантайм-состояние одного аутентифицированного соединения.
// Никогда не персистится; рвётся соединение — сессия и все её подписки
// исчезают.
type Session struct {
	id        string
	userID    int64
	createdAt time.Time

	conn   *websocket.Conn
	sendMu chan struct{}
	closed chan struct{}

	mu     sync.Mutex
	state  SessionState
	joined map[string]struct{}
}

var _ Conn = (*Session)(nil)

func NewSession(conn *websocket.Conn, userID int64) *Session {
	return &Session{
		id:        uuid.NewString(),
		userID:    userID,
		createdAt: time.Now(),
		conn:      conn,
		sendMu:    make(chan struct{}, 1),
		closed:    make(chan struct{}),
		state:     StateAuthenticated, // handshake уже пройден
		joined:    make(map[string]struct{}),
	}
}

func (s *Session) ID() string    { return s.id }
func (s *Session) UserID() int64 { return s.userID }

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Send сериализует записи в сокет; best-effort с дедлайном.
func (s *Session) Send(f Frame) error {
	s.sendMu <- struct{}{}
	defer func() { <-s.sendMu }()
	_ = s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return s.conn.WriteJSON(f)
}

func (s *Session) Close() error {
	s.mu.Lock()
	if s.state != StateClosed {
		s.state = StateClosed
		close(s.closed)
	}
	s.mu.Unlock()

	return s.conn.Close()
}

func (s *Session) markJoined(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joined[conversationID] = struct{}{}
}

func (s *Session) markLeft(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.joined, conversationID)
}

// JoinedConversations — снимок подписок сессии.
func (s *Session) JoinedConversations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.joined))
	for id := range s.joined {
		out = append(out, id)
	}
	return out
}
