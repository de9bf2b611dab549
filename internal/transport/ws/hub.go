package ws

import (
	"sync"
)

// Hub — явный менеджер живых сессий и их подписок на диалоги.
// Создаётся при старте сервиса и передаётся в обработчики; никакого
// глобального реестра соединений.
type Hub struct {
	mu       sync.RWMutex
	sessions map[Conn]struct{}
	convs    map[string]map[Conn]struct{} // conversationID -> подписчики
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[Conn]struct{}),
		convs:    make(map[string]map[Conn]struct{}),
	}
}

func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[c] = struct{}{}
}

// Unregister снимает сессию со всех подписок сразу — вызывается на
// дисконнекте, чтобы подписки не копились за время жизни процесса.
func (h *Hub) Unregister(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.sessions, c)
	for id, subs := range h.convs {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.convs, id)
		}
	}
}

func (h *Hub) Join(c Conn, conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.convs[conversationID]
	if !ok {
		subs = make(map[Conn]struct{})
		h.convs[conversationID] = subs
	}
	subs[c] = struct{}{}
}

func (h *Hub) Leave(c Conn, conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.convs[conversationID]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.convs, conversationID)
		}
	}
}

// Broadcast шлёт кадр каждому подписчику диалога. Best-effort,
// at-most-once: упавший Send не повторяется, клиент дочитает лог.
func (h *Hub) Broadcast(conversationID string, f Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if subs, ok := h.convs[conversationID]; ok {
		for c := range subs {
			_ = c.Send(f)
		}
	}
}

func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) SubscriberCount(conversationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.convs[conversationID])
}
