package service

import "sync"

// ConversationLocks — мьютекс на диалог. Строчная блокировка в Postgres
// сериализует сами записи, но отпускается на commit-е; этот мьютекс
// держится через commit до публикации события, поэтому порядок публикации
// по диалогу совпадает с порядком коммитов.
// Записи refcount-ятся и удаляются, когда последний держатель ушёл.
type ConversationLocks struct {
	mu    sync.Mutex
	locks map[string]*convLock
}

type convLock struct {
	refs int
	mu   sync.Mutex
}

func NewConversationLocks() *ConversationLocks {
	return &ConversationLocks{locks: make(map[string]*convLock)}
}

// Lock блокирует диалог и возвращает функцию разблокировки.
func (l *ConversationLocks) Lock(conversationID string) func() {
	l.mu.Lock()
	e, ok := l.locks[conversationID]
	if !ok {
		e = &convLock{}
		l.locks[conversationID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, conversationID)
		}
		l.mu.Unlock()
	}
}
