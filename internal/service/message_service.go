package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stayhive/conversation-service/internal/domain"
	"github.com/stayhive/conversation-service/internal/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Broadcaster получает событие после того, как транзакция записи
// закоммичена. Доставка best-effort: отключившийся участник дочитывает
// лог через History.
type Broadcaster interface {
	MessageCreated(conversationID string, m *domain.Message)
	MessageEdited(conversationID string, m *domain.Message)
}

// MessageService — append-only лог сообщений с историей правок и
// snapshot-проекцией последней активности. Запись и пересчёт snapshot
// выполняются одной транзакцией; блокировка диалога держится через
// commit до публикации, чтобы порядок событий совпадал с порядком
// коммитов.
type MessageService struct {
	db    *pgxpool.Pool
	locks *ConversationLocks

	maxContentLen int
	snapshotLen   int
	pageSize      int

	broadcaster Broadcaster
}

func NewMessageService(db *pgxpool.Pool, locks *ConversationLocks, maxContentLen, snapshotLen, pageSize int) *MessageService {
	if maxContentLen <= 0 {
		maxContentLen = 4000
	}
	if snapshotLen <= 0 {
		snapshotLen = 160
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	return &MessageService{
		db:            db,
		locks:         locks,
		maxContentLen: maxContentLen,
		snapshotLen:   snapshotLen,
		pageSize:      pageSize,
	}
}

// SetBroadcaster подключает fan-out; допустим nil (например в repair-воркере).
func (s *MessageService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

func (s *MessageService) validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", domain.ErrEmptyMessage
	}
	if len([]rune(content)) > s.maxContentLen {
		return "", domain.ErrMessageTooLong
	}
	return content, nil
}

// Append пишет сообщение в лог. Отправитель обязан быть участником;
// текст не пустой и не длиннее лимита.
func (s *MessageService) Append(ctx context.Context, conversationID string, senderID int64, content string) (*domain.Message, error) {
	content, err := s.validateContent(content)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(conversationID)
	defer unlock()

	var msg *domain.Message
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		convRepo := postgres.NewConversationRepository(tx)
		conv, err := convRepo.GetForUpdate(ctx, conversationID)
		if err != nil {
			return err
		}
		if !conv.HasParticipant(senderID) {
			return domain.ErrNotParticipant
		}

		msgRepo := postgres.NewMessageRepository(tx)
		msg, err = msgRepo.Insert(ctx, conversationID, senderID, content, false)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}

		return s.recompute(ctx, convRepo, msgRepo, conversationID)
	})
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.MessageCreated(conversationID, msg)
	}
	return msg, nil
}

// Edit правит текст сообщения. Разрешено только автору и только для
// не-системных сообщений. Первый edit сохраняет исходник в
// original_content; прежний текст и его edited_at (или created_at, если
// правок ещё не было) дописываются в edit_history.
func (s *MessageService) Edit(ctx context.Context, messageID string, editorID int64, newContent string) (*domain.Message, error) {
	newContent, err := s.validateContent(newContent)
	if err != nil {
		return nil, err
	}

	// conversation_id нужен до взятия блокировки
	peek, err := postgres.NewMessageRepository(s.db).Get(ctx, messageID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(peek.ConversationID)
	defer unlock()

	var msg *domain.Message
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		convRepo := postgres.NewConversationRepository(tx)
		if _, err := convRepo.GetForUpdate(ctx, peek.ConversationID); err != nil {
			return err
		}

		msgRepo := postgres.NewMessageRepository(tx)
		// перечитываем под блокировкой: peek мог устареть
		msg, err = msgRepo.Get(ctx, messageID)
		if err != nil {
			return err
		}
		if msg.IsSystem {
			return domain.ErrSystemMessage
		}
		if msg.SenderID != editorID {
			return domain.ErrNotMessageAuthor
		}

		applyEdit(msg, newContent, time.Now())

		if err := msgRepo.ApplyEdit(ctx, msg); err != nil {
			return fmt.Errorf("apply edit: %w", err)
		}

		return s.recompute(ctx, convRepo, msgRepo, msg.ConversationID)
	})
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.MessageEdited(msg.ConversationID, msg)
	}
	return msg, nil
}

// History — чтение лога «с курсора» в порядке (created_at, id) ASC.
// Доступ только участникам; это durable-путь, которым клиент
// восстанавливается после пропущенных live-событий.
func (s *MessageService) History(ctx context.Context, conversationID string, userID int64, after string, limit int) ([]domain.Message, string, error) {
	conv, err := postgres.NewConversationRepository(s.db).Get(ctx, conversationID)
	if err != nil {
		return nil, "", err
	}
	if !conv.HasParticipant(userID) {
		return nil, "", domain.ErrNotParticipant
	}

	if limit <= 0 {
		limit = s.pageSize
	}
	return postgres.NewMessageRepository(s.db).ListAfter(ctx, conversationID, after, limit)
}

// applyEdit переписывает сообщение новой версией текста. Первый edit
// сохраняет исходник в OriginalContent; прежний текст вместе с его
// edited_at (или created_at, если правок ещё не было) дописывается в
// EditHistory, история только растёт.
func applyEdit(m *domain.Message, newContent string, now time.Time) {
	prevAt := m.CreatedAt
	if m.EditedAt != nil {
		prevAt = *m.EditedAt
	}
	if m.OriginalContent == nil {
		orig := m.Content
		m.OriginalContent = &orig
	}
	m.EditHistory = append(m.EditHistory, domain.EditRecord{
		PreviousContent: m.Content,
		EditedAt:        prevAt,
	})
	m.Content = newContent
	m.EditedAt = &now
}

// snapshotFields — чистая проекция последнего не-системного сообщения
// в три snapshot-поля диалога; nil на входе очищает все три.
func snapshotFields(latest *domain.Message, limit int) (*string, *time.Time, *int64) {
	if latest == nil {
		return nil, nil, nil
	}
	text := Truncate(latest.Content, limit)
	return &text, &latest.CreatedAt, &latest.SenderID
}

// recompute — чистая функция от лога: последнее не-системное сообщение
// по (created_at, id); нет такого — все три snapshot-поля очищаются.
// Вызывается внутри транзакции каждой записи.
func (s *MessageService) recompute(ctx context.Context, convRepo *postgres.ConversationRepository, msgRepo *postgres.MessageRepository, conversationID string) error {
	latest, err := msgRepo.Latest(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("latest message: %w", err)
	}

	text, at, sender := snapshotFields(latest, s.snapshotLen)
	return convRepo.UpdateSnapshot(ctx, conversationID, text, at, sender)
}

func (s *MessageService) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Truncate обрезает текст до limit рун для snapshot_text.
func Truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
