package service

import (
	"context"
	"fmt"

	"github.com/stayhive/conversation-service/internal/domain"
	"github.com/stayhive/conversation-service/internal/listing"
	"github.com/stayhive/conversation-service/internal/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConversationService — реестр диалогов: одна запись на неупорядоченную
// пару участников, создание лениво при первом контакте.
type ConversationService struct {
	db      *pgxpool.Pool
	catalog listing.Catalog
}

func NewConversationService(db *pgxpool.Pool, catalog listing.Catalog) *ConversationService {
	return &ConversationService{db: db, catalog: catalog}
}

// GetOrCreate канонизирует пару и возвращает существующий диалог либо
// создаёт новый. Гонка двух участников решается уникальным индексом по
// (participant_low, participant_high): проигравший перечитывает пару.
// propertyID задаётся, когда диалог открыт как enquiry по объявлению;
// каталог опрашивается только при создании новой записи.
func (s *ConversationService) GetOrCreate(ctx context.Context, userID, peerID int64, propertyID *string) (*domain.Conversation, error) {
	if userID == peerID {
		return nil, domain.ErrSelfConversation
	}
	low, high := domain.CanonicalPair(userID, peerID)

	repo := postgres.NewConversationRepository(s.db)
	conv, err := repo.GetByPair(ctx, low, high)
	if err == nil {
		return conv, nil
	}
	if err != domain.ErrConversationNotFound {
		return nil, fmt.Errorf("conversation lookup: %w", err)
	}

	if propertyID != nil && *propertyID != "" {
		active, err := s.catalog.ExistsAndActive(ctx, *propertyID)
		if err != nil {
			return nil, fmt.Errorf("property check: %w", err)
		}
		if !active {
			return nil, domain.ErrPropertyInactive
		}
	} else {
		propertyID = nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	txRepo := postgres.NewConversationRepository(tx)
	conv, err = txRepo.TryInsert(ctx, low, high, propertyID)
	if err != nil {
		return nil, fmt.Errorf("conversation insert: %w", err)
	}
	if conv == nil {
		// проиграли гонку — строку успел вставить второй участник
		return repo.GetByPair(ctx, low, high)
	}

	if propertyID != nil {
		// системная отметка об открытии enquiry; в snapshot не попадает
		msgRepo := postgres.NewMessageRepository(tx)
		text := "Enquiry opened for property " + *propertyID
		if _, err := msgRepo.Insert(ctx, conv.ID, userID, text, true); err != nil {
			return nil, fmt.Errorf("system message: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return conv, nil
}

// Get возвращает диалог, доступ только участникам.
func (s *ConversationService) Get(ctx context.Context, conversationID string, userID int64) (*domain.Conversation, error) {
	conv, err := postgres.NewConversationRepository(s.db).Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, domain.ErrNotParticipant
	}
	return conv, nil
}

// ListForUser — диалоги пользователя в порядке последней активности.
func (s *ConversationService) ListForUser(ctx context.Context, userID int64) ([]domain.Conversation, error) {
	return postgres.NewConversationRepository(s.db).ListForUser(ctx, userID)
}

// IsParticipant — проверка членства для join в live-протоколе.
func (s *ConversationService) IsParticipant(ctx context.Context, conversationID string, userID int64) error {
	conv, err := postgres.NewConversationRepository(s.db).Get(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(userID) {
		return domain.ErrNotParticipant
	}
	return nil
}
