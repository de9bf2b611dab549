package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/stayhive/conversation-service/internal/domain"

	"github.com/jackc/pgx/v5"
)

type ConversationRepository struct {
	q querier
}

func NewConversationRepository(q querier) *ConversationRepository {
	return &ConversationRepository{q: q}
}

const conversationColumns = `
	id, participant_low, participant_high, property_id,
	snapshot_text, snapshot_at, snapshot_sender_id,
	created_at, updated_at`

func scanConversation(row pgx.Row) (*domain.Conversation, error) {
	var c domain.Conversation
	err := row.Scan(
		&c.ID, &c.ParticipantLow, &c.ParticipantHi, &c.PropertyID,
		&c.SnapshotText, &c.SnapshotAt, &c.SnapshotSenderID,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, mapPgError(err)
	}
	return &c, nil
}

func (r *ConversationRepository) Get(ctx context.Context, id string) (*domain.Conversation, error) {
	return scanConversation(r.q.QueryRow(ctx,
		`SELECT`+conversationColumns+` FROM conversations WHERE id=$1`, id))
}

// GetForUpdate блокирует строку диалога до конца транзакции.
// Это точка сериализации всех записей внутри одного диалога.
func (r *ConversationRepository) GetForUpdate(ctx context.Context, id string) (*domain.Conversation, error) {
	return scanConversation(r.q.QueryRow(ctx,
		`SELECT`+conversationColumns+` FROM conversations WHERE id=$1 FOR UPDATE`, id))
}

func (r *ConversationRepository) GetByPair(ctx context.Context, low, high int64) (*domain.Conversation, error) {
	return scanConversation(r.q.QueryRow(ctx,
		`SELECT`+conversationColumns+` FROM conversations
		 WHERE participant_low=$1 AND participant_high=$2`, low, high))
}

// TryInsert — вставка с ON CONFLICT DO NOTHING по каноничной паре.
// Возвращает (nil, nil) если запись уже существует: проигравший гонку
// перечитывает пару обычным GetByPair.
func (r *ConversationRepository) TryInsert(ctx context.Context, low, high int64, propertyID *string) (*domain.Conversation, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO conversations (participant_low, participant_high, property_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (participant_low, participant_high) DO NOTHING
		RETURNING`+conversationColumns,
		low, high, propertyID)

	c, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			return nil, nil // конфликт, строка уже есть
		}
		return nil, err
	}
	return c, nil
}

// ListForUser — диалоги пользователя: сначала по snapshot_at DESC,
// диалоги без snapshot в хвосте по created_at DESC.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID int64) ([]domain.Conversation, error) {
	rows, err := r.q.Query(ctx, `
		SELECT`+conversationColumns+`
		FROM conversations
		WHERE participant_low=$1 OR participant_high=$1
		ORDER BY snapshot_at DESC NULLS LAST, created_at DESC`,
		userID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(
			&c.ID, &c.ParticipantLow, &c.ParticipantHi, &c.PropertyID,
			&c.SnapshotText, &c.SnapshotAt, &c.SnapshotSenderID,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateSnapshot пишет все три snapshot-поля разом; nil-ы очищают их.
func (r *ConversationRepository) UpdateSnapshot(ctx context.Context, id string, text *string, at *time.Time, senderID *int64) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE conversations
		SET snapshot_text=$2, snapshot_at=$3, snapshot_sender_id=$4, updated_at=now()
		WHERE id=$1`,
		id, text, at, senderID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

// IDs — все id диалогов, для batch-repair.
func (r *ConversationRepository) IDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM conversations ORDER BY created_at`)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteForUser удаляет все диалоги пользователя; сообщения уходят
// каскадом по FK. Возвращает число удалённых диалогов.
func (r *ConversationRepository) DeleteForUser(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM conversations WHERE participant_low=$1 OR participant_high=$1`, userID)
	if err != nil {
		return 0, mapPgError(err)
	}
	return tag.RowsAffected(), nil
}
