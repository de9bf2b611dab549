package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/stayhive/conversation-service/internal/domain"

	"github.com/jackc/pgx/v5"
)

type MessageRepository struct {
	q querier
}

func NewMessageRepository(q querier) *MessageRepository {
	return &MessageRepository{q: q}
}

const messageColumns = `
	id, conversation_id, sender_id, content, original_content,
	edit_history, is_system_message, created_at, edited_at`

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var m domain.Message
	err := row.Scan(
		&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.OriginalContent,
		&m.EditHistory, &m.IsSystem, &m.CreatedAt, &m.EditedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, mapPgError(err)
	}
	return &m, nil
}

func (r *MessageRepository) Insert(ctx context.Context, conversationID string, senderID int64, content string, isSystem bool) (*domain.Message, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, sender_id, content, is_system_message)
		VALUES ($1, $2, $3, $4)
		RETURNING`+messageColumns,
		conversationID, senderID, content, isSystem)
	return scanMessage(row)
}

func (r *MessageRepository) Get(ctx context.Context, id string) (*domain.Message, error) {
	return scanMessage(r.q.QueryRow(ctx,
		`SELECT`+messageColumns+` FROM messages WHERE id=$1`, id))
}

// ApplyEdit записывает результат правки целиком: новый текст,
// original_content, выросшую историю и edited_at.
func (r *MessageRepository) ApplyEdit(ctx context.Context, m *domain.Message) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE messages
		SET content=$2, original_content=$3, edit_history=$4, edited_at=$5
		WHERE id=$1`,
		m.ID, m.Content, m.OriginalContent, m.EditHistory, m.EditedAt)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

// Latest — последнее не-системное сообщение диалога по (created_at, id).
// Возвращает (nil, nil) когда подходящих сообщений нет.
func (r *MessageRepository) Latest(ctx context.Context, conversationID string) (*domain.Message, error) {
	m, err := scanMessage(r.q.QueryRow(ctx, `
		SELECT`+messageColumns+`
		FROM messages
		WHERE conversation_id=$1 AND NOT is_system_message
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		conversationID))
	if err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// ListAfter — история «с курсора»: (created_at, id) ASC, поэтому клиент,
// пропустивший live-события, дочитывает лог ровно в порядке коммитов.
func (r *MessageRepository) ListAfter(ctx context.Context, conversationID, after string, limit int) ([]domain.Message, string, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	cur, err := DecodeCursor(after)
	if err != nil {
		return nil, "", fmt.Errorf("decode cursor: %w", err)
	}

	const q = `
		SELECT` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1
		  AND (
		    $2::timestamptz IS NULL
		    OR created_at > $2
		    OR (created_at = $2 AND id > $3)
		  )
		ORDER BY created_at ASC, id ASC
		LIMIT $4`

	var createdAt any
	var id any
	if cur != nil {
		createdAt = cur.CreatedAt
		id = cur.ID
	}

	rows, err := r.q.Query(ctx, q, conversationID, createdAt, id, limit)
	if err != nil {
		return nil, "", mapPgError(err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.OriginalContent,
			&m.EditHistory, &m.IsSystem, &m.CreatedAt, &m.EditedAt,
		); err != nil {
			return nil, "", err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var next string
	if len(out) == limit {
		last := out[len(out)-1]
		if c, e := EncodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ID}); e == nil {
			next = c
		}
	}
	return out, next, nil
}
