package domain

import "time"

// EditRecord — одна запись истории правок: текст до правки и момент,
// когда этот текст перестал быть актуальным.
type EditRecord struct {
	PreviousContent string    `json:"previous_content"`
	EditedAt        time.Time `json:"edited_at"`
}

// Message — запись append-only лога. Сообщения не удаляются по одному;
// правка сохраняет прежний текст в EditHistory (только растёт, порядок
// не меняется). Системные сообщения не правятся никогда.
type Message struct {
	ID              string       `db:"id"`
	ConversationID  string       `db:"conversation_id"`
	SenderID        int64        `db:"sender_id"`
	Content         string       `db:"content"`
	OriginalContent *string      `db:"original_content"`
	EditHistory     []EditRecord `db:"edit_history"`
	IsSystem        bool         `db:"is_system_message"`
	CreatedAt       time.Time    `db:"created_at"`
	EditedAt        *time.Time   `db:"edited_at"`
}
