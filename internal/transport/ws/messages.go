package ws

import (
	"time"

	"github.com/stayhive/conversation-service/internal/domain"
)

// Типы кадров live-протокола. Клиент шлёт команды, сервер — события.
const (
	// client -> server
	TypeJoinConversation  = "join_conversation"
	TypeLeaveConversation = "leave_conversation"
	TypeSendMessage       = "send_message"
	TypeEditMessage       = "edit_message"

	// server -> client
	TypeJoined         = "joined"
	TypeLeft           = "left"
	TypeMessageCreated = "message_created"
	TypeMessageEdited  = "message_edited"
	TypeError          = "error"
)

// Коды ошибок в error-кадрах. Ошибка всегда scoped к одному кадру,
// соединение не рвётся (кроме провала handshake, до кадров).
const (
	CodeValidation = "validation_error"
	CodeForbidden  = "authorization_error"
	CodeNotFound   = "not_found"
	CodeInternal   = "internal_error"
)

type Frame struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type ConversationRef struct {
	ConversationID string `json:"conversation_id"`
}

type SendMessagePayload struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
}

type EditMessagePayload struct {
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

type ErrorPayload struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// MessageItem — полное состояние сообщения в событиях и REST-ответах.
type MessageItem struct {
	ID              string              `json:"id"`
	ConversationID  string              `json:"conversation_id"`
	SenderID        int64               `json:"sender_id"`
	Content         string              `json:"content"`
	OriginalContent *string             `json:"original_content,omitempty"`
	EditHistory     []domain.EditRecord `json:"edit_history,omitempty"`
	IsSystem        bool                `json:"is_system_message"`
	CreatedAt       time.Time           `json:"created_at"`
	EditedAt        *time.Time          `json:"edited_at,omitempty"`
}

func ToMessageItem(m *domain.Message) MessageItem {
	return MessageItem{
		ID:              m.ID,
		ConversationID:  m.ConversationID,
		SenderID:        m.SenderID,
		Content:         m.Content,
		OriginalContent: m.OriginalContent,
		EditHistory:     m.EditHistory,
		IsSystem:        m.IsSystem,
		CreatedAt:       m.CreatedAt,
		EditedAt:        m.EditedAt,
	}
}
