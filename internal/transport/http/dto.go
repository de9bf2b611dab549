package http

import (
	"time"

	"github.com/stayhive/conversation-service/internal/domain"
	"github.com/stayhive/conversation-service/internal/transport/ws"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type OpenConversationRequest struct {
	PeerID     int64   `json:"peer_id"`
	PropertyID *string `json:"property_id,omitempty"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type ConversationItem struct {
	ID               string     `json:"id"`
	ParticipantLow   int64      `json:"participant_low"`
	ParticipantHigh  int64      `json:"participant_high"`
	PropertyID       *string    `json:"property_id,omitempty"`
	SnapshotText     *string    `json:"snapshot_text,omitempty"`
	SnapshotAt       *time.Time `json:"snapshot_at,omitempty"`
	SnapshotSenderID *int64     `json:"snapshot_sender_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func toConversationItem(c *domain.Conversation) ConversationItem {
	return ConversationItem{
		ID:               c.ID,
		ParticipantLow:   c.ParticipantLow,
		ParticipantHigh:  c.ParticipantHi,
		PropertyID:       c.PropertyID,
		SnapshotText:     c.SnapshotText,
		SnapshotAt:       c.SnapshotAt,
		SnapshotSenderID: c.SnapshotSenderID,
		CreatedAt:        c.CreatedAt,
	}
}

type ConversationsListResponse struct {
	Items []ConversationItem `json:"items"`
}

type MessagesListResponse struct {
	Items      []ws.MessageItem `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}

type RepairEnqueuedResponse struct {
	TaskID string `json:"task_id"`
}
