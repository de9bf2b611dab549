package domain

import "time"

// Conversation — диалог ровно двух участников.
// Пара хранится в каноническом порядке: меньший user_id в ParticipantLow.
// Snapshot-поля денормализованы из последнего не-системного сообщения
// и обновляются только в одной транзакции с записью в лог.
type Conversation struct {
	ID             string    `db:"id"`
	ParticipantLow int64     `db:"participant_low"`
	ParticipantHi  int64     `db:"participant_high"`
	PropertyID     *string   `db:"property_id"`

	SnapshotText     *string    `db:"snapshot_text"`
	SnapshotAt       *time.Time `db:"snapshot_at"`
	SnapshotSenderID *int64     `db:"snapshot_sender_id"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CanonicalPair возвращает пару в каноническом порядке (low, high).
func CanonicalPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// HasParticipant — участвует ли userID в диалоге.
func (c *Conversation) HasParticipant(userID int64) bool {
	return userID == c.ParticipantLow || userID == c.ParticipantHi
}

// Peer возвращает собеседника userID. Вызывать только после HasParticipant.
func (c *Conversation) Peer(userID int64) int64 {
	if userID == c.ParticipantLow {
		return c.ParticipantHi
	}
	return c.ParticipantLow
}
