package postgres

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stayhive/conversation-service/internal/domain"
)

// Cursor — позиция в тотальном порядке лога (created_at, id).
// Наружу отдаётся как base64(JSON); клиент обращается с ним как с
// непрозрачной строкой и возвращает в параметре after.
type Cursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

// DecodeCursor разбирает клиентский курсор; пустая строка означает
// чтение с начала лога и декодируется в nil.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", domain.ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: json: %v", domain.ErrInvalidCursor, err)
	}
	return &c, nil
}

func EncodeCursor(c Cursor) (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
