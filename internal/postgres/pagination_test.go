package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/stayhive/conversation-service/internal/domain"
)

func TestCursorRoundTrip(t *testing.T) {
	orig := Cursor{
		CreatedAt: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		ID:        "9b2e7d44-1d3c-4a64-9f0a-0a9d2f1c0042",
	}

	s, err := EncodeCursor(orig)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeCursor(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got == nil {
		t.Fatal("decode returned nil cursor")
	}
	if !got.CreatedAt.Equal(orig.CreatedAt) || got.ID != orig.ID {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, orig)
	}
}

func TestDecodeCursor_Empty(t *testing.T) {
	got, err := DecodeCursor("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("empty cursor must decode to nil, got %+v", got)
	}
}

func TestDecodeCursor_Invalid(t *testing.T) {
	for _, s := range []string{"%%%not-base64%%%", "bm90IGpzb24"} {
		if _, err := DecodeCursor(s); !errors.Is(err, domain.ErrInvalidCursor) {
			t.Fatalf("want ErrInvalidCursor for %q, got %v", s, err)
		}
	}
}
