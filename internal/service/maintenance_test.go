package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stayhive/conversation-service/internal/domain"
)

func TestSnapshotFields(t *testing.T) {
	text, at, sender := snapshotFields(nil, 160)
	if text != nil || at != nil || sender != nil {
		t.Fatalf("empty log must clear all fields: %v %v %v", text, at, sender)
	}

	t0 := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	latest := &domain.Message{SenderID: 7, Content: strings.Repeat("x", 200), CreatedAt: t0}

	text, at, sender = snapshotFields(latest, 160)
	if text == nil || len([]rune(*text)) != 160 {
		t.Fatalf("snapshot text not truncated: %v", text)
	}
	if at == nil || !at.Equal(t0) {
		t.Fatalf("snapshot_at: %v", at)
	}
	if sender == nil || *sender != 7 {
		t.Fatalf("snapshot_sender_id: %v", sender)
	}
}

func TestSnapshotRepairIsIdempotent(t *testing.T) {
	t0 := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	latest := &domain.Message{SenderID: 7, Content: "Hello", CreatedAt: t0}

	// диалог с дрейфом: snapshot не совпадает с логом
	stale := "old text"
	conv := &domain.Conversation{SnapshotText: &stale}

	text, at, sender := snapshotFields(latest, 160)
	if snapshotInSync(conv, text, at, sender) {
		t.Fatal("drifted snapshot reported as in sync")
	}

	// первый проход применяет проекцию
	conv.SnapshotText, conv.SnapshotAt, conv.SnapshotSenderID = text, at, sender

	// второй проход по тому же логу — no-op
	text2, at2, sender2 := snapshotFields(latest, 160)
	if !snapshotInSync(conv, text2, at2, sender2) {
		t.Fatal("second repair pass over converged state is not a no-op")
	}
}

func TestSnapshotInSync_ClearedFields(t *testing.T) {
	conv := &domain.Conversation{}
	text, at, sender := snapshotFields(nil, 160)
	if !snapshotInSync(conv, text, at, sender) {
		t.Fatal("empty snapshot vs empty log must be in sync")
	}

	stale := "ghost"
	conv.SnapshotText = &stale
	if snapshotInSync(conv, text, at, sender) {
		t.Fatal("stale snapshot over empty log reported as in sync")
	}
}
