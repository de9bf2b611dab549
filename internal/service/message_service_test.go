package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stayhive/conversation-service/internal/domain"
)

func TestValidateContent(t *testing.T) {
	s := NewMessageService(nil, NewConversationLocks(), 10, 160, 50)

	cases := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "plain", in: "hello", want: "hello"},
		{name: "trimmed", in: "  hello \n", want: "hello"},
		{name: "empty", in: "", wantErr: domain.ErrEmptyMessage},
		{name: "whitespace only", in: "   \t ", wantErr: domain.ErrEmptyMessage},
		{name: "at limit", in: strings.Repeat("a", 10), want: strings.Repeat("a", 10)},
		{name: "over limit", in: strings.Repeat("a", 11), wantErr: domain.ErrMessageTooLong},
		{name: "runes not bytes", in: strings.Repeat("я", 10), want: strings.Repeat("я", 10)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.validateContent(tc.in)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err: got %v want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Fatalf("content: got %q want %q", got, tc.want)
			}
		})
	}
}

func TestApplyEdit_FirstEditKeepsOriginal(t *testing.T) {
	t0 := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	msg := &domain.Message{ID: "m1", SenderID: 1, Content: "Hi", CreatedAt: t0}

	t1 := t0.Add(time.Minute)
	applyEdit(msg, "Hi there", t1)

	if msg.OriginalContent == nil || *msg.OriginalContent != "Hi" {
		t.Fatalf("original_content: %v", msg.OriginalContent)
	}
	if msg.Content != "Hi there" {
		t.Fatalf("content: %q", msg.Content)
	}
	if msg.EditedAt == nil || !msg.EditedAt.Equal(t1) {
		t.Fatalf("edited_at: %v", msg.EditedAt)
	}
	if len(msg.EditHistory) != 1 ||
		msg.EditHistory[0].PreviousContent != "Hi" ||
		!msg.EditHistory[0].EditedAt.Equal(t0) {
		t.Fatalf("edit_history: %+v", msg.EditHistory)
	}
}

func TestApplyEdit_TwiceGrowsHistoryInOrder(t *testing.T) {
	t0 := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	msg := &domain.Message{ID: "m1", SenderID: 1, Content: "Hi", CreatedAt: t0}

	t1 := t0.Add(time.Minute)
	applyEdit(msg, "v1", t1)
	t2 := t1.Add(time.Minute)
	applyEdit(msg, "v2", t2)

	// история: исходник, затем v1 — именно в этом порядке
	if len(msg.EditHistory) != 2 {
		t.Fatalf("edit_history length: %d", len(msg.EditHistory))
	}
	if msg.EditHistory[0].PreviousContent != "Hi" || !msg.EditHistory[0].EditedAt.Equal(t0) {
		t.Fatalf("first record: %+v", msg.EditHistory[0])
	}
	if msg.EditHistory[1].PreviousContent != "v1" || !msg.EditHistory[1].EditedAt.Equal(t1) {
		t.Fatalf("second record: %+v", msg.EditHistory[1])
	}
	// original_content фиксируется первым edit-ом и больше не меняется
	if msg.OriginalContent == nil || *msg.OriginalContent != "Hi" {
		t.Fatalf("original_content: %v", msg.OriginalContent)
	}
	if msg.Content != "v2" || msg.EditedAt == nil || !msg.EditedAt.Equal(t2) {
		t.Fatalf("current state: content=%q edited_at=%v", msg.Content, msg.EditedAt)
	}
}

func TestNewMessageService_Defaults(t *testing.T) {
	s := NewMessageService(nil, NewConversationLocks(), 0, 0, 0)
	if s.maxContentLen != 4000 || s.snapshotLen != 160 || s.pageSize != 50 {
		t.Fatalf("defaults: maxContentLen=%d snapshotLen=%d pageSize=%d",
			s.maxContentLen, s.snapshotLen, s.pageSize)
	}

	s = NewMessageService(nil, NewConversationLocks(), 10, 20, 25)
	if s.pageSize != 25 {
		t.Fatalf("configured page size ignored: %d", s.pageSize)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Fatalf("short string changed: %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello" {
		t.Fatalf("truncate: got %q", got)
	}
	// мультибайтовые руны не режутся посередине
	if got := Truncate("привет мир", 6); got != "привет" {
		t.Fatalf("unicode truncate: got %q", got)
	}
}

func TestCanonicalPair(t *testing.T) {
	if lo, hi := domain.CanonicalPair(7, 3); lo != 3 || hi != 7 {
		t.Fatalf("got (%d,%d)", lo, hi)
	}
	if lo, hi := domain.CanonicalPair(3, 7); lo != 3 || hi != 7 {
		t.Fatalf("got (%d,%d)", lo, hi)
	}
}
