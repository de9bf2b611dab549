package ws

import (
	"sort"
	"testing"
)

func TestSession_TracksJoinedConversations(t *testing.T) {
	s := NewSession(nil, 7)

	if s.State() != StateAuthenticated {
		t.Fatalf("new session state: %v", s.State())
	}
	if got := s.JoinedConversations(); len(got) != 0 {
		t.Fatalf("fresh session has subscriptions: %v", got)
	}

	s.markJoined("conv-1")
	s.markJoined("conv-2")
	s.markLeft("conv-1")

	got := s.JoinedConversations()
	sort.Strings(got)
	if len(got) != 1 || got[0] != "conv-2" {
		t.Fatalf("joined set: %v", got)
	}

	s.markLeft("conv-2")
	if got := s.JoinedConversations(); len(got) != 0 {
		t.Fatalf("leave did not release subscription: %v", got)
	}
}
