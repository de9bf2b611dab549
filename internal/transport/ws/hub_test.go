package ws

import (
	"sync"
	"testing"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []Frame
	userID int64
	joined map[string]bool
}

func newFakeConn(userID int64) *fakeConn {
	return &fakeConn{userID: userID, joined: map[string]bool{}}
}

func (c *fakeConn) Send(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() error  { return nil }
func (c *fakeConn) UserID() int64 { return c.userID }

func (c *fakeConn) markJoined(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joined[id] = true
}

func (c *fakeConn) markLeft(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.joined, id)
}

func (c *fakeConn) received() []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

func TestHub_BroadcastOnlyToJoined(t *testing.T) {
	h := NewHub()
	a, b, other := newFakeConn(1), newFakeConn(2), newFakeConn(3)

	h.Register(a)
	h.Register(b)
	h.Register(other)
	h.Join(a, "conv-1")
	h.Join(b, "conv-1")
	h.Join(other, "conv-2")

	h.Broadcast("conv-1", Frame{Type: TypeMessageCreated})

	if len(a.received()) != 1 || len(b.received()) != 1 {
		t.Fatalf("joined sessions must receive the event: a=%d b=%d",
			len(a.received()), len(b.received()))
	}
	if len(other.received()) != 0 {
		t.Fatalf("session joined to another conversation received the event")
	}
}

func TestHub_BroadcastOrderPerSession(t *testing.T) {
	h := NewHub()
	a := newFakeConn(1)
	h.Register(a)
	h.Join(a, "conv-1")

	h.Broadcast("conv-1", Frame{Type: TypeMessageCreated, Payload: "first"})
	h.Broadcast("conv-1", Frame{Type: TypeMessageCreated, Payload: "second"})

	got := a.received()
	if len(got) != 2 || got[0].Payload != "first" || got[1].Payload != "second" {
		t.Fatalf("events out of order: %+v", got)
	}
}

func TestHub_UnregisterReleasesAllSubscriptions(t *testing.T) {
	h := NewHub()
	a := newFakeConn(1)
	h.Register(a)
	h.Join(a, "conv-1")
	h.Join(a, "conv-2")

	h.Unregister(a)

	if h.SessionCount() != 0 {
		t.Fatalf("session still registered")
	}
	if h.SubscriberCount("conv-1") != 0 || h.SubscriberCount("conv-2") != 0 {
		t.Fatalf("stale subscriptions after unregister")
	}

	h.Broadcast("conv-1", Frame{Type: TypeMessageCreated})
	if len(a.received()) != 0 {
		t.Fatalf("unregistered session received an event")
	}
}

func TestHub_Leave(t *testing.T) {
	h := NewHub()
	a := newFakeConn(1)
	h.Register(a)
	h.Join(a, "conv-1")
	h.Leave(a, "conv-1")

	h.Broadcast("conv-1", Frame{Type: TypeMessageCreated})
	if len(a.received()) != 0 {
		t.Fatalf("left session received an event")
	}
}
