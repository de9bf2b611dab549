package listing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stayhive/conversation-service/internal/cache"
)

type memCache struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemCache() *memCache { return &memCache{m: map[string]string{}} }

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.m, k)
	}
	return nil
}

func (c *memCache) Close() error { return nil }

func TestExistsAndActive(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		switch r.URL.Path {
		case "/properties/villa-1":
			_, _ = w.Write([]byte(`{"id":"villa-1","active":true}`))
		case "/properties/flat-2":
			_, _ = w.Write([]byte(`{"id":"flat-2","active":false}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second, newMemCache(), time.Minute)
	ctx := context.Background()

	active, err := c.ExistsAndActive(ctx, "villa-1")
	if err != nil || !active {
		t.Fatalf("villa-1: got (%v, %v), want (true, nil)", active, err)
	}

	active, err = c.ExistsAndActive(ctx, "flat-2")
	if err != nil || active {
		t.Fatalf("flat-2: got (%v, %v), want (false, nil)", active, err)
	}

	active, err = c.ExistsAndActive(ctx, "nope")
	if err != nil || active {
		t.Fatalf("unknown: got (%v, %v), want (false, nil)", active, err)
	}

	// второй запрос по villa-1 должен прийти из кеша
	before := hits
	if _, err := c.ExistsAndActive(ctx, "villa-1"); err != nil {
		t.Fatalf("cached lookup: %v", err)
	}
	if hits != before {
		t.Fatalf("expected cache hit, upstream was called again")
	}
}

func TestExistsAndActive_EmptyID(t *testing.T) {
	c := NewClient("http://unused", time.Second, nil, time.Minute)
	active, err := c.ExistsAndActive(context.Background(), "")
	if err != nil || active {
		t.Fatalf("empty id: got (%v, %v), want (false, nil)", active, err)
	}
}
