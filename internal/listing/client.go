package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/stayhive/conversation-service/internal/cache"
)

// Catalog — поверхность сервиса объявлений, которую потребляет
// conversation-service: жив ли объект и активен ли он.
type Catalog interface {
	ExistsAndActive(ctx context.Context, propertyID string) (bool, error)
}

// Client ходит в listing-сервис по HTTP; ответы кешируются в redis с TTL.
// Недоступный кеш деградирует до прямых запросов и не блокирует открытие
// диалога.
type Client struct {
	baseURL  string
	http     *http.Client
	cache    cache.Cache
	cacheTTL time.Duration
}

var _ Catalog = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration, c cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

type propertyResponse struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

func cacheKey(propertyID string) string {
	return "listing:active:" + propertyID
}

func (c *Client) ExistsAndActive(ctx context.Context, propertyID string) (bool, error) {
	if propertyID == "" {
		return false, nil
	}

	if c.cache != nil {
		if v, err := c.cache.Get(ctx, cacheKey(propertyID)); err == nil {
			return v == "1", nil
		} else if !errors.Is(err, cache.ErrMiss) {
			slog.Debug("listing cache get failed", "property", propertyID, "err", err)
		}
	}

	active, err := c.fetch(ctx, propertyID)
	if err != nil {
		return false, err
	}

	if c.cache != nil {
		v := "0"
		if active {
			v = "1"
		}
		if err := c.cache.Set(ctx, cacheKey(propertyID), v, c.cacheTTL); err != nil {
			slog.Debug("listing cache set failed", "property", propertyID, "err", err)
		}
	}

	return active, nil
}

func (c *Client) fetch(ctx context.Context, propertyID string) (bool, error) {
	u := c.baseURL + "/properties/" + url.PathEscape(propertyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("listing request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var pr propertyResponse
		if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
			return false, fmt.Errorf("listing decode: %w", err)
		}
		return pr.Active, nil
	case http.StatusNotFound, http.StatusGone:
		return false, nil
	default:
		return false, fmt.Errorf("listing: unexpected status %d", resp.StatusCode)
	}
}
