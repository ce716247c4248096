package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ilia-darchiashvili/bike-rentals/internal/logger"
	"github.com/ilia-darchiashvili/bike-rentals/internal/metrics"
)

var ErrNoResults = errors.New("no results for address")

const cacheTTL = 24 * time.Hour

// Client resolves street addresses to coordinates against a Nominatim-style
// search endpoint, caching results in redis keyed by the normalized address.
type Client struct {
	baseURL string
	http    *http.Client
	redis   *redis.Client
}

func New(baseURL, redisAddr string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
	}
}

// NewWithClients injects the HTTP and redis clients, used by tests.
func NewWithClients(baseURL string, httpClient *http.Client, rdb *redis.Client) *Client {
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		redis:   rdb,
	}
}

type result struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

type cached struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func cacheKey(address string) string {
	return "geocode:" + strings.ToLower(strings.TrimSpace(address))
}

func (c *Client) Geocode(ctx context.Context, address string) (float64, float64, error) {
	if c.redis != nil {
		if data, err := c.redis.Get(ctx, cacheKey(address)).Result(); err == nil {
			var hit cached
			if err := json.Unmarshal([]byte(data), &hit); err == nil {
				metrics.RecordGeocode("cache")
				return hit.Lat, hit.Lng, nil
			}
		}
	}

	lat, lng, err := c.lookup(ctx, address)
	if err != nil {
		return 0, 0, err
	}

	metrics.RecordGeocode("remote")

	if c.redis != nil {
		data, _ := json.Marshal(cached{Lat: lat, Lng: lng})
		if err := c.redis.Set(ctx, cacheKey(address), data, cacheTTL).Err(); err != nil {
			logger.Errorf("Failed to cache geocode result for %q: %v", address, err)
		}
	}

	return lat, lng, nil
}

func (c *Client) lookup(ctx context.Context, address string) (float64, float64, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("User-Agent", "bike-rentals/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var results []result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return 0, 0, err
	}
	if len(results) == 0 {
		return 0, 0, ErrNoResults
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad latitude %q: %w", results[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad longitude %q: %w", results[0].Lon, err)
	}

	return lat, lng, nil
}

func (c *Client) Close() error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Close()
}
