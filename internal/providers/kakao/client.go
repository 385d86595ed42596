// Package kakao is the keyword-search provider backed by the Kakao Local API.
package kakao

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lunch-roulette/internal/common/config"
	httpclient "lunch-roulette/internal/common/http"
	"lunch-roulette/internal/common/logger"
	"lunch-roulette/internal/models"

	"github.com/goccy/go-json"
)

const (
	searchPath = "/v2/local/search/keyword.json"
	// pageSize is the largest page the keyword endpoint serves.
	pageSize = 15
)

type Config struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
}

// ConfigFrom maps the application config section onto the client config.
func ConfigFrom(pc config.ProviderConfig) Config {
	return Config{
		BaseURL:     pc.BaseURL,
		APIKey:      pc.APIKey,
		Timeout:     config.GetDuration(pc.Timeout),
		MaxFailures: uint32(pc.BreakerMaxFailures),
		OpenTimeout: config.GetDuration(pc.BreakerOpenTimeout),
	}
}

type Client struct {
	config Config
	http   *httpclient.Client
	logger logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	return &Client{
		config: cfg,
		http: httpclient.NewBreakerClient(httpclient.Options{
			Name:        "kakao-local",
			Timeout:     cfg.Timeout,
			MaxFailures: cfg.MaxFailures,
			OpenTimeout: cfg.OpenTimeout,
		}),
		logger: log.WithFields(map[string]interface{}{"provider": "kakao"}),
	}
}

// Search runs one keyword query around (lat, lng). Documents whose
// coordinates do not parse are dropped.
func (c *Client) Search(ctx context.Context, query string, lat, lng float64, radius int) ([]models.PlaceRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(query, lat, lng, radius), nil)
	if err != nil {
		return nil, fmt.Errorf("build kakao request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+c.config.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kakao search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kakao search %q returned %d", query, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode kakao response: %w", err)
	}

	places := make([]models.PlaceRecord, 0, len(body.Documents))
	for _, doc := range body.Documents {
		place, err := doc.toPlace()
		if err != nil {
			c.logger.Warn("dropping place with invalid coordinates", map[string]interface{}{
				"placeId": doc.ID,
				"error":   err,
			})
			continue
		}
		places = append(places, place)
	}

	c.logger.Debug("kakao search completed", map[string]interface{}{
		"query":       query,
		"radius":      radius,
		"resultCount": len(places),
		"totalCount":  body.Meta.TotalCount,
	})
	return places, nil
}

// State reports the circuit breaker state for readiness checks.
func (c *Client) State() string {
	return c.http.State()
}

func (c *Client) searchURL(query string, lat, lng float64, radius int) string {
	params := url.Values{}
	params.Set("query", query)
	params.Set("y", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("x", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("radius", strconv.Itoa(radius))
	params.Set("size", strconv.Itoa(pageSize))
	return strings.TrimRight(c.config.BaseURL, "/") + searchPath + "?" + params.Encode()
}
