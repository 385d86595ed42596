// Package google enriches a selected place with photos, rating, opening hours
// and phone number from the Google Places API. Enrichment is best-effort.
package google

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lunch-roulette/internal/common/config"
	apperrors "lunch-roulette/internal/common/errors"
	httpclient "lunch-roulette/internal/common/http"
	"lunch-roulette/internal/common/logger"
	"lunch-roulette/internal/models"

	"github.com/goccy/go-json"
)

const (
	findPlacePath = "/maps/api/place/findplacefromtext/json"
	detailsPath   = "/maps/api/place/details/json"
	photoPath     = "/maps/api/place/photo"

	detailFields = "photos,rating,opening_hours,formatted_phone_number"
)

// ErrPlaceNotFound means Google has no match for the place; callers should
// simply omit the details section.
var ErrPlaceNotFound = apperrors.NewSentinel(apperrors.ErrCodeEnrichmentUnavailable)

type Config struct {
	BaseURL       string
	APIKey        string
	Language      string
	PhotoMaxWidth int
	MaxPhotos     int
	Timeout       time.Duration
	MaxFailures   uint32
	OpenTimeout   time.Duration
}

func ConfigFrom(gc config.GoogleConfig) Config {
	return Config{
		BaseURL:       gc.BaseURL,
		APIKey:        gc.APIKey,
		Language:      gc.Language,
		PhotoMaxWidth: gc.PhotoMaxWidth,
		MaxPhotos:     gc.MaxPhotos,
		Timeout:       config.GetDuration(gc.Timeout),
		MaxFailures:   uint32(gc.BreakerMaxFailures),
		OpenTimeout:   config.GetDuration(gc.BreakerOpenTimeout),
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
			Name:        "google-places",
			Timeout:     cfg.Timeout,
			MaxFailures: cfg.MaxFailures,
			OpenTimeout: cfg.OpenTimeout,
		}),
		logger: log.WithFields(map[string]interface{}{"provider": "google"}),
	}
}

// Details looks the place up by name near (lat, lng) and fetches its details.
func (c *Client) Details(ctx context.Context, name string, lat, lng float64) (*models.PlaceDetails, error) {
	placeID, err := c.findPlaceID(ctx, name, lat, lng)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", detailFields)
	params.Set("language", c.config.Language)
	params.Set("key", c.config.APIKey)

	var body detailsResponse
	if err := c.getJSON(ctx, detailsPath, params, &body); err != nil {
		return nil, err
	}
	if err := checkStatus(body.Status, body.ErrorMessage); err != nil {
		return nil, err
	}

	details := &models.PlaceDetails{
		Rating: body.Result.Rating,
		Phone:  body.Result.FormattedPhoneNumber,
	}
	if oh := body.Result.OpeningHours; oh != nil {
		details.OpeningHours = &models.OpeningHours{
			OpenNow:     oh.OpenNow,
			WeekdayText: oh.WeekdayText,
		}
	}
	for i, photo := range body.Result.Photos {
		if i >= c.config.MaxPhotos {
			break
		}
		details.Photos = append(details.Photos, c.photoURL(photo.PhotoReference))
	}

	c.logger.Debug("place details fetched", map[string]interface{}{
		"name":       name,
		"placeId":    placeID,
		"photoCount": len(details.Photos),
	})
	return details, nil
}

// State reports the circuit breaker state for readiness checks.
func (c *Client) State() string {
	return c.http.State()
}

func (c *Client) findPlaceID(ctx context.Context, name string, lat, lng float64) (string, error) {
	params := url.Values{}
	params.Set("input", name)
	params.Set("inputtype", "textquery")
	params.Set("fields", "place_id")
	params.Set("locationbias", fmt.Sprintf("point:%s,%s",
		strconv.FormatFloat(lat, 'f', -1, 64), strconv.FormatFloat(lng, 'f', -1, 64)))
	params.Set("language", c.config.Language)
	params.Set("key", c.config.APIKey)

	var body findPlaceResponse
	if err := c.getJSON(ctx, findPlacePath, params, &body); err != nil {
		return "", err
	}
	if err := checkStatus(body.Status, body.ErrorMessage); err != nil {
		return "", err
	}
	if len(body.Candidates) == 0 || body.Candidates[0].PlaceID == "" {
		return "", fmt.Errorf("find place %q: %w", name, ErrPlaceNotFound)
	}
	return body.Candidates[0].PlaceID, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build google request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("google %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("google %s returned %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode google response: %w", err)
	}
	return nil
}

func (c *Client) photoURL(reference string) string {
	params := url.Values{}
	params.Set("maxwidth", strconv.Itoa(c.config.PhotoMaxWidth))
	params.Set("photoreference", reference)
	params.Set("key", c.config.APIKey)
	return strings.TrimRight(c.config.BaseURL, "/") + photoPath + "?" + params.Encode()
}

func checkStatus(status, message string) error {
	switch status {
	case "OK":
		return nil
	case "ZERO_RESULTS", "NOT_FOUND":
		return fmt.Errorf("google status %s: %w", status, ErrPlaceNotFound)
	default:
		return fmt.Errorf("google status %s: %s", status, message)
	}
}
