// Package marvelcdb implements a rate-limited client for the MarvelCDB
// public API, used by deck import and the catalog sync command.
package marvelcdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public MarvelCDB API root.
	DefaultBaseURL = "https://marvelcdb.com"

	rateLimitDelay = 100 * time.Millisecond // be polite: 10 req/sec max
	requestTimeout = 30 * time.Second
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 16 * time.Second
)

// ErrPrivateDeck is returned when a decklist is missing, private, or served
// as an empty/non-JSON body. MarvelCDB answers all three the same way.
var ErrPrivateDeck = errors.New("decklist is private or does not exist")

// Pack is a pack entry from /api/public/packs/.
type Pack struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	Position  int    `json:"position"`
	Available string `json:"available"` // release date, empty when unreleased
	Known     int    `json:"known"`
	Total     int    `json:"total"`
}

// Released reports whether the pack has a release date.
func (p Pack) Released() bool { return strings.TrimSpace(p.Available) != "" }

// ParseReleaseDate parses the "available" date of a pack.
func ParseReleaseDate(available string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(available))
}

// Card is a card entry from /api/public/cards/<pack>.json.
type Card struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	PackCode    string `json:"pack_code"`
	TypeCode    string `json:"type_code"`
	FactionCode string `json:"faction_code"`
	Cost        *int   `json:"cost"`
	Traits      string `json:"traits"`
	Quantity    int    `json:"quantity"` // copies per pack; 0 means unreported
}

// Decklist is a published decklist from /api/public/decklist/<id>.
// Arkham-style exports use investigator_* instead of hero_*.
type Decklist struct {
	ID               int64          `json:"id"`
	Name             string         `json:"name"`
	HeroCode         string         `json:"hero_code"`
	HeroName         string         `json:"hero_name"`
	InvestigatorCode string         `json:"investigator_code"`
	InvestigatorName string         `json:"investigator_name"`
	Slots            map[string]int `json:"slots"`
}

// Hero returns the hero code/name with the investigator fields as fallback.
func (d Decklist) Hero() (code, name string) {
	code, name = d.HeroCode, d.HeroName
	if code == "" {
		code = d.InvestigatorCode
	}
	if name == "" {
		name = d.InvestigatorName
	}
	if code == "" {
		code = "unknown"
	}
	if name == "" {
		name = "Unknown Hero"
	}
	return code, name
}

// Client is a MarvelCDB public API client with rate limiting and retries.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
}

// NewClient creates a client for the public MarvelCDB API. An empty baseURL
// selects the production endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: requestTimeout},
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDelay), 1),
		userAgent:   "marvelcdc/1.0",
	}
}

// Packs retrieves all packs.
func (c *Client) Packs(ctx context.Context) ([]Pack, error) {
	var packs []Pack
	if err := c.doRequest(ctx, c.baseURL+"/api/public/packs/", &packs); err != nil {
		return nil, fmt.Errorf("fetch packs: %w", err)
	}
	return packs, nil
}

// Cards retrieves all cards of one pack.
func (c *Client) Cards(ctx context.Context, packCode string) ([]Card, error) {
	var cards []Card
	url := fmt.Sprintf("%s/api/public/cards/%s.json", c.baseURL, packCode)
	if err := c.doRequest(ctx, url, &cards); err != nil {
		return nil, fmt.Errorf("fetch cards for pack %s: %w", packCode, err)
	}
	return cards, nil
}

// Decklist retrieves one published decklist by id. Missing and private
// decklists yield ErrPrivateDeck.
func (c *Client) Decklist(ctx context.Context, id int64) (*Decklist, error) {
	var deck Decklist
	url := fmt.Sprintf("%s/api/public/decklist/%d", c.baseURL, id)
	if err := c.doRequest(ctx, url, &deck); err != nil {
		return nil, fmt.Errorf("fetch decklist %d: %w", id, err)
	}
	return &deck, nil
}

// doRequest performs a GET with rate limiting and retry on transient failures.
func (c *Client) doRequest(ctx context.Context, url string, result any) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			if attempt < maxRetries {
				time.Sleep(backoff)
				backoff = minDuration(backoff*2, maxBackoff)
				continue
			}
			return lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
			if readErr != nil {
				return fmt.Errorf("read response: %w", readErr)
			}
			// MarvelCDB serves private decklists as 200 with an empty body.
			if len(strings.TrimSpace(string(body))) == 0 {
				return ErrPrivateDeck
			}
			if err := json.Unmarshal(body, result); err != nil {
				return ErrPrivateDeck
			}
			return nil

		case http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limited (HTTP 429)")
			if attempt < maxRetries {
				time.Sleep(backoff)
				backoff = minDuration(backoff*2, maxBackoff)
				continue
			}
			return lastErr

		case http.StatusNotFound:
			return ErrPrivateDeck

		default:
			if resp.StatusCode >= 500 && attempt < maxRetries {
				lastErr = fmt.Errorf("server error (HTTP %d)", resp.StatusCode)
				time.Sleep(backoff)
				backoff = minDuration(backoff*2, maxBackoff)
				continue
			}
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
