package simkl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reelsync/internal/logging"
	"reelsync/internal/media"
)

const defaultBaseURL = "https://api.simkl.com"

// Client talks to the Simkl REST API on behalf of an authorized user.
type Client struct {
	clientID   string
	token      Token
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customises Client construction.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used in tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New constructs a Simkl client for the given application and user token.
func New(clientID string, token Token, logger *slog.Logger, opts ...Option) (*Client, error) {
	if clientID == "" {
		return nil, fmt.Errorf("simkl client id is required")
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("simkl access token is required")
	}
	client := &Client{
		clientID:   clientID,
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logging.NewComponentLogger(logger, "simkl"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name identifies the source in logs and status output.
func (c *Client) Name() string { return "simkl" }

// TestConnection checks that the stored token is still accepted.
func (c *Client) TestConnection(ctx context.Context) bool {
	var settings struct {
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	}
	if err := c.get(ctx, "/users/settings", nil, &settings); err != nil {
		c.logger.Warn("simkl connection test failed", logging.Error(err))
		return false
	}
	return true
}

// flexibleID tolerates Simkl returning ids as either JSON numbers or strings.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	trimmed := strings.Trim(string(data), `"`)
	if trimmed == "null" {
		trimmed = ""
	}
	*f = flexibleID(trimmed)
	return nil
}

type simklIDs struct {
	TMDB flexibleID `json:"tmdb"`
	IMDB flexibleID `json:"imdb"`
}

type simklMovie struct {
	Title string   `json:"title"`
	Year  int      `json:"year"`
	IDs   simklIDs `json:"ids"`
}

type simklItem struct {
	Movie         simklMovie `json:"movie"`
	LastWatchedAt string     `json:"last_watched_at"`
	WatchedAt     string     `json:"watched_at"`
	AddedAt       string     `json:"added_at"`
	UserRating    float64    `json:"user_rating"`
}

// GetWatched returns the user's movies with watch dates and ratings. Simkl
// does not track rewatches, so Rewatch is always false here.
func (c *Client) GetWatched(ctx context.Context) ([]media.WatchEntry, error) {
	var payload struct {
		Movies []simklItem `json:"movies"`
	}
	if err := c.get(ctx, "/sync/all-items/movies", nil, &payload); err != nil {
		return nil, fmt.Errorf("fetch simkl watched movies: %w", err)
	}

	entries := make([]media.WatchEntry, 0, len(payload.Movies))
	for _, item := range payload.Movies {
		watched := item.LastWatchedAt
		if watched == "" {
			watched = item.WatchedAt
		}
		entry := media.WatchEntry{
			Movie:       movieFromItem(item.Movie),
			WatchedDate: parseSimklTime(watched),
			Rating:      media.RatingFromTen(item.UserRating),
		}
		entries = append(entries, entry)
	}
	c.logger.Info("fetched simkl watched movies", logging.Int("count", len(entries)))
	return entries, nil
}

// GetWatchlist returns the user's plan-to-watch movies.
func (c *Client) GetWatchlist(ctx context.Context) ([]media.WatchlistEntry, error) {
	var payload struct {
		Movies []simklItem `json:"movies"`
	}
	if err := c.get(ctx, "/sync/all-items/movies/plantowatch", nil, &payload); err != nil {
		return nil, fmt.Errorf("fetch simkl watchlist: %w", err)
	}

	entries := make([]media.WatchlistEntry, 0, len(payload.Movies))
	for _, item := range payload.Movies {
		entries = append(entries, media.WatchlistEntry{
			Movie:     movieFromItem(item.Movie),
			AddedDate: parseSimklTime(item.AddedAt),
		})
	}
	c.logger.Info("fetched simkl watchlist", logging.Int("count", len(entries)))
	return entries, nil
}

func movieFromItem(m simklMovie) media.Movie {
	movie := media.Movie{
		Title:  m.Title,
		Year:   m.Year,
		IMDBID: string(m.IDs.IMDB),
	}
	if m.IDs.TMDB != "" {
		if id, err := strconv.ParseInt(string(m.IDs.TMDB), 10, 64); err == nil {
			movie.TMDBID = id
		}
	}
	return movie
}

func parseSimklTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build simkl request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token.AccessToken)
	req.Header.Set("simkl-api-key", c.clientID)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("simkl request %s failed after %s: %w", path, time.Since(started).Round(time.Millisecond), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("simkl request %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode simkl response %s: %w", path, err)
	}
	return nil
}
