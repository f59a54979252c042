package tautulli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"reelsync/internal/logging"
	"reelsync/internal/media"
)

const historyPageSize = 100

// Client talks to the Tautulli v2 API. Tautulli records play history but
// carries no external ids or ratings, so its entries rely on enrichment.
type Client struct {
	baseURL    string
	apiKey     string
	userID     int
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customises Client construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New constructs a Tautulli client for the given instance and API key.
func New(baseURL, apiKey string, userID int, logger *slog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("tautulli url is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("tautulli api key is required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		userID:     userID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logging.NewComponentLogger(logger, "tautulli"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name identifies the source in logs and status output.
func (c *Client) Name() string { return "tautulli" }

// TestConnection checks that the API key is accepted.
func (c *Client) TestConnection(ctx context.Context) bool {
	var info struct {
		PMSName string `json:"pms_name"`
	}
	if err := c.call(ctx, "get_server_info", nil, &info); err != nil {
		c.logger.Warn("tautulli connection test failed", logging.Error(err))
		return false
	}
	c.logger.Info("connected to tautulli", logging.String("server", info.PMSName))
	return true
}

type historyItem struct {
	MediaType string `json:"media_type"`
	Title     string `json:"title"`
	Year      int    `json:"year"`
	Stopped   int64  `json:"stopped"`
}

type historyPage struct {
	RecordsFiltered int           `json:"recordsFiltered"`
	Data            []historyItem `json:"data"`
}

// GetWatched pages through the play history and returns one entry per movie,
// keeping the most recent watch and marking repeated watches as rewatches.
func (c *Client) GetWatched(ctx context.Context) ([]media.WatchEntry, error) {
	var entries []media.WatchEntry

	for start := 0; ; start += historyPageSize {
		params := url.Values{}
		params.Set("user_id", fmt.Sprintf("%d", c.userID))
		params.Set("media_type", "movie")
		params.Set("start", fmt.Sprintf("%d", start))
		params.Set("length", fmt.Sprintf("%d", historyPageSize))

		var page historyPage
		if err := c.call(ctx, "get_history", params, &page); err != nil {
			return nil, fmt.Errorf("fetch tautulli history: %w", err)
		}
		if len(page.Data) == 0 {
			break
		}

		for _, item := range page.Data {
			if item.MediaType != "movie" {
				continue
			}
			entry := media.WatchEntry{
				Movie: media.Movie{Title: item.Title, Year: item.Year},
			}
			if item.Stopped > 0 {
				entry.WatchedDate = time.Unix(item.Stopped, 0).UTC()
			}
			entries = append(entries, entry)
		}

		if start+historyPageSize >= page.RecordsFiltered {
			break
		}
	}

	deduped := deduplicate(entries)
	c.logger.Info("fetched tautulli watched movies", logging.Int("count", len(deduped)))
	return deduped, nil
}

// GetWatchlist returns an empty list. Tautulli tracks plays, not watchlists.
func (c *Client) GetWatchlist(ctx context.Context) ([]media.WatchlistEntry, error) {
	c.logger.Info("tautulli does not support watchlists, returning empty list")
	return nil, nil
}

// deduplicate keeps the most recent watch per movie. A movie seen more than
// once in the history comes back with Rewatch set.
func deduplicate(entries []media.WatchEntry) []media.WatchEntry {
	groups := make(map[string][]media.WatchEntry)
	var order []string
	for _, entry := range entries {
		key := fmt.Sprintf("%s:%d", media.FoldTitle(entry.Movie.Title), entry.Movie.Year)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], entry)
	}

	result := make([]media.WatchEntry, 0, len(order))
	for _, key := range order {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].WatchedDate.After(group[j].WatchedDate)
		})
		latest := group[0]
		if len(group) > 1 {
			latest.Rewatch = true
		}
		result = append(result, latest)
	}
	return result
}

func (c *Client) call(ctx context.Context, cmd string, params url.Values, out any) error {
	query := url.Values{}
	query.Set("apikey", c.apiKey)
	query.Set("cmd", cmd)
	for key, values := range params {
		for _, value := range values {
			query.Add(key, value)
		}
	}

	endpoint := c.baseURL + "/api/v2?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build tautulli request: %w", err)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tautulli command %s failed after %s: %w", cmd, time.Since(started).Round(time.Millisecond), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tautulli command %s returned status %d", cmd, resp.StatusCode)
	}

	var envelope struct {
		Response struct {
			Result string          `json:"result"`
			Data   json.RawMessage `json:"data"`
		} `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode tautulli response for %s: %w", cmd, err)
	}
	if envelope.Response.Result != "success" {
		return fmt.Errorf("tautulli command %s returned result %q", cmd, envelope.Response.Result)
	}
	if out == nil || len(envelope.Response.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Response.Data, out); err != nil {
		return fmt.Errorf("decode tautulli data for %s: %w", cmd, err)
	}
	return nil
}
