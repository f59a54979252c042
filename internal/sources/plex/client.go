package plex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"reelsync/internal/logging"
	"reelsync/internal/media"
)

var (
	tmdbGUIDPattern = regexp.MustCompile(`themoviedb://(\d+)`)
	imdbGUIDPattern = regexp.MustCompile(`imdb://(tt\d+)`)
)

// Client talks to a Plex Media Server over its HTTP API.
type Client struct {
	baseURL    string
	token      string
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

// New constructs a Plex client for the given server URL and token.
func New(baseURL, token string, logger *slog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("plex server url is required")
	}
	if token == "" {
		return nil, fmt.Errorf("plex token is required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logging.NewComponentLogger(logger, "plex"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name identifies the source in logs and status output.
func (c *Client) Name() string { return "plex" }

type serverIdentity struct {
	MediaContainer struct {
		FriendlyName string `json:"friendlyName"`
	} `json:"MediaContainer"`
}

// TestConnection checks that the server answers with its identity.
func (c *Client) TestConnection(ctx context.Context) bool {
	var identity serverIdentity
	if err := c.get(ctx, "/", nil, &identity); err != nil {
		c.logger.Warn("plex connection test failed", logging.Error(err))
		return false
	}
	c.logger.Info("connected to plex server", logging.String("name", identity.MediaContainer.FriendlyName))
	return true
}

type librarySection struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

type guidRef struct {
	ID string `json:"id"`
}

type tagRef struct {
	Tag string `json:"tag"`
}

type videoItem struct {
	Title        string    `json:"title"`
	Year         int       `json:"year"`
	GUID         string    `json:"guid"`
	ViewCount    int       `json:"viewCount"`
	LastViewedAt int64     `json:"lastViewedAt"`
	UserRating   float64   `json:"userRating"`
	Guids        []guidRef `json:"Guid"`
	Directors    []tagRef  `json:"Director"`
}

// GetWatched walks every movie library and returns the watched titles.
func (c *Client) GetWatched(ctx context.Context) ([]media.WatchEntry, error) {
	var sections struct {
		MediaContainer struct {
			Directory []librarySection `json:"Directory"`
		} `json:"MediaContainer"`
	}
	if err := c.get(ctx, "/library/sections", nil, &sections); err != nil {
		return nil, fmt.Errorf("list plex libraries: %w", err)
	}

	var entries []media.WatchEntry
	for _, section := range sections.MediaContainer.Directory {
		if section.Type != "movie" {
			continue
		}
		c.logger.Debug("scanning plex library", logging.String("library", section.Title))

		var listing struct {
			MediaContainer struct {
				Metadata []videoItem `json:"Metadata"`
			} `json:"MediaContainer"`
		}
		params := url.Values{}
		params.Set("includeGuids", "1")
		path := fmt.Sprintf("/library/sections/%s/all", section.Key)
		if err := c.get(ctx, path, params, &listing); err != nil {
			return nil, fmt.Errorf("list plex library %s: %w", section.Title, err)
		}

		for _, item := range listing.MediaContainer.Metadata {
			if item.ViewCount < 1 {
				continue
			}
			entry := media.WatchEntry{
				Movie:   movieFromItem(item),
				Rating:  media.RatingFromTen(item.UserRating),
				Rewatch: item.ViewCount > 1,
			}
			if item.LastViewedAt > 0 {
				entry.WatchedDate = time.Unix(item.LastViewedAt, 0).UTC()
			}
			entries = append(entries, entry)
		}
	}

	c.logger.Info("fetched plex watched movies", logging.Int("count", len(entries)))
	return entries, nil
}

// GetWatchlist returns an empty list. The server API does not expose the
// account watchlist, which lives on plex.tv.
func (c *Client) GetWatchlist(ctx context.Context) ([]media.WatchlistEntry, error) {
	c.logger.Info("plex watchlist not supported, returning empty list")
	return nil, nil
}

func movieFromItem(item videoItem) media.Movie {
	movie := media.Movie{
		Title: item.Title,
		Year:  item.Year,
	}
	for _, guid := range item.Guids {
		switch {
		case strings.HasPrefix(guid.ID, "tmdb://"):
			if id, err := strconv.ParseInt(strings.TrimPrefix(guid.ID, "tmdb://"), 10, 64); err == nil {
				movie.TMDBID = id
			}
		case strings.HasPrefix(guid.ID, "imdb://"):
			movie.IMDBID = strings.TrimPrefix(guid.ID, "imdb://")
		}
	}
	// Older servers only populate the legacy agent guid.
	if movie.TMDBID == 0 {
		if m := tmdbGUIDPattern.FindStringSubmatch(item.GUID); m != nil {
			if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				movie.TMDBID = id
			}
		}
	}
	if movie.IMDBID == "" {
		if m := imdbGUIDPattern.FindStringSubmatch(item.GUID); m != nil {
			movie.IMDBID = m[1]
		}
	}
	for _, director := range item.Directors {
		if director.Tag != "" {
			movie.Directors = append(movie.Directors, director.Tag)
		}
	}
	return movie
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build plex request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("plex request %s failed after %s: %w", path, time.Since(started).Round(time.Millisecond), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("plex request %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode plex response %s: %w", path, err)
	}
	return nil
}
