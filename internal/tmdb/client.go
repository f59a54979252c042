package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"reelsync/internal/logging"
)

// minRequestInterval is the spacing the shared limiter enforces between any
// two outbound TMDB calls.
const minRequestInterval = 250 * time.Millisecond

const posterBaseURL = "https://image.tmdb.org/t/p/w300"

// SearchHit represents a single TMDB search or find match.
type SearchHit struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title"`
	ReleaseDate   string `json:"release_date"`
}

// searchResponse models the TMDB paginated search payload.
type searchResponse struct {
	Page    int         `json:"page"`
	Results []SearchHit `json:"results"`
}

// findResponse models the TMDB cross-reference find payload.
type findResponse struct {
	MovieResults []SearchHit `json:"movie_results"`
}

// CrewMember is a single crew credit on a movie.
type CrewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

// Credits carries the crew list from an appended credits response.
type Credits struct {
	Crew []CrewMember `json:"crew"`
}

// ExternalIDs carries cross-catalog identifiers for a movie.
type ExternalIDs struct {
	IMDBID string `json:"imdb_id"`
}

// Details is the full TMDB movie record used for enrichment.
type Details struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	ReleaseDate string      `json:"release_date"`
	PosterPath  string      `json:"poster_path"`
	ExternalIDs ExternalIDs `json:"external_ids"`
	Credits     Credits     `json:"credits"`
}

// Directors returns the crew entries credited as Director, in catalog order.
func (d *Details) Directors() []string {
	if d == nil {
		return nil
	}
	var names []string
	for _, member := range d.Credits.Crew {
		if member.Job == "Director" {
			names = append(names, member.Name)
		}
	}
	return names
}

// PosterURL returns the full poster image URL, or empty when no poster exists.
func (d *Details) PosterURL() string {
	if d == nil || strings.TrimSpace(d.PosterPath) == "" {
		return ""
	}
	return posterBaseURL + d.PosterPath
}

// Client provides access to the TMDB API for enrichment lookups.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger for transport failure reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(minRequestInterval), 1),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// GetDetails fetches the full movie record including external ids and crew
// credits. It returns nil on any transport or not-found failure.
func (c *Client) GetDetails(ctx context.Context, tmdbID int64) *Details {
	if tmdbID <= 0 {
		return nil
	}
	endpoint := fmt.Sprintf("%s/movie/%d", c.baseURL, tmdbID)
	params := url.Values{}
	params.Set("append_to_response", "external_ids,credits")

	var payload Details
	if err := c.get(ctx, endpoint, params, &payload); err != nil {
		c.logger.Warn("tmdb details lookup failed",
			logging.Int64("tmdb_id", tmdbID),
			logging.Error(err),
		)
		return nil
	}
	return &payload
}

// FindByIMDBID resolves an IMDB id to a TMDB movie via the cross-reference
// endpoint. It returns the first movie hit, or nil when nothing matches or the
// call fails.
func (c *Client) FindByIMDBID(ctx context.Context, imdbID string) *SearchHit {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil
	}
	endpoint := fmt.Sprintf("%s/find/%s", c.baseURL, url.PathEscape(imdbID))
	params := url.Values{}
	params.Set("external_source", "imdb_id")

	var payload findResponse
	if err := c.get(ctx, endpoint, params, &payload); err != nil {
		c.logger.Warn("tmdb find lookup failed",
			logging.String("imdb_id", imdbID),
			logging.Error(err),
		)
		return nil
	}
	if len(payload.MovieResults) == 0 {
		return nil
	}
	hit := payload.MovieResults[0]
	return &hit
}

// Search performs a free-text movie search. The result is empty on failure or
// when nothing matches; it is never nil-vs-error at the caller.
func (c *Client) Search(ctx context.Context, title string, year int) []SearchHit {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	endpoint := c.baseURL + "/search/movie"
	params := url.Values{}
	params.Set("query", title)
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	var payload searchResponse
	if err := c.get(ctx, endpoint, params, &payload); err != nil {
		c.logger.Warn("tmdb search failed",
			logging.String("title", title),
			logging.Int("year", year),
			logging.Error(err),
		)
		return nil
	}
	return payload.Results
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	target, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	target.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb returned %d (latency=%v)", resp.StatusCode, latency)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}
