package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// dateFormat is used for date-only fields such as watch dates.
const dateFormat = "2006-01-02"

// MovieView describes a library record in a transport-friendly format.
type MovieView struct {
	ID            int64   `json:"id"`
	TMDBID        int64   `json:"tmdbId,omitempty"`
	IMDBID        string  `json:"imdbId,omitempty"`
	Title         string  `json:"title"`
	Year          int     `json:"year,omitempty"`
	Directors     string  `json:"directors,omitempty"`
	PosterURL     string  `json:"posterUrl,omitempty"`
	WatchedDate   string  `json:"watchedDate,omitempty"`
	Rating        float64 `json:"rating,omitempty"`
	Rewatch       bool    `json:"rewatch"`
	Tags          string  `json:"tags,omitempty"`
	Review        string  `json:"review,omitempty"`
	IsWatched     bool    `json:"isWatched"`
	IsWatchlist   bool    `json:"isWatchlist"`
	Source        string  `json:"source,omitempty"`
	CreatedAt     string  `json:"createdAt,omitempty"`
	UpdatedAt     string  `json:"updatedAt,omitempty"`
	LetterboxdURL string  `json:"letterboxdUrl,omitempty"`
	TMDBURL       string  `json:"tmdbUrl,omitempty"`
	IMDBURL       string  `json:"imdbUrl,omitempty"`
}

// MovieListResponse wraps a page of movies plus the unpaged total.
type MovieListResponse struct {
	Movies []MovieView `json:"movies"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// SyncStatusView mirrors the sync_status row for API consumers.
type SyncStatusView struct {
	LastSync       string `json:"lastSync,omitempty"`
	MoviesCount    int    `json:"moviesCount"`
	WatchlistCount int    `json:"watchlistCount"`
	Status         string `json:"status"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
	Running        bool   `json:"running"`
}

// StatsView aggregates collection statistics for the dashboard.
type StatsView struct {
	TotalWatched       int            `json:"totalWatched"`
	TotalWatchlist     int            `json:"totalWatchlist"`
	AverageRating      float64        `json:"averageRating"`
	RatingDistribution map[string]int `json:"ratingDistribution"`
	MoviesByYear       map[int]int    `json:"moviesByYear"`
	MoviesByMonth      map[string]int `json:"moviesByMonth"`
}

// YearsResponse lists the distinct release years in the library.
type YearsResponse struct {
	Years []int `json:"years"`
}

// AuthStatusResponse reports whether a Simkl token is stored.
type AuthStatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	AuthURL       string `json:"authUrl,omitempty"`
}
