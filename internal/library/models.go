package library

import (
	"fmt"
	"strings"
	"time"

	"reelsync/internal/media"
)

// Record is one library row: a movie plus its watch state.
type Record struct {
	ID          int64
	TMDBID      int64
	IMDBID      string
	Title       string
	Year        int
	Directors   string
	PosterURL   string
	WatchedDate time.Time
	Rating      float64
	Rewatch     bool
	Tags        string
	Review      string
	IsWatched   bool
	IsWatchlist bool
	Source      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LetterboxdURL returns the Letterboxd page for the movie, or "" without a TMDB id.
func (r *Record) LetterboxdURL() string {
	if r.TMDBID == 0 {
		return ""
	}
	return fmt.Sprintf("https://letterboxd.com/tmdb/%d/", r.TMDBID)
}

// TMDBURL returns the TMDB page for the movie, or "" without a TMDB id.
func (r *Record) TMDBURL() string {
	if r.TMDBID == 0 {
		return ""
	}
	return fmt.Sprintf("https://www.themoviedb.org/movie/%d", r.TMDBID)
}

// IMDBURL returns the IMDB page for the movie, or "" without an IMDB id.
func (r *Record) IMDBURL() string {
	if r.IMDBID == "" {
		return ""
	}
	return fmt.Sprintf("https://www.imdb.com/title/%s/", r.IMDBID)
}

// Movie converts the record back to its identity form.
func (r *Record) Movie() media.Movie {
	movie := media.Movie{
		Title:  r.Title,
		Year:   r.Year,
		TMDBID: r.TMDBID,
		IMDBID: r.IMDBID,
	}
	if r.Directors != "" {
		for _, name := range strings.Split(r.Directors, ", ") {
			if name != "" {
				movie.Directors = append(movie.Directors, name)
			}
		}
	}
	return movie
}

// WatchEntry converts the record to an export entry.
func (r *Record) WatchEntry() media.WatchEntry {
	entry := media.WatchEntry{
		Movie:       r.Movie(),
		WatchedDate: r.WatchedDate,
		Rating:      r.Rating,
		Rewatch:     r.Rewatch,
		Review:      r.Review,
	}
	if r.Tags != "" {
		entry.Tags = strings.Split(r.Tags, ", ")
	}
	return entry
}

// WatchlistEntry converts the record to an export entry.
func (r *Record) WatchlistEntry() media.WatchlistEntry {
	return media.WatchlistEntry{Movie: r.Movie()}
}

// RecordFromWatch builds a watched record from a sync entry.
func RecordFromWatch(entry media.WatchEntry, source string) Record {
	return Record{
		TMDBID:      entry.Movie.TMDBID,
		IMDBID:      entry.Movie.IMDBID,
		Title:       entry.Movie.Title,
		Year:        entry.Movie.Year,
		Directors:   entry.Movie.DirectorsJoined(),
		WatchedDate: entry.WatchedDate,
		Rating:      entry.Rating,
		Rewatch:     entry.Rewatch,
		Tags:        strings.Join(entry.Tags, ", "),
		Review:      entry.Review,
		IsWatched:   true,
		Source:      source,
	}
}

// RecordFromWatchlist builds a watchlist record from a sync entry.
func RecordFromWatchlist(entry media.WatchlistEntry, source string) Record {
	return Record{
		TMDBID:      entry.Movie.TMDBID,
		IMDBID:      entry.Movie.IMDBID,
		Title:       entry.Movie.Title,
		Year:        entry.Movie.Year,
		Directors:   entry.Movie.DirectorsJoined(),
		IsWatchlist: true,
		Source:      source,
	}
}

// SyncState mirrors the single sync_status row.
type SyncState struct {
	LastSync       time.Time
	MoviesCount    int
	WatchlistCount int
	Status         string
	ErrorMessage   string
}

// ListOptions filters and orders List and Count queries.
type ListOptions struct {
	Watched   *bool
	Watchlist *bool
	Search    string
	Year      int
	MinRating float64
	MaxRating float64
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// Statistics aggregates the collection for the dashboard.
type Statistics struct {
	TotalWatched       int
	TotalWatchlist     int
	AverageRating      float64
	RatingDistribution map[string]int
	MoviesByYear       map[int]int
	MoviesByMonth      map[string]int
}
