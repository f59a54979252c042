package media

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// titleFolder lowercases titles for identity comparison using Unicode case
// folding rather than ASCII-only lowering.
var titleFolder = cases.Fold()

// Movie represents a single film with whatever identifiers are known for it.
// Zero values mean "unset": Year 0, TMDBID 0, IMDBID "".
type Movie struct {
	Title     string
	Year      int
	TMDBID    int64
	IMDBID    string
	Directors []string
}

// HasID reports whether the movie carries at least one catalog identifier.
func (m Movie) HasID() bool {
	return m.TMDBID != 0 || m.IMDBID != ""
}

// Same reports whether two records describe the same movie. Identifier
// equality always wins over title/year equality, and the TMDB id is checked
// before the IMDB id.
func (m Movie) Same(other Movie) bool {
	if m.TMDBID != 0 && other.TMDBID != 0 {
		return m.TMDBID == other.TMDBID
	}
	if m.IMDBID != "" && other.IMDBID != "" {
		return m.IMDBID == other.IMDBID
	}
	return FoldTitle(m.Title) == FoldTitle(other.Title) && m.Year == other.Year
}

// Key returns a bucket string consistent with Same: records bucket by TMDB id
// when present, else IMDB id, else folded title plus year.
func (m Movie) Key() string {
	if m.TMDBID != 0 {
		return fmt.Sprintf("tmdb:%d", m.TMDBID)
	}
	if m.IMDBID != "" {
		return "imdb:" + m.IMDBID
	}
	return fmt.Sprintf("title:%s:%d", FoldTitle(m.Title), m.Year)
}

// Clone returns a deep copy; the Directors slice is never shared.
func (m Movie) Clone() Movie {
	clone := m
	if len(m.Directors) > 0 {
		clone.Directors = make([]string, len(m.Directors))
		copy(clone.Directors, m.Directors)
	} else {
		clone.Directors = nil
	}
	return clone
}

// DirectorsJoined renders the director list for CSV and database columns.
func (m Movie) DirectorsJoined() string {
	return strings.Join(m.Directors, ", ")
}

// FoldTitle normalizes a title for case-insensitive comparison.
func FoldTitle(title string) string {
	return titleFolder.String(strings.TrimSpace(title))
}

// WatchEntry wraps a Movie with the details of one watch.
type WatchEntry struct {
	Movie       Movie
	WatchedDate time.Time
	Rating      float64
	Rewatch     bool
	Tags        []string
	Review      string
}

// WatchlistEntry wraps a Movie queued for future watching.
type WatchlistEntry struct {
	Movie     Movie
	AddedDate time.Time
	Priority  int
}
