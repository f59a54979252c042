package letterboxd

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"reelsync/internal/logging"
	"reelsync/internal/media"
)

const (
	// WatchedFilename is the default watched export file.
	WatchedFilename = "letterboxd_watched.csv"
	// WatchlistFilename is the default watchlist export file.
	WatchlistFilename = "letterboxd_watchlist.csv"

	notFoundWatchedFilename   = "not_found_watched.csv"
	notFoundWatchlistFilename = "not_found_watchlist.csv"

	dateLayout = "2006-01-02"
)

var (
	watchedHeaders   = []string{"imdbID", "tmdbID", "Title", "Year", "Directors", "WatchedDate", "Rating", "Rewatch", "Tags", "Review"}
	watchlistHeaders = []string{"imdbID", "tmdbID", "Title", "Year", "Directors"}
)

// Exporter writes Letterboxd import CSVs into an output directory. Entries
// without an external id cannot be imported and are routed to side files so
// they are not silently lost.
type Exporter struct {
	outputDir string
	logger    *slog.Logger
}

// NewExporter creates the output directory and returns an Exporter.
func NewExporter(outputDir string, logger *slog.Logger) (*Exporter, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	return &Exporter{
		outputDir: outputDir,
		logger:    logging.NewComponentLogger(logger, "letterboxd"),
	}, nil
}

// ExportWatched writes watched entries and returns the main CSV path.
func (e *Exporter) ExportWatched(entries []media.WatchEntry) (string, error) {
	var valid, notFound []media.WatchEntry
	for _, entry := range entries {
		if entry.Movie.HasID() {
			valid = append(valid, entry)
		} else {
			notFound = append(notFound, entry)
		}
	}

	outputPath := filepath.Join(e.outputDir, WatchedFilename)
	rows := make([][]string, 0, len(valid))
	for _, entry := range valid {
		rows = append(rows, watchedRow(entry))
	}
	if err := writeCSV(outputPath, watchedHeaders, rows); err != nil {
		return "", err
	}
	e.logger.Info("exported watched movies",
		logging.Int("count", len(valid)),
		logging.String("path", outputPath))

	if len(notFound) > 0 {
		if err := e.exportNotFoundWatched(notFound); err != nil {
			return "", err
		}
	}
	return outputPath, nil
}

// ExportWatchlist writes watchlist entries and returns the main CSV path.
func (e *Exporter) ExportWatchlist(entries []media.WatchlistEntry) (string, error) {
	var valid, notFound []media.WatchlistEntry
	for _, entry := range entries {
		if entry.Movie.HasID() {
			valid = append(valid, entry)
		} else {
			notFound = append(notFound, entry)
		}
	}

	outputPath := filepath.Join(e.outputDir, WatchlistFilename)
	rows := make([][]string, 0, len(valid))
	for _, entry := range valid {
		rows = append(rows, watchlistRow(entry))
	}
	if err := writeCSV(outputPath, watchlistHeaders, rows); err != nil {
		return "", err
	}
	e.logger.Info("exported watchlist movies",
		logging.Int("count", len(valid)),
		logging.String("path", outputPath))

	if len(notFound) > 0 {
		if err := e.exportNotFoundWatchlist(notFound); err != nil {
			return "", err
		}
	}
	return outputPath, nil
}

func watchedRow(entry media.WatchEntry) []string {
	movie := entry.Movie
	rating := ""
	if entry.Rating > 0 {
		rating = strconv.FormatFloat(entry.Rating, 'f', -1, 64)
	}
	watchedDate := ""
	if !entry.WatchedDate.IsZero() {
		watchedDate = entry.WatchedDate.Format(dateLayout)
	}
	rewatch := "false"
	if entry.Rewatch {
		rewatch = "true"
	}
	return []string{
		movie.IMDBID,
		tmdbIDString(movie.TMDBID),
		movie.Title,
		yearString(movie.Year),
		movie.DirectorsJoined(),
		watchedDate,
		rating,
		rewatch,
		strings.Join(entry.Tags, ", "),
		entry.Review,
	}
}

func watchlistRow(entry media.WatchlistEntry) []string {
	movie := entry.Movie
	return []string{
		movie.IMDBID,
		tmdbIDString(movie.TMDBID),
		movie.Title,
		yearString(movie.Year),
		movie.DirectorsJoined(),
	}
}

func (e *Exporter) exportNotFoundWatched(entries []media.WatchEntry) error {
	outputPath := filepath.Join(e.outputDir, notFoundWatchedFilename)
	headers := []string{"Title", "Year", "WatchedDate", "Rating", "Reason"}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		watchedDate := ""
		if !entry.WatchedDate.IsZero() {
			watchedDate = entry.WatchedDate.Format(dateLayout)
		}
		rating := ""
		if entry.Rating > 0 {
			rating = strconv.FormatFloat(entry.Rating, 'f', -1, 64)
		}
		rows = append(rows, []string{
			entry.Movie.Title,
			yearString(entry.Movie.Year),
			watchedDate,
			rating,
			"No TMDB/IMDB ID found",
		})
	}
	if err := writeCSV(outputPath, headers, rows); err != nil {
		return err
	}
	e.logger.Warn("some watched movies could not be matched",
		logging.Int("count", len(entries)),
		logging.String("path", outputPath))
	return nil
}

func (e *Exporter) exportNotFoundWatchlist(entries []media.WatchlistEntry) error {
	outputPath := filepath.Join(e.outputDir, notFoundWatchlistFilename)
	headers := []string{"Title", "Year", "AddedDate", "Reason"}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		addedDate := ""
		if !entry.AddedDate.IsZero() {
			addedDate = entry.AddedDate.Format(dateLayout)
		}
		rows = append(rows, []string{
			entry.Movie.Title,
			yearString(entry.Movie.Year),
			addedDate,
			"No TMDB/IMDB ID found",
		})
	}
	if err := writeCSV(outputPath, headers, rows); err != nil {
		return err
	}
	e.logger.Warn("some watchlist movies could not be matched",
		logging.Int("count", len(entries)),
		logging.String("path", outputPath))
	return nil
}

// WriteWatched streams the importable watched rows to w, skipping entries
// without an external id.
func WriteWatched(w io.Writer, entries []media.WatchEntry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(watchedHeaders); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, entry := range entries {
		if !entry.Movie.HasID() {
			continue
		}
		if err := writer.Write(watchedRow(entry)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteWatchlist streams the importable watchlist rows to w, skipping entries
// without an external id.
func WriteWatchlist(w io.Writer, entries []media.WatchlistEntry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(watchlistHeaders); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, entry := range entries {
		if !entry.Movie.HasID() {
			continue
		}
		if err := writer.Write(watchlistRow(entry)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func tmdbIDString(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func yearString(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}

func writeCSV(path string, headers []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv %s: %w", path, err)
	}
	return file.Close()
}
