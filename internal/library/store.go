package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"reelsync/internal/config"
)

// sortColumns whitelists the columns List accepts for ordering.
var sortColumns = map[string]string{
	"title":        "title",
	"year":         "year",
	"rating":       "rating",
	"watched_date": "watched_date",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
}

// Store manages library persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the library database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "library.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Upsert inserts a record or merges it into the existing row for the same
// movie. Identity is resolved by tmdb id, then imdb id, then title and year.
// Unset fields in the incoming record never clear stored values, while the
// watched and watchlist flags accumulate so a movie can be both.
func (s *Store) Upsert(ctx context.Context, record Record) (*Record, error) {
	existing, err := s.findIdentity(ctx, record)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if existing == nil {
		record.CreatedAt = now
		record.UpdatedAt = now
		res, err := s.db.ExecContext(
			ctx,
			`INSERT INTO movies (
                tmdb_id, imdb_id, title, year, directors, poster_url,
                watched_date, rating, rewatch, tags, review,
                is_watched, is_watchlist, source, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			nullableInt64(record.TMDBID),
			nullableString(record.IMDBID),
			record.Title,
			nullableInt(record.Year),
			nullableString(record.Directors),
			nullableString(record.PosterURL),
			nullableDate(record.WatchedDate),
			nullableFloat(record.Rating),
			boolToInt(record.Rewatch),
			nullableString(record.Tags),
			nullableString(record.Review),
			boolToInt(record.IsWatched),
			boolToInt(record.IsWatchlist),
			record.Source,
			now.Format(time.RFC3339Nano),
			now.Format(time.RFC3339Nano),
		)
		if err != nil {
			return nil, fmt.Errorf("insert movie: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		return s.GetByID(ctx, id)
	}

	merged := mergeRecords(*existing, record)
	merged.UpdatedAt = now
	_, err = s.db.ExecContext(
		ctx,
		`UPDATE movies
         SET tmdb_id = ?, imdb_id = ?, title = ?, year = ?, directors = ?,
             poster_url = ?, watched_date = ?, rating = ?, rewatch = ?,
             tags = ?, review = ?, is_watched = ?, is_watchlist = ?,
             source = ?, updated_at = ?
         WHERE id = ?`,
		nullableInt64(merged.TMDBID),
		nullableString(merged.IMDBID),
		merged.Title,
		nullableInt(merged.Year),
		nullableString(merged.Directors),
		nullableString(merged.PosterURL),
		nullableDate(merged.WatchedDate),
		nullableFloat(merged.Rating),
		boolToInt(merged.Rewatch),
		nullableString(merged.Tags),
		nullableString(merged.Review),
		boolToInt(merged.IsWatched),
		boolToInt(merged.IsWatchlist),
		merged.Source,
		now.Format(time.RFC3339Nano),
		merged.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update movie: %w", err)
	}
	return s.GetByID(ctx, merged.ID)
}

func (s *Store) findIdentity(ctx context.Context, record Record) (*Record, error) {
	if record.TMDBID != 0 {
		return s.getBy(ctx, `tmdb_id = ?`, record.TMDBID)
	}
	if record.IMDBID != "" {
		return s.getBy(ctx, `imdb_id = ?`, record.IMDBID)
	}
	return s.getBy(ctx, `title = ? COLLATE NOCASE AND year IS ?`, record.Title, nullableInt(record.Year))
}

func mergeRecords(existing, incoming Record) Record {
	merged := existing
	if incoming.TMDBID != 0 {
		merged.TMDBID = incoming.TMDBID
	}
	if incoming.IMDBID != "" {
		merged.IMDBID = incoming.IMDBID
	}
	if incoming.Title != "" {
		merged.Title = incoming.Title
	}
	if incoming.Year != 0 {
		merged.Year = incoming.Year
	}
	if incoming.Directors != "" {
		merged.Directors = incoming.Directors
	}
	if incoming.PosterURL != "" {
		merged.PosterURL = incoming.PosterURL
	}
	if !incoming.WatchedDate.IsZero() {
		merged.WatchedDate = incoming.WatchedDate
	}
	if incoming.Rating > 0 {
		merged.Rating = incoming.Rating
	}
	if incoming.Rewatch {
		merged.Rewatch = true
	}
	if incoming.Tags != "" {
		merged.Tags = incoming.Tags
	}
	if incoming.Review != "" {
		merged.Review = incoming.Review
	}
	if incoming.IsWatched {
		merged.IsWatched = true
	}
	if incoming.IsWatchlist {
		merged.IsWatchlist = true
	}
	if incoming.Source != "" {
		merged.Source = incoming.Source
	}
	return merged
}

// GetByID fetches a record by identifier, or nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Record, error) {
	return s.getBy(ctx, `id = ?`, id)
}

func (s *Store) getBy(ctx context.Context, where string, args ...any) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM movies WHERE `+where+` LIMIT 1`, args...)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get movie: %w", err)
	}
	return record, nil
}

// List returns records matching the options.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]*Record, error) {
	where, args := buildFilters(opts)

	column, ok := sortColumns[opts.SortBy]
	if !ok {
		column = "watched_date"
	}
	// NULL rows sort last on descending, first on ascending.
	order := "ORDER BY " + column + " IS NULL, " + column + " DESC"
	if strings.EqualFold(opts.SortOrder, "asc") {
		order = "ORDER BY " + column + " IS NOT NULL, " + column + " ASC"
	}

	query := `SELECT ` + recordColumns + ` FROM movies` + where + ` ` + order
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Count returns the number of records matching the options, ignoring paging.
func (s *Store) Count(ctx context.Context, opts ListOptions) (int, error) {
	where, args := buildFilters(opts)
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM movies`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return count, nil
}

func buildFilters(opts ListOptions) (string, []any) {
	var clauses []string
	var args []any
	if opts.Watched != nil {
		clauses = append(clauses, `is_watched = ?`)
		args = append(args, boolToInt(*opts.Watched))
	}
	if opts.Watchlist != nil {
		clauses = append(clauses, `is_watchlist = ?`)
		args = append(args, boolToInt(*opts.Watchlist))
	}
	if opts.Search != "" {
		clauses = append(clauses, `title LIKE ? COLLATE NOCASE`)
		args = append(args, "%"+opts.Search+"%")
	}
	if opts.Year != 0 {
		clauses = append(clauses, `year = ?`)
		args = append(args, opts.Year)
	}
	if opts.MinRating > 0 {
		clauses = append(clauses, `rating >= ?`)
		args = append(args, opts.MinRating)
	}
	if opts.MaxRating > 0 {
		clauses = append(clauses, `rating <= ?`)
		args = append(args, opts.MaxRating)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// UpdateFields applies a partial update to a record. Only the keys present in
// updates change; unknown keys are rejected.
func (s *Store) UpdateFields(ctx context.Context, id int64, updates map[string]any) (*Record, error) {
	allowed := map[string]string{
		"rating":       "rating",
		"watched_date": "watched_date",
		"rewatch":      "rewatch",
		"tags":         "tags",
		"review":       "review",
		"is_watched":   "is_watched",
		"is_watchlist": "is_watchlist",
	}

	var sets []string
	var args []any
	for key, value := range updates {
		column, ok := allowed[key]
		if !ok {
			return nil, fmt.Errorf("field %q cannot be updated", key)
		}
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if len(sets) == 0 {
		return s.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC().Format(time.RFC3339Nano), id)

	res, err := s.db.ExecContext(ctx, `UPDATE movies SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update movie fields: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, id)
}

// Delete removes a record by identifier.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete movie: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Years returns the distinct release years present, newest first.
func (s *Store) Years(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT year FROM movies WHERE year IS NOT NULL ORDER BY year DESC`)
	if err != nil {
		return nil, fmt.Errorf("list years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, err
		}
		years = append(years, year)
	}
	return years, rows.Err()
}

// Statistics aggregates the collection.
func (s *Store) Statistics(ctx context.Context) (Statistics, error) {
	stats := Statistics{
		RatingDistribution: make(map[string]int),
		MoviesByYear:       make(map[int]int),
		MoviesByMonth:      make(map[string]int),
	}

	row := s.db.QueryRowContext(ctx, `SELECT
        SUM(is_watched), SUM(is_watchlist), AVG(CASE WHEN is_watched = 1 THEN rating END)
        FROM movies`)
	var watched, watchlist sql.NullInt64
	var avg sql.NullFloat64
	if err := row.Scan(&watched, &watchlist, &avg); err != nil {
		return stats, fmt.Errorf("library totals: %w", err)
	}
	stats.TotalWatched = int(watched.Int64)
	stats.TotalWatchlist = int(watchlist.Int64)
	if avg.Valid {
		stats.AverageRating = math.Round(avg.Float64*100) / 100
	}

	ratingRows, err := s.db.QueryContext(ctx,
		`SELECT rating, COUNT(1) FROM movies WHERE is_watched = 1 AND rating IS NOT NULL GROUP BY rating`)
	if err != nil {
		return stats, fmt.Errorf("rating distribution: %w", err)
	}
	defer ratingRows.Close()
	for ratingRows.Next() {
		var rating float64
		var count int
		if err := ratingRows.Scan(&rating, &count); err != nil {
			return stats, err
		}
		stats.RatingDistribution[formatRating(rating)] = count
	}
	if err := ratingRows.Err(); err != nil {
		return stats, err
	}

	yearRows, err := s.db.QueryContext(ctx,
		`SELECT year, COUNT(1) FROM movies
         WHERE is_watched = 1 AND year IS NOT NULL
         GROUP BY year ORDER BY year DESC LIMIT 20`)
	if err != nil {
		return stats, fmt.Errorf("movies by year: %w", err)
	}
	defer yearRows.Close()
	for yearRows.Next() {
		var year, count int
		if err := yearRows.Scan(&year, &count); err != nil {
			return stats, err
		}
		stats.MoviesByYear[year] = count
	}
	if err := yearRows.Err(); err != nil {
		return stats, err
	}

	monthRows, err := s.db.QueryContext(ctx,
		`SELECT substr(watched_date, 1, 7), COUNT(1) FROM movies
         WHERE is_watched = 1 AND watched_date IS NOT NULL
         GROUP BY substr(watched_date, 1, 7)
         ORDER BY substr(watched_date, 1, 7) DESC LIMIT 12`)
	if err != nil {
		return stats, fmt.Errorf("movies by month: %w", err)
	}
	defer monthRows.Close()
	for monthRows.Next() {
		var month string
		var count int
		if err := monthRows.Scan(&month, &count); err != nil {
			return stats, err
		}
		stats.MoviesByMonth[month] = count
	}
	return stats, monthRows.Err()
}

// SyncState returns the single sync status row.
func (s *Store) SyncState(ctx context.Context) (SyncState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT last_sync, movies_count, watchlist_count, status, error_message FROM sync_status WHERE id = 1`)
	var (
		lastSyncRaw  sql.NullString
		movies       int
		watchlist    int
		status       string
		errorMessage sql.NullString
	)
	if err := row.Scan(&lastSyncRaw, &movies, &watchlist, &status, &errorMessage); err != nil {
		return SyncState{}, fmt.Errorf("read sync status: %w", err)
	}
	state := SyncState{
		MoviesCount:    movies,
		WatchlistCount: watchlist,
		Status:         status,
		ErrorMessage:   errorMessage.String,
	}
	if lastSyncRaw.Valid {
		if parsed, err := time.Parse(time.RFC3339Nano, lastSyncRaw.String); err == nil {
			state.LastSync = parsed
		}
	}
	return state, nil
}

// SetSyncStatus updates only the status and error message of the sync row.
// last_sync and the counts keep recording the previous successful run while a
// sync is in flight or after one fails.
func (s *Store) SetSyncStatus(ctx context.Context, status, errorMessage string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sync_status SET status = ?, error_message = ? WHERE id = 1`,
		status,
		nullableString(errorMessage),
	)
	if err != nil {
		return fmt.Errorf("update sync status: %w", err)
	}
	return nil
}

// UpdateSyncState overwrites the single sync status row.
func (s *Store) UpdateSyncState(ctx context.Context, state SyncState) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sync_status
         SET last_sync = ?, movies_count = ?, watchlist_count = ?, status = ?, error_message = ?
         WHERE id = 1`,
		nullableDate(state.LastSync),
		state.MoviesCount,
		state.WatchlistCount,
		state.Status,
		nullableString(state.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("update sync status: %w", err)
	}
	return nil
}

const recordColumns = "id, tmdb_id, imdb_id, title, year, directors, poster_url, watched_date, rating, rewatch, tags, review, is_watched, is_watchlist, source, created_at, updated_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id          int64
		tmdbID      sql.NullInt64
		imdbID      sql.NullString
		title       string
		year        sql.NullInt64
		directors   sql.NullString
		posterURL   sql.NullString
		watchedRaw  sql.NullString
		rating      sql.NullFloat64
		rewatch     int
		tags        sql.NullString
		review      sql.NullString
		isWatched   int
		isWatchlist int
		source      string
		createdRaw  string
		updatedRaw  string
	)

	if err := scanner.Scan(
		&id,
		&tmdbID,
		&imdbID,
		&title,
		&year,
		&directors,
		&posterURL,
		&watchedRaw,
		&rating,
		&rewatch,
		&tags,
		&review,
		&isWatched,
		&isWatchlist,
		&source,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	record := &Record{
		ID:          id,
		TMDBID:      tmdbID.Int64,
		IMDBID:      imdbID.String,
		Title:       title,
		Year:        int(year.Int64),
		Directors:   directors.String,
		PosterURL:   posterURL.String,
		Rating:      rating.Float64,
		Rewatch:     rewatch != 0,
		Tags:        tags.String,
		Review:      review.String,
		IsWatched:   isWatched != 0,
		IsWatchlist: isWatchlist != 0,
		Source:      source,
	}
	if watchedRaw.Valid {
		if parsed, err := time.Parse(time.RFC3339Nano, watchedRaw.String); err == nil {
			record.WatchedDate = parsed
		}
	}
	if parsed, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		record.CreatedAt = parsed
	}
	if parsed, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		record.UpdatedAt = parsed
	}
	return record, nil
}

func formatRating(rating float64) string {
	if rating == math.Trunc(rating) {
		return fmt.Sprintf("%.0f", rating)
	}
	return fmt.Sprintf("%.1f", rating)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt64(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullableFloat(value float64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullableDate(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
