package api

import (
	"reelsync/internal/library"
)

// FromRecord converts a library record to its API representation.
func FromRecord(record *library.Record) MovieView {
	if record == nil {
		return MovieView{}
	}

	view := MovieView{
		ID:            record.ID,
		TMDBID:        record.TMDBID,
		IMDBID:        record.IMDBID,
		Title:         record.Title,
		Year:          record.Year,
		Directors:     record.Directors,
		PosterURL:     record.PosterURL,
		Rating:        record.Rating,
		Rewatch:       record.Rewatch,
		Tags:          record.Tags,
		Review:        record.Review,
		IsWatched:     record.IsWatched,
		IsWatchlist:   record.IsWatchlist,
		Source:        record.Source,
		LetterboxdURL: record.LetterboxdURL(),
		TMDBURL:       record.TMDBURL(),
		IMDBURL:       record.IMDBURL(),
	}
	if !record.WatchedDate.IsZero() {
		view.WatchedDate = record.WatchedDate.UTC().Format(dateFormat)
	}
	if !record.CreatedAt.IsZero() {
		view.CreatedAt = record.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !record.UpdatedAt.IsZero() {
		view.UpdatedAt = record.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return view
}

// FromRecords converts a slice of library records.
func FromRecords(records []*library.Record) []MovieView {
	views := make([]MovieView, 0, len(records))
	for _, record := range records {
		views = append(views, FromRecord(record))
	}
	return views
}

// FromSyncState converts the sync status row.
func FromSyncState(state library.SyncState, running bool) SyncStatusView {
	view := SyncStatusView{
		MoviesCount:    state.MoviesCount,
		WatchlistCount: state.WatchlistCount,
		Status:         state.Status,
		ErrorMessage:   state.ErrorMessage,
		Running:        running,
	}
	if !state.LastSync.IsZero() {
		view.LastSync = state.LastSync.UTC().Format(dateTimeFormat)
	}
	return view
}

// FromStatistics converts aggregated collection statistics.
func FromStatistics(stats library.Statistics) StatsView {
	return StatsView{
		TotalWatched:       stats.TotalWatched,
		TotalWatchlist:     stats.TotalWatchlist,
		AverageRating:      stats.AverageRating,
		RatingDistribution: stats.RatingDistribution,
		MoviesByYear:       stats.MoviesByYear,
		MoviesByMonth:      stats.MoviesByMonth,
	}
}
