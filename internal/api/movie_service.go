package api

import (
	"context"

	"reelsync/internal/library"
)

// LibraryReader abstracts the store interactions needed for API queries.
type LibraryReader interface {
	List(ctx context.Context, opts library.ListOptions) ([]*library.Record, error)
	Count(ctx context.Context, opts library.ListOptions) (int, error)
	GetByID(ctx context.Context, id int64) (*library.Record, error)
	UpdateFields(ctx context.Context, id int64, updates map[string]any) (*library.Record, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Statistics(ctx context.Context) (library.Statistics, error)
	Years(ctx context.Context) ([]int, error)
	SyncState(ctx context.Context) (library.SyncState, error)
}

// MovieService exposes library operations returning API DTOs.
type MovieService struct {
	store LibraryReader
}

// NewMovieService constructs a MovieService around the provided reader.
func NewMovieService(store LibraryReader) *MovieService {
	if store == nil {
		return nil
	}
	return &MovieService{store: store}
}

// List returns a page of movies plus the unpaged total for the same filters.
func (s *MovieService) List(ctx context.Context, opts library.ListOptions) (MovieListResponse, error) {
	if s == nil || s.store == nil {
		return MovieListResponse{}, nil
	}
	records, err := s.store.List(ctx, opts)
	if err != nil {
		return MovieListResponse{}, err
	}
	total, err := s.store.Count(ctx, opts)
	if err != nil {
		return MovieListResponse{}, err
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	return MovieListResponse{
		Movies: FromRecords(records),
		Total:  total,
		Limit:  limit,
		Offset: opts.Offset,
	}, nil
}

// Describe fetches a single movie, or nil when absent.
func (s *MovieService) Describe(ctx context.Context, id int64) (*MovieView, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	record, err := s.store.GetByID(ctx, id)
	if err != nil || record == nil {
		return nil, err
	}
	view := FromRecord(record)
	return &view, nil
}

// Update applies a partial update and returns the refreshed view, or nil when
// the movie does not exist.
func (s *MovieService) Update(ctx context.Context, id int64, updates map[string]any) (*MovieView, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	record, err := s.store.UpdateFields(ctx, id, updates)
	if err != nil || record == nil {
		return nil, err
	}
	view := FromRecord(record)
	return &view, nil
}

// Delete removes a movie, reporting whether a row was deleted.
func (s *MovieService) Delete(ctx context.Context, id int64) (bool, error) {
	if s == nil || s.store == nil {
		return false, nil
	}
	return s.store.Delete(ctx, id)
}

// Stats returns aggregated collection statistics.
func (s *MovieService) Stats(ctx context.Context) (StatsView, error) {
	if s == nil || s.store == nil {
		return StatsView{}, nil
	}
	stats, err := s.store.Statistics(ctx)
	if err != nil {
		return StatsView{}, err
	}
	return FromStatistics(stats), nil
}

// Years returns the distinct release years present.
func (s *MovieService) Years(ctx context.Context) (YearsResponse, error) {
	if s == nil || s.store == nil {
		return YearsResponse{}, nil
	}
	years, err := s.store.Years(ctx)
	if err != nil {
		return YearsResponse{}, err
	}
	return YearsResponse{Years: years}, nil
}

// SyncStatus returns the stored sync state merged with the live running flag.
func (s *MovieService) SyncStatus(ctx context.Context, running bool) (SyncStatusView, error) {
	if s == nil || s.store == nil {
		return SyncStatusView{}, nil
	}
	state, err := s.store.SyncState(ctx)
	if err != nil {
		return SyncStatusView{}, err
	}
	return FromSyncState(state, running), nil
}
