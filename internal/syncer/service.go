package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"reelsync/internal/config"
	"reelsync/internal/enrichment"
	"reelsync/internal/library"
	"reelsync/internal/logging"
	"reelsync/internal/notifications"
	"reelsync/internal/sources"
)

// ErrSyncInProgress is returned when a sync is triggered while one is running.
var ErrSyncInProgress = errors.New("sync already in progress")

// Result summarizes one sync run.
type Result struct {
	RunID          string
	WatchedCount   int
	WatchlistCount int
	Unmatched      int
	Duration       time.Duration
}

// Service owns the sync pipeline and its optional periodic schedule. Each
// Service owns its ticker goroutine and cancel function; nothing is global.
type Service struct {
	cfg      *config.Config
	source   sources.Source
	catalog  enrichment.Catalog
	resolver *enrichment.Resolver
	store    *library.Store
	notifier notifications.Service
	logger   *slog.Logger

	mu      sync.Mutex
	syncing bool

	runMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService wires the sync pipeline together.
func NewService(
	cfg *config.Config,
	source sources.Source,
	catalog enrichment.Catalog,
	store *library.Store,
	notifier notifications.Service,
	logger *slog.Logger,
) *Service {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Service{
		cfg:      cfg,
		source:   source,
		catalog:  catalog,
		resolver: enrichment.NewResolver(catalog, logger),
		store:    store,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "syncer"),
	}
}

// IsSyncing reports whether a sync run is currently executing.
func (s *Service) IsSyncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncing
}

// Start launches the periodic sync loop. It returns immediately; the loop
// stops when Stop is called or the parent context is cancelled.
func (s *Service) Start(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cancel != nil {
		return errors.New("sync service already started")
	}

	interval := time.Duration(s.cfg.Sync.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		s.logger.Info("sync service started", logging.Duration("interval", interval))
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if _, err := s.Sync(runCtx); err != nil && !errors.Is(err, ErrSyncInProgress) {
					s.logger.Error("scheduled sync failed", logging.Error(err))
				}
			}
		}
	}()
	return nil
}

// Stop cancels the periodic loop and waits for it to exit.
func (s *Service) Stop() {
	s.runMu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.runMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info("sync service stopped")
}

// Sync performs one full run: fetch, enrich, persist, record status. Only one
// run executes at a time; overlapping triggers return ErrSyncInProgress.
func (s *Service) Sync(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if s.syncing {
		s.mu.Unlock()
		s.logger.Warn("sync already in progress, skipping")
		return Result{}, ErrSyncInProgress
	}
	s.syncing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.syncing = false
		s.mu.Unlock()
	}()

	result := Result{RunID: uuid.New().String()}
	logger := s.logger.With(logging.String("run_id", result.RunID))
	started := time.Now()

	if err := s.store.SetSyncStatus(ctx, "syncing", ""); err != nil {
		return result, err
	}

	run := func() error {
		logger.Info("starting sync", logging.String("source", s.source.Name()))
		_ = s.notifier.NotifySyncStarted(ctx, s.source.Name())

		if !s.source.TestConnection(ctx) {
			return fmt.Errorf("failed to connect to %s", s.source.Name())
		}

		var watched []syncItem
		if s.cfg.Export.Watched {
			entries, err := s.source.GetWatched(ctx)
			if err != nil {
				return fmt.Errorf("fetch watched: %w", err)
			}
			logger.Info("fetched watched movies", logging.Int("count", len(entries)))
			for _, entry := range entries {
				entry.Movie = s.resolver.Enrich(ctx, entry.Movie)
				record := library.RecordFromWatch(entry, s.source.Name())
				record.PosterURL = s.posterURL(ctx, entry.Movie.TMDBID)
				watched = append(watched, syncItem{record: record, matched: entry.Movie.HasID()})
			}
		}

		var watchlist []syncItem
		if s.cfg.Export.Watchlist {
			entries, err := s.source.GetWatchlist(ctx)
			if err != nil {
				return fmt.Errorf("fetch watchlist: %w", err)
			}
			logger.Info("fetched watchlist movies", logging.Int("count", len(entries)))
			for _, entry := range entries {
				entry.Movie = s.resolver.Enrich(ctx, entry.Movie)
				record := library.RecordFromWatchlist(entry, s.source.Name())
				record.PosterURL = s.posterURL(ctx, entry.Movie.TMDBID)
				watchlist = append(watchlist, syncItem{record: record, matched: entry.Movie.HasID()})
			}
		}

		for _, item := range watched {
			if _, err := s.store.Upsert(ctx, item.record); err != nil {
				return fmt.Errorf("upsert watched movie %q: %w", item.record.Title, err)
			}
			result.WatchedCount++
			if !item.matched {
				result.Unmatched++
			}
		}
		for _, item := range watchlist {
			if _, err := s.store.Upsert(ctx, item.record); err != nil {
				return fmt.Errorf("upsert watchlist movie %q: %w", item.record.Title, err)
			}
			result.WatchlistCount++
			if !item.matched {
				result.Unmatched++
			}
		}
		return nil
	}

	if err := run(); err != nil {
		logger.Error("sync failed", logging.Error(err))
		_ = s.store.SetSyncStatus(ctx, "error", err.Error())
		_ = s.notifier.NotifySyncFailed(ctx, err, "sync")
		return result, err
	}

	result.Duration = time.Since(started)
	if err := s.store.UpdateSyncState(ctx, library.SyncState{
		LastSync:       time.Now().UTC(),
		MoviesCount:    result.WatchedCount,
		WatchlistCount: result.WatchlistCount,
		Status:         "idle",
	}); err != nil {
		return result, err
	}

	logger.Info("sync complete",
		logging.Int("watched", result.WatchedCount),
		logging.Int("watchlist", result.WatchlistCount),
		logging.Int("unmatched", result.Unmatched),
		logging.Duration("duration", result.Duration))
	_ = s.notifier.NotifySyncCompleted(ctx, result.WatchedCount, result.WatchlistCount, result.Duration)
	if result.Unmatched > 0 {
		_ = s.notifier.NotifyUnmatched(ctx, result.Unmatched)
	}
	return result, nil
}

// syncItem pairs a library row with whether enrichment produced an identity.
type syncItem struct {
	record  library.Record
	matched bool
}

func (s *Service) posterURL(ctx context.Context, tmdbID int64) string {
	if tmdbID == 0 {
		return ""
	}
	details := s.catalog.GetDetails(ctx, tmdbID)
	if details == nil {
		return ""
	}
	return details.PosterURL()
}
