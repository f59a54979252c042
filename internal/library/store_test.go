package library_test

import (
	"context"
	"testing"
	"time"

	"reelsync/internal/library"
	"reelsync/internal/media"
	"reelsync/internal/testsupport"
)

func boolPtr(v bool) *bool { return &v }

func TestUpsertInsertsAndFetches(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	record, err := store.Upsert(ctx, library.Record{
		TMDBID:      949,
		IMDBID:      "tt0113277",
		Title:       "Heat",
		Year:        1995,
		Directors:   "Michael Mann",
		WatchedDate: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		Rating:      4.5,
		IsWatched:   true,
		Source:      "simkl",
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if record.ID == 0 {
		t.Fatal("expected record ID to be assigned")
	}
	if record.CreatedAt.IsZero() || record.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	fetched, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.Title != "Heat" || fetched.Rating != 4.5 {
		t.Fatalf("unexpected fetched record: %#v", fetched)
	}
	if fetched.LetterboxdURL() != "https://letterboxd.com/tmdb/949/" {
		t.Errorf("unexpected letterboxd url %q", fetched.LetterboxdURL())
	}
}

func TestUpsertMergesByTMDBID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first, err := store.Upsert(ctx, library.Record{
		TMDBID:    949,
		Title:     "Heat",
		Year:      1995,
		IsWatched: true,
		Rating:    4.5,
	})
	if err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}

	second, err := store.Upsert(ctx, library.Record{
		TMDBID:      949,
		IMDBID:      "tt0113277",
		Title:       "Heat",
		IsWatchlist: true,
	})
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("expected merge into existing row, got ids %d and %d", first.ID, second.ID)
	}
	if second.IMDBID != "tt0113277" {
		t.Error("expected imdb id to be filled")
	}
	if second.Rating != 4.5 {
		t.Error("unset incoming rating must not clear the stored one")
	}
	if !second.IsWatched || !second.IsWatchlist {
		t.Error("watched and watchlist flags should accumulate")
	}

	count, err := store.Count(ctx, library.ListOptions{})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row, got %d", count)
	}
}

func TestUpsertMergesByIMDBIDAndTitleYear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first, err := store.Upsert(ctx, library.Record{IMDBID: "tt0078748", Title: "Alien", Year: 1979, IsWatched: true})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	byIMDB, err := store.Upsert(ctx, library.Record{IMDBID: "tt0078748", Title: "Alien", Year: 1979, Rating: 5})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if byIMDB.ID != first.ID {
		t.Fatal("expected imdb id to identify the existing row")
	}

	plain, err := store.Upsert(ctx, library.Record{Title: "Stalker", Year: 1979, IsWatched: true})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	byTitle, err := store.Upsert(ctx, library.Record{Title: "Stalker", Year: 1979, Rating: 5})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if byTitle.ID != plain.ID {
		t.Fatal("expected title and year to identify the existing row")
	}
}

func seedLibrary(t *testing.T, store *library.Store) {
	t.Helper()
	ctx := context.Background()
	records := []library.Record{
		{TMDBID: 949, Title: "Heat", Year: 1995, Rating: 4.5, IsWatched: true,
			WatchedDate: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
		{TMDBID: 348, Title: "Alien", Year: 1979, Rating: 5, IsWatched: true,
			WatchedDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{TMDBID: 603, Title: "The Matrix", Year: 1999, IsWatched: true},
		{TMDBID: 693134, Title: "Dune Part Two", Year: 2024, IsWatchlist: true},
	}
	for _, record := range records {
		if _, err := store.Upsert(ctx, record); err != nil {
			t.Fatalf("seed Upsert failed: %v", err)
		}
	}
}

func TestListFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	seedLibrary(t, store)
	ctx := context.Background()

	watched, err := store.List(ctx, library.ListOptions{Watched: boolPtr(true)})
	if err != nil {
		t.Fatalf("List watched failed: %v", err)
	}
	if len(watched) != 3 {
		t.Fatalf("expected 3 watched records, got %d", len(watched))
	}
	// Default sort is watched_date descending with missing dates last.
	if watched[0].Title != "Heat" || watched[2].Title != "The Matrix" {
		t.Errorf("unexpected order: %s, %s, %s", watched[0].Title, watched[1].Title, watched[2].Title)
	}

	watchlist, err := store.List(ctx, library.ListOptions{Watchlist: boolPtr(true)})
	if err != nil {
		t.Fatalf("List watchlist failed: %v", err)
	}
	if len(watchlist) != 1 || watchlist[0].Title != "Dune Part Two" {
		t.Fatalf("unexpected watchlist result: %#v", watchlist)
	}

	search, err := store.List(ctx, library.ListOptions{Search: "matrix"})
	if err != nil {
		t.Fatalf("List search failed: %v", err)
	}
	if len(search) != 1 || search[0].Title != "The Matrix" {
		t.Fatalf("unexpected search result: %#v", search)
	}

	byYear, err := store.List(ctx, library.ListOptions{Year: 1979})
	if err != nil {
		t.Fatalf("List year failed: %v", err)
	}
	if len(byYear) != 1 || byYear[0].Title != "Alien" {
		t.Fatalf("unexpected year result: %#v", byYear)
	}

	rated, err := store.List(ctx, library.ListOptions{MinRating: 4.6})
	if err != nil {
		t.Fatalf("List rating failed: %v", err)
	}
	if len(rated) != 1 || rated[0].Title != "Alien" {
		t.Fatalf("unexpected rating result: %#v", rated)
	}

	paged, err := store.List(ctx, library.ListOptions{SortBy: "year", SortOrder: "asc", Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("List paged failed: %v", err)
	}
	if len(paged) != 2 || paged[0].Year != 1995 {
		t.Fatalf("unexpected paged result: %#v", paged)
	}
}

func TestUpdateFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	record, err := store.Upsert(ctx, library.Record{TMDBID: 949, Title: "Heat", Year: 1995, IsWatched: true})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	updated, err := store.UpdateFields(ctx, record.ID, map[string]any{
		"rating": 5.0,
		"review": "Pacino and De Niro.",
	})
	if err != nil {
		t.Fatalf("UpdateFields failed: %v", err)
	}
	if updated.Rating != 5 || updated.Review != "Pacino and De Niro." {
		t.Fatalf("unexpected updated record: %#v", updated)
	}

	if _, err := store.UpdateFields(ctx, record.ID, map[string]any{"title": "nope"}); err == nil {
		t.Fatal("expected error for non-updatable field")
	}

	missing, err := store.UpdateFields(ctx, 9999, map[string]any{"rating": 3.0})
	if err != nil {
		t.Fatalf("UpdateFields on missing id failed: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for missing record")
	}
}

func TestDelete(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	record, err := store.Upsert(ctx, library.Record{TMDBID: 949, Title: "Heat", IsWatched: true})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	removed, err := store.Delete(ctx, record.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !removed {
		t.Fatal("expected delete to report a removed row")
	}
	removed, err = store.Delete(ctx, record.ID)
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if removed {
		t.Fatal("expected second delete to find nothing")
	}
}

func TestStatisticsAndYears(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	seedLibrary(t, store)
	ctx := context.Background()

	stats, err := store.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if stats.TotalWatched != 3 || stats.TotalWatchlist != 1 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if stats.AverageRating != 4.75 {
		t.Errorf("expected average rating 4.75, got %v", stats.AverageRating)
	}
	if stats.RatingDistribution["4.5"] != 1 || stats.RatingDistribution["5"] != 1 {
		t.Errorf("unexpected rating distribution: %v", stats.RatingDistribution)
	}
	if stats.MoviesByYear[1995] != 1 {
		t.Errorf("unexpected year counts: %v", stats.MoviesByYear)
	}
	if stats.MoviesByMonth["2024-06"] != 1 {
		t.Errorf("unexpected month counts: %v", stats.MoviesByMonth)
	}

	years, err := store.Years(ctx)
	if err != nil {
		t.Fatalf("Years failed: %v", err)
	}
	if len(years) != 4 || years[0] != 2024 || years[3] != 1979 {
		t.Fatalf("unexpected years: %v", years)
	}
}

func TestSyncState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	state, err := store.SyncState(ctx)
	if err != nil {
		t.Fatalf("SyncState failed: %v", err)
	}
	if state.Status != "idle" {
		t.Fatalf("expected initial status idle, got %q", state.Status)
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := store.UpdateSyncState(ctx, library.SyncState{
		LastSync:       now,
		MoviesCount:    42,
		WatchlistCount: 7,
		Status:         "idle",
	}); err != nil {
		t.Fatalf("UpdateSyncState failed: %v", err)
	}

	state, err = store.SyncState(ctx)
	if err != nil {
		t.Fatalf("SyncState failed: %v", err)
	}
	if state.MoviesCount != 42 || state.WatchlistCount != 7 {
		t.Fatalf("unexpected state: %+v", state)
	}
	if !state.LastSync.Equal(now) {
		t.Errorf("expected last sync %v, got %v", now, state.LastSync)
	}
}

func TestRecordFromWatch(t *testing.T) {
	entry := media.WatchEntry{
		Movie: media.Movie{
			Title:     "Heat",
			Year:      1995,
			TMDBID:    949,
			Directors: []string{"Michael Mann"},
		},
		WatchedDate: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		Rating:      4.5,
		Rewatch:     true,
		Tags:        []string{"crime"},
	}
	record := library.RecordFromWatch(entry, "simkl")
	if !record.IsWatched || record.IsWatchlist {
		t.Fatalf("unexpected flags: %+v", record)
	}
	if record.Directors != "Michael Mann" || record.Tags != "crime" {
		t.Fatalf("unexpected joined fields: %+v", record)
	}
	movie := record.Movie()
	if len(movie.Directors) != 1 || movie.Directors[0] != "Michael Mann" {
		t.Fatalf("round trip lost directors: %+v", movie)
	}
}

func TestSetSyncStatusPreservesLastRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	lastSync := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	if err := store.UpdateSyncState(ctx, library.SyncState{
		LastSync:       lastSync,
		MoviesCount:    42,
		WatchlistCount: 7,
		Status:         "idle",
	}); err != nil {
		t.Fatalf("UpdateSyncState failed: %v", err)
	}

	if err := store.SetSyncStatus(ctx, "syncing", ""); err != nil {
		t.Fatalf("SetSyncStatus failed: %v", err)
	}
	state, err := store.SyncState(ctx)
	if err != nil {
		t.Fatalf("SyncState failed: %v", err)
	}
	if state.Status != "syncing" {
		t.Fatalf("expected status syncing, got %q", state.Status)
	}
	if !state.LastSync.Equal(lastSync) || state.MoviesCount != 42 || state.WatchlistCount != 7 {
		t.Fatalf("status transition cleared the previous run: %+v", state)
	}

	if err := store.SetSyncStatus(ctx, "error", "connect failed"); err != nil {
		t.Fatalf("SetSyncStatus failed: %v", err)
	}
	state, err = store.SyncState(ctx)
	if err != nil {
		t.Fatalf("SyncState failed: %v", err)
	}
	if state.Status != "error" || state.ErrorMessage != "connect failed" {
		t.Fatalf("unexpected error state: %+v", state)
	}
	if !state.LastSync.Equal(lastSync) || state.MoviesCount != 42 || state.WatchlistCount != 7 {
		t.Fatalf("error transition cleared the previous run: %+v", state)
	}
}
