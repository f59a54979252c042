package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"reelsync/internal/api"
	"reelsync/internal/library"
	"reelsync/internal/logging"
	"reelsync/internal/media"
	"reelsync/internal/testsupport"
)

func seedStore(t *testing.T, store *library.Store) *library.Record {
	t.Helper()
	entry := media.WatchEntry{
		Movie: media.Movie{
			Title:     "Heat",
			Year:      1995,
			TMDBID:    949,
			IMDBID:    "tt0113277",
			Directors: []string{"Michael Mann"},
		},
		WatchedDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Rating:      4.5,
	}
	record, err := store.Upsert(context.Background(), library.RecordFromWatch(entry, "simkl"))
	if err != nil {
		t.Fatalf("seed upsert failed: %v", err)
	}
	return record
}

func newTestAPIServer(t *testing.T) (*apiServer, *library.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	srv := &apiServer{
		logger:   logging.NewNop(),
		movieSvc: api.NewMovieService(store),
	}
	return srv, store
}

func TestHandleMoviesListsLibrary(t *testing.T) {
	srv, store := newTestAPIServer(t)
	seedStore(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/movies?watched=true&sort_by=title", nil)
	w := httptest.NewRecorder()
	srv.handleMovies(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.MovieListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 1 || len(resp.Movies) != 1 {
		t.Fatalf("expected one movie, got total=%d len=%d", resp.Total, len(resp.Movies))
	}
	if resp.Movies[0].Title != "Heat" {
		t.Fatalf("unexpected title: %q", resp.Movies[0].Title)
	}
}

func TestHandleMoviesRejectsBadFilter(t *testing.T) {
	srv, _ := newTestAPIServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/movies?year=soon", nil)
	w := httptest.NewRecorder()
	srv.handleMovies(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandleMovieUpdateAndDelete(t *testing.T) {
	srv, store := newTestAPIServer(t)
	record := seedStore(t, store)
	path := "/api/movies/" + strconv.FormatInt(record.ID, 10)

	req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{"rating": 5}`))
	w := httptest.NewRecorder()
	srv.handleMovie(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK from patch, got %d: %s", w.Code, w.Body.String())
	}
	var view api.MovieView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if view.Rating != 5 {
		t.Fatalf("expected rating 5, got %v", view.Rating)
	}

	req = httptest.NewRequest(http.MethodDelete, path, nil)
	w = httptest.NewRecorder()
	srv.handleMovie(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK from delete, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, path, nil)
	w = httptest.NewRecorder()
	srv.handleMovie(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestHandleStats(t *testing.T) {
	srv, store := newTestAPIServer(t)
	seedStore(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	srv.handleStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var stats api.StatsView
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if stats.TotalWatched != 1 {
		t.Fatalf("expected one watched movie, got %d", stats.TotalWatched)
	}
}

func TestHandleExportCSVStreamsWatched(t *testing.T) {
	srv, store := newTestAPIServer(t)
	seedStore(t, store)
	srv.daemon = &Daemon{store: store}

	req := httptest.NewRequest(http.MethodGet, "/api/export/csv?list=watched", nil)
	w := httptest.NewRecorder()
	srv.handleExportCSV(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type: %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "tt0113277") || !strings.Contains(body, "Heat") {
		t.Fatalf("csv body missing seeded movie: %q", body)
	}
}

func TestHandleExportCSVRejectsUnknownList(t *testing.T) {
	srv, store := newTestAPIServer(t)
	srv.daemon = &Daemon{store: store}

	req := httptest.NewRequest(http.MethodGet, "/api/export/csv?list=favorites", nil)
	w := httptest.NewRecorder()
	srv.handleExportCSV(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

