package plex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelsync/internal/logging"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := New(server.URL, "plex-token", logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func plexHandler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Plex-Token"); got != "plex-token" {
			t.Errorf("missing plex token, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"MediaContainer": map[string]any{"friendlyName": "test-server"},
		})
	})
	mux.HandleFunc("/library/sections", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"MediaContainer": map[string]any{
				"Directory": []map[string]any{
					{"key": "1", "type": "movie", "title": "Movies"},
					{"key": "2", "type": "show", "title": "TV"},
				},
			},
		})
	})
	mux.HandleFunc("/library/sections/1/all", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("includeGuids") != "1" {
			t.Error("expected includeGuids=1")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"MediaContainer": map[string]any{
				"Metadata": []map[string]any{
					{
						"title":        "Heat",
						"year":         1995,
						"viewCount":    2,
						"lastViewedAt": 1718480000,
						"userRating":   9.0,
						"Guid": []map[string]any{
							{"id": "tmdb://949"},
							{"id": "imdb://tt0113277"},
						},
						"Director": []map[string]any{{"tag": "Michael Mann"}},
					},
					{
						"title":     "Legacy Film",
						"year":      1980,
						"viewCount": 1,
						"guid":      "com.plexapp.agents.themoviedb://603?lang=en",
					},
					{
						"title": "Unwatched Film",
						"year":  2020,
					},
				},
			},
		})
	})
	return mux
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New("", "tok", logging.NewNop()); err == nil {
		t.Fatal("expected error for missing url")
	}
	if _, err := New("http://plex:32400", "", logging.NewNop()); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestGetWatchedSkipsNonMovieLibraries(t *testing.T) {
	client := newTestClient(t, plexHandler(t))
	entries, err := client.GetWatched(context.Background())
	if err != nil {
		t.Fatalf("GetWatched returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 watched entries, got %d", len(entries))
	}

	heat := entries[0]
	if heat.Movie.TMDBID != 949 || heat.Movie.IMDBID != "tt0113277" {
		t.Errorf("unexpected ids %+v", heat.Movie)
	}
	if len(heat.Movie.Directors) != 1 || heat.Movie.Directors[0] != "Michael Mann" {
		t.Errorf("unexpected directors %v", heat.Movie.Directors)
	}
	if !heat.Rewatch {
		t.Error("viewCount 2 should mark a rewatch")
	}
	if heat.Rating != 4.5 {
		t.Errorf("expected rating 4.5, got %v", heat.Rating)
	}
	if heat.WatchedDate.IsZero() {
		t.Error("expected watched date from lastViewedAt")
	}

	legacy := entries[1]
	if legacy.Movie.TMDBID != 603 {
		t.Errorf("expected legacy guid to resolve tmdb id 603, got %d", legacy.Movie.TMDBID)
	}
	if legacy.Rewatch {
		t.Error("single view is not a rewatch")
	}
}

func TestGetWatchlistIsEmpty(t *testing.T) {
	client := newTestClient(t, plexHandler(t))
	entries, err := client.GetWatchlist(context.Background())
	if err != nil {
		t.Fatalf("GetWatchlist returned error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty watchlist, got %d entries", len(entries))
	}
}

func TestTestConnection(t *testing.T) {
	client := newTestClient(t, plexHandler(t))
	if !client.TestConnection(context.Background()) {
		t.Fatal("expected connection test to succeed")
	}

	failing := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	if failing.TestConnection(context.Background()) {
		t.Fatal("expected connection test to fail")
	}
}
