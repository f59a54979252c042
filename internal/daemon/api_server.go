package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"reelsync/internal/api"
	"reelsync/internal/config"
	"reelsync/internal/letterboxd"
	"reelsync/internal/library"
	"reelsync/internal/logging"
	"reelsync/internal/media"
	"reelsync/internal/syncer"
)

const exportQueryLimit = 100000

type apiServer struct {
	bind     string
	logger   *slog.Logger
	daemon   *Daemon
	movieSvc *api.MovieService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address is required")
	}

	srv := &apiServer{
		bind:     bind,
		logger:   logging.NewComponentLogger(logger, "api-server"),
		daemon:   d,
		movieSvc: api.NewMovieService(d.store),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/movies", srv.handleMovies)
	mux.HandleFunc("/api/movies/", srv.handleMovie)
	mux.HandleFunc("/api/stats", srv.handleStats)
	mux.HandleFunc("/api/years", srv.handleYears)
	mux.HandleFunc("/api/sync/status", srv.handleSyncStatus)
	mux.HandleFunc("/api/sync/trigger", srv.handleSyncTrigger)
	mux.HandleFunc("/api/auth/status", srv.handleAuthStatus)
	mux.HandleFunc("/api/auth/start", srv.handleAuthStart)
	mux.HandleFunc("/api/export/csv", srv.handleExportCSV)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleMovies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	opts, err := listOptionsFromQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	response, err := s.movieSvc.List(r.Context(), opts)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *apiServer) handleMovie(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/movies/")
	if idStr == "" || strings.Contains(idStr, "/") {
		s.writeError(w, http.StatusNotFound, "movie not found")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		view, err := s.movieSvc.Describe(r.Context(), id)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if view == nil {
			s.writeError(w, http.StatusNotFound, "movie not found")
			return
		}
		s.writeJSON(w, http.StatusOK, view)
	case http.MethodPatch:
		var updates map[string]any
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		view, err := s.movieSvc.Update(r.Context(), id, updates)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if view == nil {
			s.writeError(w, http.StatusNotFound, "movie not found")
			return
		}
		s.writeJSON(w, http.StatusOK, view)
	case http.MethodDelete:
		removed, err := s.movieSvc.Delete(r.Context(), id)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !removed {
			s.writeError(w, http.StatusNotFound, "movie not found")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stats, err := s.movieSvc.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *apiServer) handleYears(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	years, err := s.movieSvc.Years(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, years)
}

func (s *apiServer) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status, err := s.movieSvc.SyncStatus(r.Context(), s.daemon.sync.IsSyncing())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *apiServer) handleSyncTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.daemon.sync.IsSyncing() {
		s.writeJSON(w, http.StatusConflict, map[string]string{
			"status": "skipped",
			"reason": "already syncing",
		})
		return
	}
	go func() {
		if _, err := s.daemon.sync.Sync(context.Background()); err != nil && !errors.Is(err, syncer.ErrSyncInProgress) {
			s.logger.Error("triggered sync failed", logging.Error(err))
		}
	}()
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *apiServer) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	authenticated := s.daemon.tokenStore != nil && s.daemon.tokenStore.Exists()
	s.writeJSON(w, http.StatusOK, api.AuthStatusResponse{Authenticated: authenticated})
}

func (s *apiServer) handleAuthStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.daemon.auth == nil {
		s.writeError(w, http.StatusServiceUnavailable, "simkl authentication is not configured")
		return
	}

	urls := make(chan string, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.daemon.auth.Authorize(ctx, func(authURL string) { urls <- authURL }); err != nil {
			s.logger.Warn("simkl authorization failed", logging.Error(err))
		}
	}()

	select {
	case authURL := <-urls:
		s.writeJSON(w, http.StatusAccepted, api.AuthStatusResponse{
			Authenticated: false,
			AuthURL:       authURL,
		})
	case <-time.After(5 * time.Second):
		s.writeError(w, http.StatusInternalServerError, "authorization did not start")
	}
}

func (s *apiServer) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	list := r.URL.Query().Get("list")
	if list == "" {
		list = "watched"
	}

	yes := true
	switch list {
	case "watched":
		records, err := s.daemon.store.List(r.Context(), library.ListOptions{Watched: &yes, Limit: exportQueryLimit})
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		entries := make([]media.WatchEntry, 0, len(records))
		for _, record := range records {
			entries = append(entries, record.WatchEntry())
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+letterboxd.WatchedFilename+`"`)
		if err := letterboxd.WriteWatched(w, entries); err != nil {
			s.logger.Error("csv export failed", logging.Error(err))
		}
	case "watchlist":
		records, err := s.daemon.store.List(r.Context(), library.ListOptions{Watchlist: &yes, Limit: exportQueryLimit})
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		entries := make([]media.WatchlistEntry, 0, len(records))
		for _, record := range records {
			entries = append(entries, record.WatchlistEntry())
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+letterboxd.WatchlistFilename+`"`)
		if err := letterboxd.WriteWatchlist(w, entries); err != nil {
			s.logger.Error("csv export failed", logging.Error(err))
		}
	default:
		s.writeError(w, http.StatusBadRequest, "list must be watched or watchlist")
	}
}

func listOptionsFromQuery(r *http.Request) (library.ListOptions, error) {
	query := r.URL.Query()
	opts := library.ListOptions{
		Search:    strings.TrimSpace(query.Get("search")),
		SortBy:    strings.TrimSpace(query.Get("sort_by")),
		SortOrder: strings.TrimSpace(query.Get("sort_order")),
	}

	if value := query.Get("watched"); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return opts, fmt.Errorf("invalid watched filter %q", value)
		}
		opts.Watched = &parsed
	}
	if value := query.Get("watchlist"); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return opts, fmt.Errorf("invalid watchlist filter %q", value)
		}
		opts.Watchlist = &parsed
	}
	if value := query.Get("year"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return opts, fmt.Errorf("invalid year filter %q", value)
		}
		opts.Year = parsed
	}
	if value := query.Get("min_rating"); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return opts, fmt.Errorf("invalid min_rating filter %q", value)
		}
		opts.MinRating = parsed
	}
	if value := query.Get("max_rating"); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return opts, fmt.Errorf("invalid max_rating filter %q", value)
		}
		opts.MaxRating = parsed
	}
	if value := query.Get("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return opts, fmt.Errorf("invalid limit %q", value)
		}
		opts.Limit = parsed
	}
	if value := query.Get("offset"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return opts, fmt.Errorf("invalid offset %q", value)
		}
		opts.Offset = parsed
	}
	return opts, nil
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
