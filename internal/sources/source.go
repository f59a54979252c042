package sources

import (
	"context"

	"reelsync/internal/media"
)

// Source is the capability contract every watch-history provider satisfies.
type Source interface {
	// Name identifies the provider in logs and reports.
	Name() string
	// TestConnection reports whether the provider is reachable with the
	// configured credentials.
	TestConnection(ctx context.Context) bool
	// GetWatched returns the user's watched movies.
	GetWatched(ctx context.Context) ([]media.WatchEntry, error)
	// GetWatchlist returns the user's watchlist. Providers without watchlist
	// support return an empty list, not an error.
	GetWatchlist(ctx context.Context) ([]media.WatchlistEntry, error)
}
