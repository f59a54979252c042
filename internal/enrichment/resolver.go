package enrichment

import (
	"context"
	"log/slog"
	"strconv"

	"reelsync/internal/logging"
	"reelsync/internal/media"
	"reelsync/internal/tmdb"
)

// Catalog is the subset of TMDB client functionality the resolver needs.
// All three lookups degrade rather than fail: nil or empty results stand in
// for both "not found" and transport errors.
type Catalog interface {
	GetDetails(ctx context.Context, tmdbID int64) *tmdb.Details
	FindByIMDBID(ctx context.Context, imdbID string) *tmdb.SearchHit
	Search(ctx context.Context, title string, year int) []tmdb.SearchHit
}

// Resolver fills missing identity fields on movie records using the catalog.
type Resolver struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewResolver constructs a Resolver. A nil logger is replaced with a no-op.
func NewResolver(catalog Catalog, logger *slog.Logger) *Resolver {
	return &Resolver{
		catalog: catalog,
		logger:  logging.NewComponentLogger(logger, "enrichment"),
	}
}

// Enrich returns a copy of the record with as many absent fields filled as the
// catalog allows. The input is never mutated, existing fields are never
// overwritten, and the call never fails: catalog errors degrade to fields left
// unset. Exactly one of the three lookup branches runs per call, selected by
// identifier priority (TMDB id, then IMDB id, then title search).
func (r *Resolver) Enrich(ctx context.Context, movie media.Movie) media.Movie {
	enriched := movie.Clone()

	switch {
	case enriched.TMDBID != 0:
		r.enrichByTMDBID(ctx, &enriched)
	case enriched.IMDBID != "":
		r.enrichByIMDBID(ctx, &enriched)
	default:
		r.enrichBySearch(ctx, &enriched)
	}

	return enriched
}

// enrichByTMDBID backfills IMDB id, directors, and year from a details lookup.
func (r *Resolver) enrichByTMDBID(ctx context.Context, movie *media.Movie) {
	details := r.catalog.GetDetails(ctx, movie.TMDBID)
	if details == nil {
		return
	}

	if movie.IMDBID == "" && details.ExternalIDs.IMDBID != "" {
		movie.IMDBID = details.ExternalIDs.IMDBID
	}
	if len(movie.Directors) == 0 {
		movie.Directors = details.Directors()
	}
	if movie.Year == 0 {
		movie.Year = yearFromDate(details.ReleaseDate)
	}

	r.logger.Debug("enriched via tmdb id",
		logging.String("title", movie.Title),
		logging.Int64("tmdb_id", movie.TMDBID),
	)
}

// enrichByIMDBID resolves a TMDB id through the cross-reference endpoint, then
// pulls directors from the details lookup when an id was obtained. When the
// cross-reference yields nothing the record is left exactly as it was.
func (r *Resolver) enrichByIMDBID(ctx context.Context, movie *media.Movie) {
	hit := r.catalog.FindByIMDBID(ctx, movie.IMDBID)
	if hit == nil {
		return
	}

	movie.TMDBID = hit.ID
	if movie.Year == 0 {
		movie.Year = yearFromDate(hit.ReleaseDate)
	}

	r.logger.Debug("resolved tmdb id via imdb cross-reference",
		logging.String("imdb_id", movie.IMDBID),
		logging.Int64("tmdb_id", movie.TMDBID),
	)

	if movie.TMDBID == 0 || len(movie.Directors) > 0 {
		return
	}
	if details := r.catalog.GetDetails(ctx, movie.TMDBID); details != nil {
		movie.Directors = details.Directors()
	}
}

// enrichBySearch matches a bare title/year record through free-text search and
// backfills both ids plus directors from the chosen hit.
func (r *Resolver) enrichBySearch(ctx context.Context, movie *media.Movie) {
	hits := r.catalog.Search(ctx, movie.Title, movie.Year)
	best := BestMatch(hits, movie.Title, movie.Year)
	if best == nil {
		r.logger.Warn("could not resolve movie against catalog",
			logging.String("title", movie.Title),
			logging.Int("year", movie.Year),
		)
		return
	}

	movie.TMDBID = best.ID
	if movie.Year == 0 {
		movie.Year = yearFromDate(best.ReleaseDate)
	}

	if movie.TMDBID != 0 {
		if details := r.catalog.GetDetails(ctx, movie.TMDBID); details != nil {
			if movie.IMDBID == "" && details.ExternalIDs.IMDBID != "" {
				movie.IMDBID = details.ExternalIDs.IMDBID
			}
			if len(movie.Directors) == 0 {
				movie.Directors = details.Directors()
			}
		}
	}

	r.logger.Debug("resolved movie via search",
		logging.String("title", movie.Title),
		logging.Int64("tmdb_id", movie.TMDBID),
	)
}

// yearFromDate parses the leading four characters of a release date string.
// Anything unparsable yields 0, the unset year.
func yearFromDate(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}
