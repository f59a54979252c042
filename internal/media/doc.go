// Package media defines the movie record model shared by sources, enrichment,
// export, and persistence.
//
// A Movie carries a title plus whatever identifiers a provider knows about it.
// Identity is three-tiered: TMDB id wins, then IMDB id, then the case-folded
// title/year pair. Key returns a bucket string consistent with that equality so
// records can be deduplicated in maps.
package media
