// Package tmdb provides a rate-limited client for The Movie Database API.
//
// The client exposes the three lookups enrichment needs: details by TMDB id
// (with external ids and credits appended), cross-reference lookup by IMDB id,
// and free-text search. Transport and decode failures never escape this
// package: detail and find lookups return nil, search returns an empty slice,
// and the failure is logged. A single shared limiter enforces the minimum
// spacing between outbound calls regardless of caller concurrency.
package tmdb
