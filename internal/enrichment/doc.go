// Package enrichment resolves movie identity against the TMDB catalog.
//
// The Resolver takes an incomplete movie record and fills in whatever catalog
// identifiers and metadata it can obtain, without ever overwriting fields the
// record already carries. It decides which catalog lookups to issue based on
// the identifiers present: a TMDB id goes straight to a details lookup, an
// IMDB id goes through the cross-reference endpoint, and a bare title falls
// back to free-text search ranked by the best-match selector. Enrichment never
// fails; a record that cannot be resolved comes back unchanged.
package enrichment
