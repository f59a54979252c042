// Package sources defines the provider contract for watch-history backends.
//
// Each provider (Simkl, Plex, Tautulli) implements Source; the sync pipeline
// and CLI depend only on this interface and never on concrete provider types.
package sources
