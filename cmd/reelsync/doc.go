// Command reelsync syncs movie watch history from Simkl, Plex, or Tautulli,
// enriches it against TMDB, and exports Letterboxd import CSVs. It can run as
// a one-shot batch or as a daemon with a local HTTP API.
package main
