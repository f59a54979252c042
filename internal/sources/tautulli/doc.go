// Package tautulli reads watch history from a Tautulli instance.
package tautulli
