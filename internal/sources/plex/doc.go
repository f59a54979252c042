// Package plex reads watch history from a Plex Media Server.
package plex
