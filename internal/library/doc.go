// Package library persists synced movies in SQLite for the dashboard and CLI.
package library
