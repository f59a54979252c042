// Package api defines transport-friendly views of library records and the
// services the HTTP server calls into.
package api
