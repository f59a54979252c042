// Package simkl integrates the Simkl tracking service as a watch-history
// source.
//
// The client reads watched movies and the plan-to-watch list through the
// Simkl sync API using a bearer token obtained via the OAuth code flow. The
// Authenticator runs the flow with a per-attempt local callback server; the
// received code travels through a channel created for that attempt, so
// concurrent authentication attempts never share state.
package simkl
