// Package daemon runs the long-lived reelsync process: the periodic sync
// service plus the HTTP API the dashboard and CLI talk to. A file lock
// enforces single-instance execution.
package daemon
