// Package syncer runs the fetch, enrich, and persist pipeline, either once or
// on a periodic schedule.
package syncer
