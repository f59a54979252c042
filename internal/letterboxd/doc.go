// Package letterboxd writes Letterboxd import CSV files.
package letterboxd
