// Package config loads and validates the reelsync TOML configuration.
//
// Load resolves the config file location, applies repository defaults, expands
// paths, and validates the result so the rest of the system can assume a
// usable configuration.
package config
