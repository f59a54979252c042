package config

import (
	"errors"
	"fmt"
)

var validSources = map[string]struct{}{
	"simkl":    {},
	"plex":     {},
	"tautulli": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSources() error {
	if _, ok := validSources[c.Sources.Primary]; !ok {
		return fmt.Errorf("sources.primary must be one of simkl, plex, tautulli (got %q)", c.Sources.Primary)
	}
	switch c.Sources.Primary {
	case "simkl":
		if c.Simkl.ClientID == "" {
			return errors.New("simkl.client_id is required when sources.primary is simkl")
		}
	case "plex":
		if c.Plex.Token == "" {
			return errors.New("plex.token is required when sources.primary is plex")
		}
	case "tautulli":
		if c.Tautulli.APIKey == "" {
			return errors.New("tautulli.api_key is required when sources.primary is tautulli")
		}
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/reelsync/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'reelsync config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
}
