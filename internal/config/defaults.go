package config

const (
	defaultOutputDir         = "~/.local/share/reelsync/output"
	defaultDataDir           = "~/.local/share/reelsync"
	defaultLogDir            = "~/.local/share/reelsync/logs"
	defaultAPIBind           = "127.0.0.1:19876"
	defaultPrimarySource     = "simkl"
	defaultSimklTokenFile    = "~/.config/reelsync/simkl_token.json"
	defaultSimklCallbackPort = 19877
	defaultPlexURL           = "http://localhost:32400"
	defaultTautulliURL       = "http://localhost:8181"
	defaultTautulliUserID    = 1
	defaultTMDBBaseURL       = "https://api.themoviedb.org/3"
	defaultTMDBLanguage      = "en-US"
	defaultSyncInterval      = 15
	defaultNotifyTimeout     = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Sources: Sources{
			Primary: defaultPrimarySource,
		},
		Simkl: Simkl{
			TokenFile:    defaultSimklTokenFile,
			CallbackPort: defaultSimklCallbackPort,
		},
		Plex: Plex{
			URL: defaultPlexURL,
		},
		Tautulli: Tautulli{
			URL:    defaultTautulliURL,
			UserID: defaultTautulliUserID,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		Export: Export{
			Watched:   true,
			Watchlist: true,
			Ratings:   true,
		},
		Sync: Sync{
			IntervalMinutes: defaultSyncInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			SyncComplete:   true,
			Errors:         true,
			Unmatched:      true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
