package config

const (
	defaultDataDir          = "~/.local/share/mstash"
	defaultLogDir           = "~/.local/share/mstash/logs"
	defaultStagingDir       = "~/.local/share/mstash/staging"
	defaultAPIBind          = "127.0.0.1:7978"
	defaultStorageTimeout   = 30
	defaultPageSizeDefault  = 50
	defaultPageSizeMax      = 200
	defaultCacheTTLSeconds  = 300
	defaultCacheMaxArchives = 8
	defaultFetchTimeout     = 30
	defaultMaxArchiveMiB    = 256
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			StagingDir: defaultStagingDir,
			APIBind:    defaultAPIBind,
		},
		Storage: Storage{
			RequestTimeout: defaultStorageTimeout,
		},
		Library: Library{
			PageSizeDefault: defaultPageSizeDefault,
			PageSizeMax:     defaultPageSizeMax,
		},
		Ebooks: Ebooks{
			CacheEnabled:     true,
			CacheTTLSeconds:  defaultCacheTTLSeconds,
			CacheMaxArchives: defaultCacheMaxArchives,
			FetchTimeout:     defaultFetchTimeout,
			MaxArchiveMiB:    defaultMaxArchiveMiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
