package config

import "time"

// DefaultConfig is the configuration used when no config file is present.
// It runs fully offline: local extraction, in-process cache, demo corpus.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 8000,
		},
		Log: LogConfig{
			Level: "INFO",
			Dir:   "logs",
			File:  "server.log",
		},
		Web: WebConfig{
			StaticDir: "static",
		},
		Extractor: ExtractorConfig{
			Selected:      "local",
			MaxConcurrent: 4,
			Providers: map[string]ProviderConfig{
				"local": {
					Type:       "local",
					Dimensions: 128,
				},
				"openai": {
					Type:            "openai",
					ModelName:       "text-embedding-3-small",
					VisualModelName: "text-embedding-3-small",
					Dimensions:      1536,
				},
			},
		},
		Cache: CacheConfig{
			Type: "memory",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "trulogo:embed:",
				TTL:    24 * time.Hour,
			},
		},
		Index: IndexConfig{
			TopK: 5,
		},
		Storage: StorageConfig{
			ScanDB: "data/scans.db",
		},
	}
}
