// Package config defines the server configuration model and its YAML loader.
package config

import (
	"time"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Web       WebConfig       `yaml:"web"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Cache     CacheConfig     `yaml:"cache"`
	Index     IndexConfig     `yaml:"index"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Storage   StorageConfig   `yaml:"storage"`
}

type ServerConfig struct {
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type WebConfig struct {
	StaticDir string `yaml:"static_dir"`
}

// ExtractorConfig selects one of the configured feature extraction
// providers and bounds its concurrency.
type ExtractorConfig struct {
	Selected      string                    `yaml:"selected"`
	MaxConcurrent int                       `yaml:"max_concurrent"`
	Providers     map[string]ProviderConfig `yaml:"providers"`
}

type ProviderConfig struct {
	Type            string `yaml:"type"`
	ModelName       string `yaml:"model_name"`
	VisualModelName string `yaml:"visual_model_name"`
	BaseURL         string `yaml:"url"`
	APIKey          string `yaml:"api_key"`
	Dimensions      int    `yaml:"dimensions"`
}

// CacheConfig controls the embedding cache. Type is none, memory or redis.
type CacheConfig struct {
	Type  string      `yaml:"type"`
	Redis RedisConfig `yaml:"redis,omitempty"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db,omitempty"`
	Prefix   string        `yaml:"prefix,omitempty"`
	TTL      time.Duration `yaml:"ttl,omitempty"`
}

type IndexConfig struct {
	TopK int `yaml:"top_k"`
}

// CorpusConfig points at the YAML manifest listing reference trademarks.
// When empty the built-in demo corpus is used.
type CorpusConfig struct {
	Manifest string `yaml:"manifest"`
}

type StorageConfig struct {
	ScanDB string `yaml:"scan_db"`
}
