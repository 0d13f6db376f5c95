package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	platformerrors "trulogo-server-go/internal/platform/errors"
)

// DefaultPath is consulted when no explicit path or TRULOGO_CONFIG is set.
const DefaultPath = "config.yaml"

// Load reads configuration in three layers: built-in defaults, the YAML
// file, then environment overrides. A missing file is not an error; the
// defaults run fine on their own.
func Load(path string) (*Config, string, error) {
	// .env is optional; absence just means the process environment is used.
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("TRULOGO_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		path = ""
	case err != nil:
		return nil, "", platformerrors.Wrap(platformerrors.KindConfig, "config.load",
			"read config file", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, "", platformerrors.Wrap(platformerrors.KindConfig, "config.load",
				"parse config file", err)
		}
	}

	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.Redis.Password = v
	}

	// API keys never live in the config file.
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if p, ok := cfg.Extractor.Providers["openai"]; ok && p.APIKey == "" {
			p.APIKey = v
			cfg.Extractor.Providers["openai"] = p
		}
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		if p, ok := cfg.Extractor.Providers["openai"]; ok && p.BaseURL == "" {
			p.BaseURL = v
			cfg.Extractor.Providers["openai"] = p
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return platformerrors.New(platformerrors.KindConfig, "config.validate",
			"server port out of range")
	}
	if cfg.Extractor.Selected == "" {
		return platformerrors.New(platformerrors.KindConfig, "config.validate",
			"no extractor selected")
	}
	if _, ok := cfg.Extractor.Providers[cfg.Extractor.Selected]; !ok {
		return platformerrors.New(platformerrors.KindConfig, "config.validate",
			"selected extractor has no provider entry")
	}
	switch cfg.Cache.Type {
	case "", "none", "memory", "redis":
	default:
		return platformerrors.New(platformerrors.KindConfig, "config.validate",
			"unknown cache type "+cfg.Cache.Type)
	}
	return nil
}
