package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads path (if non-empty and present) as YAML over the defaults, then
// applies CL_* environment overrides, mirroring intelligencedev-manifold's
// yaml-base-then-env-overlay loader shape. A missing .env is not an error —
// godotenv.Load is best-effort, same as that bootstrap.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		if b, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("CL_STORE_DIR")); v != "" {
		cfg.Store.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv("CL_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("CL_LLM_ENDPOINT")); v != "" {
		cfg.LLM.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("CL_MAX_CONCURRENT_LLM")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LLM.MaxConcurrent = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CL_CACHE_TTL_S")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.TTLSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("CL_REDIS_ADDR")); v != "" {
		cfg.Cache.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("CL_ALLOWLISTED_SOURCES")); v != "" {
		cfg.Knowledge.AllowlistedSources = strings.Split(v, ",")
	}
}
