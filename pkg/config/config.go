package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	xutil "FinSimples/pkg/util"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8000"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
		// Per-client admission on API routes. Zero RPS disables it.
		RateLimit struct {
			RPS   float64       `yaml:"rps" default:"2"`
			Burst int           `yaml:"burst" default:"10"`
			Idle  time.Duration `yaml:"idle" default:"10m"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Providers struct {
		UserAgent string        `yaml:"user_agent" default:"Mozilla/5.0 (compatible; FinSimples/1.0)"`
		Timeout   time.Duration `yaml:"timeout" default:"10s"`
		Primary   struct {
			BaseURL      string `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
			MarketSuffix string `yaml:"market_suffix" default:".SA"`
			Range        string `yaml:"range" default:"1y"`
			Interval     string `yaml:"interval" default:"1d"`
		} `yaml:"primary"`
		Secondary struct {
			BaseURL  string `yaml:"base_url" default:"https://brapi.dev"`
			Token    string `yaml:"token"`
			Range    string `yaml:"range" default:"3mo"`
			Interval string `yaml:"interval" default:"1d"`
		} `yaml:"secondary"`
		RateLimit struct {
			RPS   float64 `yaml:"rps" default:"5"`
			Burst int     `yaml:"burst" default:"5"`
		} `yaml:"rate_limit"`
	} `yaml:"providers"`
	Cache struct {
		Backend string        `yaml:"backend" default:"badger"`
		Dir     string        `yaml:"dir" default:".cache/http"`
		TTL     time.Duration `yaml:"ttl" default:"6h"`
		Redis   struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"finsimples:httpcache"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Artifacts struct {
		BoosterPath     string `yaml:"booster_path" default:"models/modelo_xgb.json"`
		FeatureSpecPath string `yaml:"feature_spec_path" default:"models/feature_spec.yaml"`
		// Require the feature spec to match the pipeline's column list.
		MatchPipeline bool `yaml:"match_pipeline" default:"true"`
	} `yaml:"artifacts"`
	Insights struct {
		OpenAIAPIKey string        `yaml:"openai_api_key"`
		Model        string        `yaml:"model" default:"gpt-4o"`
		Temperature  float32       `yaml:"temperature" default:"0.5"`
		Timeout      time.Duration `yaml:"timeout" default:"45s"`
		DefaultYears int           `yaml:"default_years" default:"5"`
	} `yaml:"insights"`
}

// Default returns a configuration populated only from struct defaults.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Load reads and parses a YAML configuration file. An empty path yields the
// defaults.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads .env (when present), then the YAML file, then applies
// environment variable overrides.
func LoadWithEnv(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = xutil.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("BRAPI_TOKEN"); v != "" {
		c.Providers.Secondary.Token = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Insights.OpenAIAPIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.Insights.Model = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("BOOSTER_PATH"); v != "" {
		c.Artifacts.BoosterPath = v
	}
	if v := os.Getenv("FEATURE_SPEC_PATH"); v != "" {
		c.Artifacts.FeatureSpecPath = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Cache.Backend {
	case "badger":
		if c.Cache.Dir == "" {
			return fmt.Errorf("cache.dir is required for the badger backend")
		}
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required for the redis backend")
		}
	case "memory":
	default:
		return fmt.Errorf("cache.backend must be 'badger', 'redis' or 'memory', got '%s'", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Providers.Primary.BaseURL == "" || c.Providers.Secondary.BaseURL == "" {
		return fmt.Errorf("providers base_url is required")
	}
	if c.Providers.RateLimit.RPS <= 0 || c.Providers.RateLimit.Burst <= 0 {
		return fmt.Errorf("providers.rate_limit must be positive")
	}
	if c.Server.RateLimit.RPS < 0 || (c.Server.RateLimit.RPS > 0 && c.Server.RateLimit.Burst <= 0) {
		return fmt.Errorf("server.rate_limit needs a positive burst when rps is set")
	}
	if c.Artifacts.BoosterPath == "" {
		return fmt.Errorf("artifacts.booster_path is required")
	}
	if c.Artifacts.FeatureSpecPath == "" {
		return fmt.Errorf("artifacts.feature_spec_path is required")
	}
	if c.Insights.DefaultYears < 1 {
		return fmt.Errorf("insights.default_years must be at least 1")
	}
	return nil
}
