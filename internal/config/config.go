package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration parameters
type Config struct {
	BaseURL               string   `json:"base_url"`
	Categories            []string `json:"categories"`
	MaxConcurrentRequests int      `json:"max_concurrent_requests"`
	MinDelayMs            int      `json:"min_delay_ms"`
	MaxDelayMs            int      `json:"max_delay_ms"`
	MaxRetries            int      `json:"max_retries"`
	RetryMinWaitMs        int      `json:"retry_min_wait_ms"`
	RetryMaxWaitMs        int      `json:"retry_max_wait_ms"`
	RequestTimeoutMs      int      `json:"request_timeout_ms"`
	MaxDiscoveredURLs     int      `json:"max_discovered_urls"`
	MaxProductsPerCycle   int      `json:"max_products_per_category"`
	MaxBrandPages         int      `json:"max_brand_pages"`
	InterCategoryDelaySec int      `json:"inter_category_delay_sec"`
	CycleSleepMin         int      `json:"cycle_sleep_min"`
	ErrorCooldownMin      int      `json:"error_cooldown_min"`
	DBPath                string   `json:"db_path"`
	RedisAddr             string   `json:"redis_addr"`
	CacheTTLMin           int      `json:"cache_ttl_min"`
	ListenAddr            string   `json:"listen_addr"`
	MetricsPath           string   `json:"metrics_path"`
}

// LoadConfig reads and validates configuration from a JSON file.
// Environment variables override file values for deployment-specific settings.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	var cfg Config
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Apply defaults for missing values
	applyDefaults(&cfg)

	// Environment overrides (deployment settings)
	applyEnv(&cfg)

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for unspecified fields
func applyDefaults(cfg *Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.reliableparts.com"
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = DefaultCategories()
	}
	if cfg.MaxConcurrentRequests == 0 {
		cfg.MaxConcurrentRequests = 2
	}
	if cfg.MinDelayMs == 0 {
		cfg.MinDelayMs = 3000
	}
	if cfg.MaxDelayMs == 0 {
		cfg.MaxDelayMs = 6000
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryMinWaitMs == 0 {
		cfg.RetryMinWaitMs = 4000
	}
	if cfg.RetryMaxWaitMs == 0 {
		cfg.RetryMaxWaitMs = 10000
	}
	if cfg.RequestTimeoutMs == 0 {
		cfg.RequestTimeoutMs = 30000
	}
	if cfg.MaxDiscoveredURLs == 0 {
		cfg.MaxDiscoveredURLs = 20
	}
	if cfg.MaxProductsPerCycle == 0 {
		cfg.MaxProductsPerCycle = 10
	}
	if cfg.MaxBrandPages == 0 {
		cfg.MaxBrandPages = 10
	}
	if cfg.InterCategoryDelaySec == 0 {
		cfg.InterCategoryDelaySec = 30
	}
	if cfg.CycleSleepMin == 0 {
		cfg.CycleSleepMin = 30
	}
	if cfg.ErrorCooldownMin == 0 {
		cfg.ErrorCooldownMin = 5
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "products.db"
	}
	if cfg.CacheTTLMin == 0 {
		cfg.CacheTTLMin = 60
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "metrics.log"
	}
}

// applyEnv overrides deployment-specific settings from the environment
func applyEnv(cfg *Config) {
	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("MAX_CONCURRENT_REQUESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxConcurrentRequests = n
		}
	}
}

// validate checks that required fields are present and values are sensible
func validate(cfg *Config) error {
	if cfg.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if len(cfg.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	if cfg.MaxConcurrentRequests < 1 {
		return fmt.Errorf("max_concurrent_requests must be >= 1")
	}
	if cfg.MinDelayMs > cfg.MaxDelayMs {
		return fmt.Errorf("min_delay_ms must be <= max_delay_ms")
	}
	if cfg.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be >= 1")
	}
	if cfg.RequestTimeoutMs < 1000 {
		return fmt.Errorf("request_timeout_ms must be >= 1000")
	}
	return nil
}
