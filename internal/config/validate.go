package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Harvest.MaxPages < 1 {
		return fmt.Errorf("harvest.max_pages must be >= 1, got %d", cfg.Harvest.MaxPages)
	}
	if cfg.Harvest.MaxProducts < 1 {
		return fmt.Errorf("harvest.max_products must be >= 1, got %d", cfg.Harvest.MaxProducts)
	}
	if cfg.Harvest.TimeBudget <= 0 {
		return fmt.Errorf("harvest.time_budget must be > 0")
	}
	if cfg.Harvest.BudgetMargin < 0 {
		return fmt.Errorf("harvest.budget_margin must be >= 0")
	}
	if cfg.Harvest.MinCommentLen < 0 {
		return fmt.Errorf("harvest.min_comment_len must be >= 0, got %d", cfg.Harvest.MinCommentLen)
	}

	if cfg.Browser.PageLoadTimeout <= 0 {
		return fmt.Errorf("browser.page_load_timeout must be > 0")
	}
	if cfg.Browser.WaitTimeout <= 0 {
		return fmt.Errorf("browser.wait_timeout must be > 0")
	}

	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	if !strings.HasPrefix(cfg.Storage.URI, "mongodb://") && !strings.HasPrefix(cfg.Storage.URI, "mongodb+srv://") {
		return fmt.Errorf("storage.uri must be a mongodb:// or mongodb+srv:// URI, got %q", cfg.Storage.URI)
	}
	if cfg.Storage.Database == "" {
		return fmt.Errorf("storage.database must not be empty")
	}
	if cfg.Storage.BatchSize < 1 {
		return fmt.Errorf("storage.batch_size must be >= 1, got %d", cfg.Storage.BatchSize)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.API.Port < 1 || cfg.API.Port > 65535 {
		return fmt.Errorf("api.port must be 1-65535, got %d", cfg.API.Port)
	}

	return nil
}

// ValidateURL checks if a URL string points at a harvestable product page.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
