package config

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/IshaanNene/critterdex/internal/catalog"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Wiki.BaseURL); err != nil {
		return fmt.Errorf("wiki.base_url: %w", err)
	}

	if _, err := regexp.Compile(cfg.Discovery.LinkPattern); err != nil {
		return fmt.Errorf("discovery.link_pattern: %w", err)
	}
	if cfg.Discovery.RangeFilter {
		if cfg.Discovery.RangeEnd == "" {
			return fmt.Errorf("discovery.range_end is required when range_filter is on")
		}
		for _, k := range catalog.Kinds() {
			if cfg.Discovery.RangeStarts[string(k)] == "" {
				return fmt.Errorf("discovery.range_starts has no entry for %q", k)
			}
		}
	}

	if len(cfg.Extractor.Tags) == 0 {
		return fmt.Errorf("extractor.tags must name at least one element")
	}
	if cfg.Extractor.MinLength < 0 {
		return fmt.Errorf("extractor.min_length must be >= 0, got %d", cfg.Extractor.MinLength)
	}
	if cfg.Extractor.AnchorPrefix == "" {
		return fmt.Errorf("extractor.anchor_prefix must not be empty")
	}

	for _, v := range cfg.Crawl.Versions {
		if _, err := catalog.ParseVersion(v); err != nil {
			return fmt.Errorf("crawl.versions: %w", err)
		}
	}
	for _, k := range cfg.Crawl.Kinds {
		if _, err := catalog.ParseKind(k); err != nil {
			return fmt.Errorf("crawl.kinds: %w", err)
		}
	}

	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	validStorageTypes := map[string]bool{
		"sqlite": true, "mongodb": true, "json": true, "jsonl": true, "csv": true,
	}
	if !validStorageTypes[cfg.Storage.Type] {
		return fmt.Errorf("storage.type %q is not supported (valid: sqlite, mongodb, json, jsonl, csv)", cfg.Storage.Type)
	}
	if cfg.Storage.Type == "sqlite" && cfg.Storage.Path == "" {
		return fmt.Errorf("storage.path is required for sqlite")
	}
	if cfg.Storage.MinDescriptionLength < 0 {
		return fmt.Errorf("storage.min_description_length must be >= 0")
	}
	if cfg.Storage.Commit != CommitRun && cfg.Storage.Commit != CommitTable {
		return fmt.Errorf("storage.commit must be 'run' or 'table', got %q", cfg.Storage.Commit)
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

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks that rawURL is an absolute http(s) URL.
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

// Filter converts the crawl section into a catalog filter. Call Validate
// first; unknown names are skipped.
func (c CrawlConfig) Filter() catalog.Filter {
	var f catalog.Filter
	for _, s := range c.Versions {
		if v, err := catalog.ParseVersion(s); err == nil {
			f.Versions = append(f.Versions, v)
		}
	}
	for _, s := range c.Kinds {
		if k, err := catalog.ParseKind(s); err == nil {
			f.Kinds = append(f.Kinds, k)
		}
	}
	return f
}
