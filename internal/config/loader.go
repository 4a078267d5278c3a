package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied by the caller on the returned Config.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("CRITTERDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("critterdex")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".critterdex"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Defaults are registered in viper; decode into a zero Config so file
	// slices replace the default ones instead of merging into them.
	out := &Config{}
	if err := v.Unmarshal(out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return out, nil
}

// setDefaults registers default values in viper so env overrides resolve
// for every key.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("wiki.base_url", cfg.Wiki.BaseURL)
	v.SetDefault("wiki.exclusions", cfg.Wiki.Exclusions)

	v.SetDefault("discovery.link_pattern", cfg.Discovery.LinkPattern)
	v.SetDefault("discovery.range_filter", cfg.Discovery.RangeFilter)
	v.SetDefault("discovery.range_starts", cfg.Discovery.RangeStarts)
	v.SetDefault("discovery.range_end", cfg.Discovery.RangeEnd)

	v.SetDefault("extractor.anchor_prefix", cfg.Extractor.AnchorPrefix)
	v.SetDefault("extractor.tags", cfg.Extractor.Tags)
	v.SetDefault("extractor.min_length", cfg.Extractor.MinLength)

	v.SetDefault("crawl.versions", cfg.Crawl.Versions)
	v.SetDefault("crawl.kinds", cfg.Crawl.Kinds)

	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.stealth", cfg.Fetcher.Stealth)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("storage.output_dir", cfg.Storage.OutputDir)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)
	v.SetDefault("storage.min_description_length", cfg.Storage.MinDescriptionLength)
	v.SetDefault("storage.commit", cfg.Storage.Commit)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
