package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for critterdex.
type Config struct {
	Wiki      WikiConfig      `mapstructure:"wiki"      yaml:"wiki"`
	Discovery DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`
	Extractor ExtractorConfig `mapstructure:"extractor" yaml:"extractor"`
	Crawl     CrawlConfig     `mapstructure:"crawl"     yaml:"crawl"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"   yaml:"fetcher"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
}

// WikiConfig describes the crawled wiki.
type WikiConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// Exclusions are page titles (the part after /wiki/) whose markup the
	// description heuristics cannot handle.
	Exclusions []string `mapstructure:"exclusions" yaml:"exclusions"`
}

// DiscoveryConfig controls candidate link discovery on category pages.
type DiscoveryConfig struct {
	LinkPattern string `mapstructure:"link_pattern" yaml:"link_pattern"`
	RangeFilter bool   `mapstructure:"range_filter" yaml:"range_filter"`
	// RangeStarts maps a creature kind to the page title that precedes its
	// creature links on the category page.
	RangeStarts map[string]string `mapstructure:"range_starts" yaml:"range_starts"`
	RangeEnd    string            `mapstructure:"range_end"    yaml:"range_end"`
}

// ExtractorConfig is the description extraction policy.
type ExtractorConfig struct {
	AnchorPrefix string   `mapstructure:"anchor_prefix" yaml:"anchor_prefix"`
	Tags         []string `mapstructure:"tags"          yaml:"tags"`
	MinLength    int      `mapstructure:"min_length"    yaml:"min_length"`
}

// CrawlConfig restricts which targets a run covers. Empty means all.
type CrawlConfig struct {
	Versions []string `mapstructure:"versions" yaml:"versions"`
	Kinds    []string `mapstructure:"kinds"    yaml:"kinds"`
}

// FetcherConfig controls the page fetcher.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"             yaml:"type"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"  yaml:"request_timeout"`
	UserAgents      []string      `mapstructure:"user_agents"      yaml:"user_agents"`
	FollowRedirects bool          `mapstructure:"follow_redirects" yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"    yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"    yaml:"max_body_size"`
	Stealth         bool          `mapstructure:"stealth"          yaml:"stealth"`
}

// StorageConfig controls where records are written.
type StorageConfig struct {
	Type                 string `mapstructure:"type"                   yaml:"type"`
	Path                 string `mapstructure:"path"                   yaml:"path"`
	OutputDir            string `mapstructure:"output_dir"             yaml:"output_dir"`
	MongoURI             string `mapstructure:"mongo_uri"              yaml:"mongo_uri"`
	MongoDatabase        string `mapstructure:"mongo_database"         yaml:"mongo_database"`
	MinDescriptionLength int    `mapstructure:"min_description_length" yaml:"min_description_length"`
	// Commit is "run" (single commit at the end) or "table" (commit after
	// each completed table).
	Commit string `mapstructure:"commit" yaml:"commit"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// Commit policies.
const (
	CommitRun   = "run"
	CommitTable = "table"
)

// DefaultConfig returns a Config with the defaults the crawler was tuned
// against.
func DefaultConfig() *Config {
	return &Config{
		Wiki: WikiConfig{
			BaseURL: "https://animalcrossing.fandom.com",
			Exclusions: []string{
				"Bugs", "Isabelle", "Blathers", "Pascal", "Bug", "Tree",
				"Flower", "Bug_Off", "Flick", "River", "Fishing_Tourney",
				"Net", "Trash", "Waterfall", "Fishing_Rod",
			},
		},
		Discovery: DiscoveryConfig{
			LinkPattern: `/wiki/[A-Za-z_()]+`,
			RangeFilter: false,
			RangeStarts: map[string]string{
				"bugs":               "File",
				"fish":               "Pop",
				"deep-sea_creatures": "Pascal",
			},
			RangeEnd: "Deserted_island",
		},
		Extractor: ExtractorConfig{
			AnchorPrefix: "In_",
			Tags:         []string{"p"},
			MinLength:    120,
		},
		Fetcher: FetcherConfig{
			Type:            "http",
			RequestTimeout:  30 * time.Second,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
		},
		Storage: StorageConfig{
			Type:                 "sqlite",
			Path:                 "dialogue.db",
			OutputDir:            "./output",
			MongoURI:             "mongodb://localhost:27017",
			MongoDatabase:        "critterdex",
			MinDescriptionLength: 50,
			Commit:               CommitRun,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
