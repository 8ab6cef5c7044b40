package model

import "time"

// Config holds the full runtime configuration. Values are resolved by the
// CLI layer (flags > IRS990_* env > config file > defaults) and the result
// is passed explicitly to every component; nothing reads configuration
// globally after startup.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Cache       CacheConfig       `yaml:"cache"`
	Data        DataConfig        `yaml:"data"`
	Fetch       FetchConfig       `yaml:"fetch"`
	Extract     ExtractConfig     `yaml:"extract"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Output      OutputConfig      `yaml:"output"`
}

// HTTPConfig controls the download client.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// CacheConfig controls the layered download cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir"`
	TTL     time.Duration `yaml:"ttl"`
}

// DataConfig names the local data directories.
type DataConfig struct {
	Dir string `yaml:"dir"` // root; index/, xml/, parsed/ live beneath it
}

// FetchConfig controls index/XML/BMF acquisition.
type FetchConfig struct {
	TaxYears          []int   `yaml:"tax_years"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// DuplicatePolicy selects which node wins when a singular field matches
// more than one element in document order.
type DuplicatePolicy string

const (
	// DuplicateFirst takes the first match in document order. Amended-return
	// scaffolding tends to append corrections later in the document, but the
	// upstream rule is not confirmed, so the policy stays configurable.
	DuplicateFirst DuplicatePolicy = "first"
	DuplicateLast  DuplicatePolicy = "last"
)

// ExtractConfig controls the extraction engine.
type ExtractConfig struct {
	DocTimeout      time.Duration   `yaml:"doc_timeout"` // per-document budget
	DuplicatePolicy DuplicatePolicy `yaml:"duplicate_policy"`
	ConcordanceCSV  string          `yaml:"concordance_csv"` // optional overlay path or URL
}

// ConcurrencyConfig bounds the worker pools.
type ConcurrencyConfig struct {
	Workers         int `yaml:"workers"`          // extraction workers
	DownloadWorkers int `yaml:"download_workers"` // XML download fan-out
}

// OutputConfig controls operator-facing output.
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      60 * time.Second,
			UserAgent:    "irs990/0.3 (+https://github.com/bwdmonkey/givvu-irs-501c3-data)",
			MaxBodyBytes: 256 << 20,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "./data/cache",
			TTL:     7 * 24 * time.Hour,
		},
		Data: DataConfig{
			Dir: "./data",
		},
		Fetch: FetchConfig{
			TaxYears:          []int{2022, 2023, 2024},
			RequestsPerSecond: 20,
			Burst:             40,
		},
		Extract: ExtractConfig{
			DocTimeout:      30 * time.Second,
			DuplicatePolicy: DuplicateFirst,
		},
		Concurrency: ConcurrencyConfig{
			Workers:         4,
			DownloadWorkers: 50,
		},
		Output: OutputConfig{},
	}
}
