package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "profile-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// GateConfig holds rate-gate settings applied per source.
type GateConfig struct {
	// MinInterval is the minimum spacing between requests to one source
	// (default 1s).
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval"`

	// MaxRetries is the retry ceiling per request (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// BackoffBase is the first retry delay; it doubles per attempt up to
	// BackoffCap (defaults 2s / 60s).
	BackoffBase time.Duration `json:"backoff_base" yaml:"backoff_base"`
	BackoffCap  time.Duration `json:"backoff_cap" yaml:"backoff_cap"`

	// CoolDown is how long a source stays blocked after a block signal
	// (HTTP 429/403 or a CAPTCHA marker, default 5m).
	CoolDown time.Duration `json:"cool_down" yaml:"cool_down"`
}

// CacheConfig holds settings for the scrape cache store.
type CacheConfig struct {
	// Dir is the cache directory (contains scrape-cache.db).
	Dir string `json:"dir" yaml:"dir"`

	// TTL is the default entry lifetime (default 7 days).
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// ForceRefresh bypasses cache reads but still writes.
	ForceRefresh bool `json:"force_refresh" yaml:"force_refresh"`
}

// ScrapeConfig holds settings for the scraping stage.
type ScrapeConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxRecords caps records fetched per source (default 100).
	MaxRecords int `json:"max_records" yaml:"max_records"`

	// SemanticScholarAPIKey raises Semantic Scholar rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// UnpaywallEmail identifies the caller to the Unpaywall API.
	UnpaywallEmail string `json:"unpaywall_email,omitempty" yaml:"unpaywall_email,omitempty"`
}

// CurationConfig holds settings for scoring and candidate selection.
type CurationConfig struct {
	// TopN is the number of candidates pursued for download (default 25).
	TopN int `json:"top_n" yaml:"top_n"`

	// TopicWeight multiplies domain-keyword hits in the composite score
	// (default 1000, so topic relevance dominates raw citation counts).
	TopicWeight float64 `json:"topic_weight" yaml:"topic_weight"`
}

// DownloadConfig holds settings for the download cascade.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// PapersDir is the base directory for downloaded documents.
	PapersDir string `json:"papers_dir" yaml:"papers_dir"`

	// MinBytes is the sanity threshold below which a response is treated
	// as an error page rather than a document (default 10 KiB).
	MinBytes int64 `json:"min_bytes" yaml:"min_bytes"`

	// Concurrency is the global cap on parallel candidate downloads
	// (default 4). Attempts within one candidate stay sequential.
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// UnpaywallEmail identifies the caller to the Unpaywall API.
	UnpaywallEmail string `json:"unpaywall_email,omitempty" yaml:"unpaywall_email,omitempty"`
}

// SynthesisConfig holds settings for the section synthesizer.
type SynthesisConfig struct {
	// Model is the completion model identifier passed to the service.
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the completion service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxAttempts is the generation attempt ceiling per section (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// ChunkBytes bounds the evidence packed into one map-step prompt
	// (default 16 KiB).
	ChunkBytes int `json:"chunk_bytes" yaml:"chunk_bytes"`

	// MinSectionChars is the validation floor for accepted sections
	// (default 400).
	MinSectionChars int `json:"min_section_chars" yaml:"min_section_chars"`

	// MaxTokens is the completion token budget per call (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// SectionTimeout bounds total elapsed time per section (default 5m).
	SectionTimeout time.Duration `json:"section_timeout" yaml:"section_timeout"`
}

// OutputConfig holds settings for report and checklist emission.
type OutputConfig struct {
	// Dir is the base output directory; artifacts land under
	// Dir/<person-slug>/.
	Dir string `json:"dir" yaml:"dir"`
}

// PipelineConfig groups all stage configurations for one run.
type PipelineConfig struct {
	Gate      GateConfig      `json:"gate" yaml:"gate"`
	Cache     CacheConfig     `json:"cache" yaml:"cache"`
	Scrape    ScrapeConfig    `json:"scrape" yaml:"scrape"`
	Curation  CurationConfig  `json:"curation" yaml:"curation"`
	Download  DownloadConfig  `json:"download" yaml:"download"`
	Synthesis SynthesisConfig `json:"synthesis" yaml:"synthesis"`
	Output    OutputConfig    `json:"output" yaml:"output"`
}
