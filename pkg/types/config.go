package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "affiliation-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429 and 503 (0 = default of 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0"`
}

// EuropePMCConfig holds settings for the bibliographic record service.
type EuropePMCConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the REST root, e.g. "https://www.ebi.ac.uk/europepmc/webservices/rest".
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// Email is sent with each request so the service can contact heavy users.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email" validate:"omitempty,email"`

	// PageSize is the maximum number of records per batch request (default 1000).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size" validate:"gte=1,lte=1000"`

	// RequestsPerSecond throttles requests across all workers (0 = unlimited).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gte=0"`
}

// ScoringBackend selects where the scoring services run.
type ScoringBackend string

const (
	ScoringLocal  ScoringBackend = "local"
	ScoringRemote ScoringBackend = "remote"
)

// ScoringConfig holds settings for the membership and site scoring services.
type ScoringConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Backend is "local" (model artifacts on disk) or "remote" (HTTP service).
	Backend ScoringBackend `json:"backend" yaml:"backend" mapstructure:"backend" validate:"oneof=local remote"`

	// MembershipModel is the path of the exported membership model artifact.
	MembershipModel string `json:"membership_model" yaml:"membership_model" mapstructure:"membership_model" validate:"required_if=Backend local"`

	// SiteModel is the path of the exported site model artifact.
	SiteModel string `json:"site_model" yaml:"site_model" mapstructure:"site_model" validate:"required_if=Backend local"`

	// URL is the root of the remote scoring service.
	URL string `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url" validate:"omitempty,url"`

	// APIKey is sent as a bearer token to the remote scoring service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// ClassifierConfig holds the thresholds of the classification cascade.
type ClassifierConfig struct {
	// FullMatchThreshold is the membership score above which a text matches
	// as a whole (default 0.9). Keyword windows use the same threshold.
	FullMatchThreshold  float64 `json:"full_match_threshold" yaml:"full_match_threshold" mapstructure:"full_match_threshold" validate:"gt=0,lt=1"`
	SubsegmentThreshold float64 `json:"subsegment_threshold" yaml:"subsegment_threshold" mapstructure:"subsegment_threshold" validate:"gt=0,lt=1"`
	WindowWidth         int     `json:"window_width" yaml:"window_width" mapstructure:"window_width" validate:"gte=1"`
}

// NERBackend selects the named-entity recognizer.
type NERBackend string

const (
	NERModel  NERBackend = "model"
	NERRules  NERBackend = "rules"
	NERRemote NERBackend = "remote"
)

// GeoConfig holds settings for place resolution.
type GeoConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// ReferenceFile overrides the embedded reference data (YAML).
	ReferenceFile string `json:"reference_file,omitempty" yaml:"reference_file,omitempty" mapstructure:"reference_file"`

	// CitiesFile is a GeoNames cities dump (e.g. cities15000.txt) added to
	// the city table.
	CitiesFile string `json:"cities_file,omitempty" yaml:"cities_file,omitempty" mapstructure:"cities_file"`

	// NER is "model" (gazetteer rules plus the prose entity model), "rules"
	// (gazetteer only) or "remote".
	NER NERBackend `json:"ner" yaml:"ner" mapstructure:"ner" validate:"oneof=model rules remote"`

	// NERURL is the root of the remote NER service.
	NERURL string `json:"ner_url,omitempty" yaml:"ner_url,omitempty" mapstructure:"ner_url" validate:"omitempty,url"`

	// APIKey is sent as a bearer token to the remote NER service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// BatchConfig holds settings for the batch orchestrator.
type BatchConfig struct {
	// ChunkSize is the target number of identifiers per chunk (default 1000).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size" mapstructure:"chunk_size" validate:"gte=1,lte=1000"`

	// Workers is the worker pool size (0 = number of CPUs + 2).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers" validate:"gte=0"`
}

// ReportConfig holds settings for the output artifacts.
type ReportConfig struct {
	// OutputDir receives the category tables, PMID list and summary.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir" validate:"required"`
}

// StoreConfig holds settings for the SQLite result store.
type StoreConfig struct {
	// Path is the database file; empty disables persistence.
	Path string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`
}

// LogConfig holds diagnostics logging settings.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"oneof=console json"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	EuropePMC  EuropePMCConfig  `json:"europepmc" yaml:"europepmc" mapstructure:"europepmc"`
	Scoring    ScoringConfig    `json:"scoring" yaml:"scoring" mapstructure:"scoring"`
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier" mapstructure:"classifier"`
	Geo        GeoConfig        `json:"geo" yaml:"geo" mapstructure:"geo"`
	Batch      BatchConfig      `json:"batch" yaml:"batch" mapstructure:"batch"`
	Report     ReportConfig     `json:"report" yaml:"report" mapstructure:"report"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultPipelineConfig returns the settings used when no config file,
// environment variable or flag overrides them.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		EuropePMC: EuropePMCConfig{
			HTTPConfig: HTTPConfig{Timeout: 120 * time.Second, UserAgent: "affiliation-engine/0.1"},
			BaseURL:    "https://www.ebi.ac.uk/europepmc/webservices/rest",
			PageSize:   1000,
		},
		Scoring: ScoringConfig{
			HTTPConfig:      HTTPConfig{Timeout: 30 * time.Second, UserAgent: "affiliation-engine/0.1"},
			Backend:         ScoringLocal,
			MembershipModel: "models/membership.json",
			SiteModel:       "models/sites.json",
		},
		Classifier: ClassifierConfig{
			FullMatchThreshold:  0.9,
			SubsegmentThreshold: 0.6,
			WindowWidth:         7,
		},
		Geo: GeoConfig{
			HTTPConfig: HTTPConfig{Timeout: 30 * time.Second, UserAgent: "affiliation-engine/0.1"},
			NER:        NERModel,
		},
		Batch:  BatchConfig{ChunkSize: 1000},
		Report: ReportConfig{OutputDir: "results"},
		Log:    LogConfig{Level: "info", Format: "console"},
	}
}
