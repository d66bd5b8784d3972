package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Worker    WorkerConfig    `mapstructure:"worker"    validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm"       validate:"required"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Output    OutputConfig    `mapstructure:"output"    validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// APIKeys are accepted in the X-API-Key header. Authentication is
	// disabled when the list is empty.
	APIKeys []string `mapstructure:"api_keys" validate:"dive,min=16"`

	// CreateRateLimit and DefaultRateLimit are requests per minute per client.
	CreateRateLimit  int `mapstructure:"create_rate_limit"  validate:"gte=0"`
	DefaultRateLimit int `mapstructure:"default_rate_limit" validate:"gte=0"`

	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DatabaseConfig selects the backend for both the record store and the job queue.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite memory"`

	// URL is a postgres connection string or a sqlite file path.
	URL string `mapstructure:"url" validate:"required_unless=Driver memory"`
}

// WorkerConfig controls the background worker pool and the orphan reconciler.
type WorkerConfig struct {
	Concurrency       int           `mapstructure:"concurrency"        validate:"gt=0,lte=100"`
	PollInterval      time.Duration `mapstructure:"poll_interval"      validate:"gt=0"`
	Lease             time.Duration `mapstructure:"lease"              validate:"gt=0"`
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval" validate:"gte=0"`
	ReconcileAfter    time.Duration `mapstructure:"reconcile_after"    validate:"gt=0"`
	MetricsPort       int           `mapstructure:"metrics_port"       validate:"gte=0,lt=65536"`
}

// LLM providers.
const (
	ProviderGemini  = "gemini"
	ProviderOutline = "outline"
)

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	Provider           string  `mapstructure:"provider"             validate:"required,oneof=gemini outline"`
	GeminiAPIKey       string  `mapstructure:"gemini_api_key"       validate:"required_if=Provider gemini"`
	ModelName          string  `mapstructure:"model_name"           validate:"required_if=Provider gemini"`
	PromptTemplatePath string  `mapstructure:"prompt_template_path"`
	MaxRetries         int     `mapstructure:"max_retries"          validate:"gte=0,lte=10"`
	RetryDelaySeconds  int     `mapstructure:"retry_delay_seconds"  validate:"gte=0,lte=60"`
	Temperature        float64 `mapstructure:"temperature"          validate:"gte=0,lte=2"`
}

// TemplatesConfig points at an optional directory of template files that
// take precedence over the built-in catalog.
type TemplatesConfig struct {
	Dir string `mapstructure:"dir"`
}

// OutputConfig configures where generated documents are written.
type OutputConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
