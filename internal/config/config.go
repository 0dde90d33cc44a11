package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server        ServerConfig        `mapstructure:"server" validate:"required"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Providers     ProvidersConfig     `mapstructure:"providers" validate:"required"`
	Timeouts      TimeoutConfig       `mapstructure:"timeouts" validate:"required"`
	Jobs          JobsConfig          `mapstructure:"jobs" validate:"required"`
	Normalize     NormalizeConfig     `mapstructure:"normalize" validate:"required"`
	Admission     AdmissionConfig     `mapstructure:"admission"`
	Illustrations IllustrationsConfig `mapstructure:"illustrations" validate:"required"`
	Telemetry     TelemetryConfig     `mapstructure:"telemetry"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                  int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel              string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"required,min=1,max=900"`
}

// DatabaseConfig contains database settings. The database backs only the
// credit ledger; when URL is empty every request is admitted.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// ProviderConfig describes a single upstream. APIKey is the credential; an empty
// key leaves the provider unconfigured. For runpod, Model holds the serverless
// endpoint id.
type ProviderConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url" validate:"omitempty,url"`
	Model          string `mapstructure:"model"`
	LongFormModel  string `mapstructure:"long_form_model"`
	SearchEngineID string `mapstructure:"search_engine_id"`
}

// ProvidersConfig lists every supported upstream.
type ProvidersConfig struct {
	DefaultChat  string         `mapstructure:"default_chat" validate:"required,oneof=openai anthropic gemini openrouter"`
	OpenAI       ProviderConfig `mapstructure:"openai"`
	Anthropic    ProviderConfig `mapstructure:"anthropic"`
	Gemini       ProviderConfig `mapstructure:"gemini"`
	OpenRouter   ProviderConfig `mapstructure:"openrouter"`
	Replicate    ProviderConfig `mapstructure:"replicate"`
	RunPod       ProviderConfig `mapstructure:"runpod"`
	GoogleImages ProviderConfig `mapstructure:"google_images"`
	YouTube      ProviderConfig `mapstructure:"youtube"`
}

// TimeoutConfig holds per-purpose timeouts in seconds.
type TimeoutConfig struct {
	ConnectSeconds     int `mapstructure:"connect" validate:"min=1,max=60"`
	ChatSeconds        int `mapstructure:"chat" validate:"min=1,max=300"`
	LongFormSeconds    int `mapstructure:"long_form" validate:"min=1,max=600"`
	PollSeconds        int `mapstructure:"poll" validate:"min=1,max=60"`
	ImageCreateSeconds int `mapstructure:"image_create" validate:"min=1,max=600"`
	ProbeSeconds       int `mapstructure:"probe" validate:"min=1,max=60"`
	ValidationSeconds  int `mapstructure:"validation" validate:"min=1,max=60"`
}

// Connect returns the dial timeout for outbound connections.
func (t TimeoutConfig) Connect() time.Duration { return seconds(t.ConnectSeconds) }

// Chat returns the timeout for an interactive chat completion.
func (t TimeoutConfig) Chat() time.Duration { return seconds(t.ChatSeconds) }

// LongForm returns the timeout for a long-form chat completion.
func (t TimeoutConfig) LongForm() time.Duration { return seconds(t.LongFormSeconds) }

// Poll returns the timeout for a single job status request.
func (t TimeoutConfig) Poll() time.Duration { return seconds(t.PollSeconds) }

// ImageCreate returns the timeout for submitting an image job or running a search.
func (t TimeoutConfig) ImageCreate() time.Duration { return seconds(t.ImageCreateSeconds) }

// Probe returns the timeout for a reachability probe.
func (t TimeoutConfig) Probe() time.Duration { return seconds(t.ProbeSeconds) }

// Validation returns the timeout for one reference validation batch.
func (t TimeoutConfig) Validation() time.Duration { return seconds(t.ValidationSeconds) }

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// JobsConfig bounds the asynchronous job poller.
type JobsConfig struct {
	MaxAttempts    int `mapstructure:"max_attempts" validate:"min=1,max=600"`
	PollIntervalMS int `mapstructure:"poll_interval_ms" validate:"min=0,max=60000"`
}

// PollInterval returns the fixed delay between poll attempts.
func (j JobsConfig) PollInterval() time.Duration {
	return time.Duration(j.PollIntervalMS) * time.Millisecond
}

// NormalizeConfig bounds the markup normalizer.
type NormalizeConfig struct {
	MaxInputBytes       int `mapstructure:"max_input_bytes" validate:"min=1"`
	ValidationBatchSize int `mapstructure:"validation_batch_size" validate:"min=1,max=50"`
}

// AdmissionConfig holds the credit cost of each operation.
type AdmissionConfig struct {
	ChatCost      int64 `mapstructure:"chat_cost" validate:"min=0"`
	ImageCost     int64 `mapstructure:"image_cost" validate:"min=0"`
	NormalizeCost int64 `mapstructure:"normalize_cost" validate:"min=0"`
}

// IllustrationsConfig bounds batch illustration requests.
type IllustrationsConfig struct {
	Concurrency int `mapstructure:"concurrency" validate:"min=1,max=32"`
	MaxUnits    int `mapstructure:"max_units" validate:"min=1,max=200"`
}

// TelemetryConfig enables OTLP trace export when OTLPEndpoint is set.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
}
