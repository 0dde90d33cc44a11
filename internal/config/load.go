package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. LESSONFORGE_SERVER_PORT.
const EnvPrefix = "LESSONFORGE"

// Load configuration from environment variables and optionally a config.yaml in the
// working directory. Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tag constraints on cfg.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// setDefaults registers every key. AutomaticEnv only resolves keys viper
// already knows about, so credentials get empty defaults too.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.request_timeout_seconds", 300)

	v.SetDefault("database.url", "")

	v.SetDefault("providers.default_chat", "openai")
	providerDefaults := map[string]map[string]string{
		"openai":        {"base_url": "", "model": "gpt-4o-mini", "long_form_model": "gpt-4o"},
		"anthropic":     {"base_url": "", "model": "claude-3-5-haiku-latest", "long_form_model": "claude-sonnet-4-0"},
		"gemini":        {"base_url": "", "model": "gemini-2.0-flash", "long_form_model": "gemini-2.5-pro"},
		"openrouter":    {"base_url": "https://openrouter.ai/api/v1", "model": "openai/gpt-4o-mini", "long_form_model": ""},
		"replicate":     {"base_url": "https://api.replicate.com", "model": "black-forest-labs/flux-schnell", "long_form_model": ""},
		"runpod":        {"base_url": "https://api.runpod.ai", "model": "", "long_form_model": ""},
		"google_images": {"base_url": "https://www.googleapis.com", "model": "", "long_form_model": ""},
		"youtube":       {"base_url": "https://www.googleapis.com", "model": "", "long_form_model": ""},
	}
	for name, values := range providerDefaults {
		prefix := "providers." + name + "."
		v.SetDefault(prefix+"api_key", "")
		v.SetDefault(prefix+"search_engine_id", "")
		for key, value := range values {
			v.SetDefault(prefix+key, value)
		}
	}

	v.SetDefault("timeouts.connect", 15)
	v.SetDefault("timeouts.chat", 60)
	v.SetDefault("timeouts.long_form", 180)
	v.SetDefault("timeouts.poll", 10)
	v.SetDefault("timeouts.image_create", 180)
	v.SetDefault("timeouts.probe", 5)
	v.SetDefault("timeouts.validation", 10)

	v.SetDefault("jobs.max_attempts", 30)
	v.SetDefault("jobs.poll_interval_ms", 3000)

	v.SetDefault("normalize.max_input_bytes", 1<<20)
	v.SetDefault("normalize.validation_batch_size", 45)

	v.SetDefault("admission.chat_cost", 1)
	v.SetDefault("admission.image_cost", 1)
	v.SetDefault("admission.normalize_cost", 0)

	v.SetDefault("illustrations.concurrency", 4)
	v.SetDefault("illustrations.max_units", 50)

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "lessonforge")
}
