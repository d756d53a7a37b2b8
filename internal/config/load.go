package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// CARDSTOCK_SERVER_PORT for server.port.
const EnvPrefix = "CARDSTOCK"

var defaults = map[string]any{
	"server.port":                     8080,
	"server.log_level":                "info",
	"server.shutdown_timeout_seconds": 15,
	"database.url":                    "",
	"database.max_open_conns":         25,
	"auth.jwt_secret":                 "",
	"llm.gemini_api_key":              "",
	"llm.model_name":                  "gemini-2.0-flash",
	"llm.prompt_template_path":        "",
	"llm.max_retries":                 3,
	"llm.retry_delay_seconds":         2,
	"redis.addr":                      "",
	"redis.password":                  "",
	"redis.db":                        0,
	"redis.cache_ttl_minutes":         60,
	"render.workers":                  4,
	"render.queue_size":               64,
	"render.preview_scale":            0.25,
	"render.max_upload_mb":            10,
	"render.image_timeout_seconds":    15,
	"render.presets_path":             "",
	"editor.history_limit":            200,
	"editor.session_idle_minutes":     30,
}

// Load configuration from environment variables and optionally a config.yaml
// in the working directory. Environment variables take precedence over values
// from the file. Returns a populated Config struct or an error if
// loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Every key needs a default so that Unmarshal sees env-only values.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

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
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}
