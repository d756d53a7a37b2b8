package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Render   RenderConfig   `mapstructure:"render"`
	Editor   EditorConfig   `mapstructure:"editor"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error fatal"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=1,lte=300"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
}

// AuthConfig contains the settings for verifying bearer tokens issued by the
// identity provider.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// LLMConfig contains all LLM integration related settings. An empty API key
// disables imports.
type LLMConfig struct {
	GeminiAPIKey       string `mapstructure:"gemini_api_key"`
	ModelName          string `mapstructure:"model_name" validate:"required"`
	PromptTemplatePath string `mapstructure:"prompt_template_path"`
	MaxRetries         int    `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds  int    `mapstructure:"retry_delay_seconds" validate:"gte=1,lte=60"`
}

// Enabled reports whether an API key is configured.
func (c LLMConfig) Enabled() bool {
	return c.GeminiAPIKey != ""
}

// RedisConfig configures the export cache. An empty address disables it.
type RedisConfig struct {
	Addr            string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password        string `mapstructure:"password"`
	DB              int    `mapstructure:"db" validate:"gte=0,lte=15"`
	CacheTTLMinutes int    `mapstructure:"cache_ttl_minutes" validate:"gte=1"`
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// RenderConfig controls PDF and PNG output.
type RenderConfig struct {
	Workers          int     `mapstructure:"workers" validate:"gte=1,lte=64"`
	QueueSize        int     `mapstructure:"queue_size" validate:"gte=1"`
	PreviewScale     float64 `mapstructure:"preview_scale" validate:"gt=0,lte=2"`
	MaxUploadMB      int     `mapstructure:"max_upload_mb" validate:"gte=1,lte=50"`
	ImageTimeoutSecs int     `mapstructure:"image_timeout_seconds" validate:"gte=1"`
	PresetsPath      string  `mapstructure:"presets_path"`
}

// EditorConfig controls editing sessions.
type EditorConfig struct {
	HistoryLimit       int `mapstructure:"history_limit" validate:"gte=0"`
	SessionIdleMinutes int `mapstructure:"session_idle_minutes" validate:"gte=1"`
}
