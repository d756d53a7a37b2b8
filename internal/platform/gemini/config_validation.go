package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/cardstock/internal/config"
	"github.com/phrazzld/cardstock/internal/extraction"
)

// Fallbacks for out-of-range retry settings.
const (
	defaultMaxRetries        = 3
	defaultRetryDelaySeconds = 2
)

// validateConfig rejects configurations the extractor cannot run with and
// normalises retry settings it can recover from.
func validateConfig(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (config.LLMConfig, error) {
	if cfg.GeminiAPIKey == "" {
		return cfg, fmt.Errorf("%w: gemini API key cannot be empty", extraction.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return cfg, fmt.Errorf("%w: model name cannot be empty", extraction.ErrInvalidConfig)
	}

	if cfg.MaxRetries < 0 {
		logger.WarnContext(ctx, "invalid max retries, using default",
			slog.Int("value", cfg.MaxRetries),
			slog.Int("default", defaultMaxRetries))
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelaySeconds < 1 {
		logger.WarnContext(ctx, "invalid retry delay, using default",
			slog.Int("value", cfg.RetryDelaySeconds),
			slog.Int("default", defaultRetryDelaySeconds))
		cfg.RetryDelaySeconds = defaultRetryDelaySeconds
	}
	return cfg, nil
}
