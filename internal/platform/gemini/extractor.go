package gemini

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"strings"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/phrazzld/cardstock/internal/config"
	"github.com/phrazzld/cardstock/internal/extraction"
)

//go:embed prompt.tmpl
var defaultPrompt string

// minTextLayer is the number of extracted characters below which a PDF is
// treated as scanned and sent to the model as a document instead.
const minTextLayer = 32

// contentGenerator is the part of the genai client the extractor uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// TextReader pulls the text layer out of a PDF.
type TextReader interface {
	Text(data []byte) (string, error)
}

type promptData struct {
	Filename string
	Text     string
}

// Extractor sends uploads to Gemini and parses the reply into pairs.
type Extractor struct {
	logger   *slog.Logger
	config   config.LLMConfig
	prompt   *template.Template
	models   contentGenerator
	pdfText  TextReader
	sleep    func(ctx context.Context, d time.Duration) error
	jitterFn func() float64
}

var _ extraction.Extractor = (*Extractor)(nil)

// NewExtractor creates a Gemini-backed extractor. pdfText may be nil, in which
// case PDFs are always sent inline.
func NewExtractor(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig, pdfText TextReader) (*Extractor, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	logger = logger.With(slog.String("component", "gemini_extractor"))

	cfg, err := validateConfig(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}

	prompt, err := loadPrompt(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", extraction.ErrInvalidConfig, err)
	}

	return newExtractor(logger, cfg, prompt, client.Models, pdfText), nil
}

func newExtractor(logger *slog.Logger, cfg config.LLMConfig, prompt *template.Template, models contentGenerator, pdfText TextReader) *Extractor {
	return &Extractor{
		logger:   logger,
		config:   cfg,
		prompt:   prompt,
		models:   models,
		pdfText:  pdfText,
		sleep:    sleepContext,
		jitterFn: func() float64 { return 0.5 + rand.Float64()*0.5 },
	}
}

func loadPrompt(path string) (*template.Template, error) {
	source := defaultPrompt
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				extraction.ErrInvalidConfig, path, err)
		}
		source = string(data)
	}
	tmpl, err := template.New("extraction").Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", extraction.ErrInvalidConfig, err)
	}
	return tmpl, nil
}

// Extract implements extraction.Extractor.
func (e *Extractor) Extract(ctx context.Context, upload extraction.Upload) ([]extraction.Pair, error) {
	if err := upload.Validate(); err != nil {
		return nil, err
	}

	content, err := e.buildContent(ctx, upload)
	if err != nil {
		return nil, err
	}

	raw, err := e.generateWithRetry(ctx, content)
	if err != nil {
		return nil, err
	}

	pairs := extraction.ParsePairs(raw)
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: %v", extraction.ErrExtractionFailed, ErrEmptyResponse)
	}

	e.logger.InfoContext(ctx, "extracted card pairs",
		slog.Int("pairs", len(pairs)),
		slog.String("mime_type", upload.MIMEType))
	return pairs, nil
}

func (e *Extractor) buildContent(ctx context.Context, upload extraction.Upload) (*genai.Content, error) {
	data := promptData{Filename: upload.Filename}
	var inline *genai.Blob

	switch {
	case upload.MIMEType == extraction.MIMEText:
		data.Text = string(upload.Data)
	case upload.MIMEType == extraction.MIMEPDF && e.pdfText != nil:
		text, err := e.pdfText.Text(upload.Data)
		if err != nil {
			e.logger.WarnContext(ctx, "failed to read PDF text layer, sending document inline",
				slog.String("error", err.Error()))
		}
		if len(strings.TrimSpace(text)) >= minTextLayer {
			data.Text = text
		} else {
			inline = &genai.Blob{MIMEType: upload.MIMEType, Data: upload.Data}
		}
	default:
		inline = &genai.Blob{MIMEType: upload.MIMEType, Data: upload.Data}
	}

	var prompt bytes.Buffer
	if err := e.prompt.Execute(&prompt, data); err != nil {
		return nil, fmt.Errorf("failed to execute prompt template: %w", err)
	}

	parts := []*genai.Part{{Text: prompt.String()}}
	if inline != nil {
		parts = append(parts, &genai.Part{InlineData: inline})
	}
	return &genai.Content{Role: "user", Parts: parts}, nil
}

// generateWithRetry calls the model up to MaxRetries+1 times. Safety blocks
// and empty replies are permanent; API errors are retried after
// baseDelay * 2^attempt scaled by a jitter factor in [0.5, 1).
func (e *Extractor) generateWithRetry(ctx context.Context, content *genai.Content) (string, error) {
	maxRetries := e.config.MaxRetries
	baseDelay := time.Duration(e.config.RetryDelaySeconds) * time.Second
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}

	for attempt := 0; ; attempt++ {
		e.logger.DebugContext(ctx, "calling Gemini",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxRetries+1))

		resp, err := e.models.GenerateContent(ctx, e.config.ModelName, []*genai.Content{content}, cfg)
		if err == nil {
			text, err := responseText(resp)
			if err != nil {
				e.logger.WarnContext(ctx, "permanent Gemini failure", slog.String("error", err.Error()))
				return "", err
			}
			return text, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %v", extraction.ErrTransientFailure, ctxErr)
		}

		e.logger.WarnContext(ctx, "Gemini call failed",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))

		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				extraction.ErrTransientFailure, maxRetries, err)
		}

		backoff := float64(baseDelay) * math.Pow(2, float64(attempt)) * e.jitterFn()
		if err := e.sleep(ctx, time.Duration(backoff)); err != nil {
			return "", fmt.Errorf("%w: %v", extraction.ErrTransientFailure, err)
		}
	}
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", extraction.ErrExtractionFailed)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", extraction.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: %v", extraction.ErrExtractionFailed, ErrEmptyResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: reply blocked by safety filters", extraction.ErrContentBlocked)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", fmt.Errorf("%w: %v", extraction.ErrExtractionFailed, ErrEmptyResponse)
	}
	return text.String(), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
