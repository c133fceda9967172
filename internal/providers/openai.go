package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	OpenAIName = "openai"

	DefaultModel     = "mbart_pos"
	DefaultBatchSize = 16

	promptKeyAnnotate = "annotate_batch"
	promptKeyRepair   = "annotate_repair"
)

const annotateSystemPrompt = `You annotate text fragments. For every fragment, return the same text with each entity wrapped as [NAME*]entity text[*NAME], where NAME is an uppercase label. Do not change any other text.

Reply with ONLY a JSON object of the form {"outputs": ["...", "..."]} containing exactly one annotated string per input fragment, in input order.`

// OpenAIConfig holds configuration for an OpenAI-compatible annotation
// server.
type OpenAIConfig struct {
	APIKey            string
	BaseURL           string        // Server hosting the tagging model
	Model             string        // Default "mbart_pos"
	BatchSize         int           // Chunks per request, default 16
	MaxRetries        int           // Retries per request, default 3
	RetryDelay        time.Duration // Base backoff delay, default 2s
	RequestsPerMinute int           // 0 = unlimited
	Timeout           time.Duration // HTTP timeout, default 300s
	HTTPClient        *http.Client  // Optional (tests)
	Logger            *slog.Logger
	Observer          CallObserver // Optional call trace
}

// OpenAIAnnotator annotates chunks through the chat completions API of an
// OpenAI-compatible server. Chunks are sent in batches; each reply must be
// a JSON object validated against batchOutputSchema.
type OpenAIAnnotator struct {
	apiKey      string
	baseURL     string
	model       string
	batchSize   int
	maxRetries  int
	retryDelay  time.Duration
	temperature float64

	client   openai.Client
	schema   *jsonschema.Schema
	limiter  *RateLimiter
	logger   *slog.Logger
	observer CallObserver
}

// NewOpenAIAnnotator creates an annotator.
func NewOpenAIAnnotator(cfg OpenAIConfig) (*OpenAIAnnotator, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	schema, err := compileSchema(batchOutputSchema)
	if err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		// Self-hosted servers usually ignore the key but the SDK sends one.
		apiKey = "unused"
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIAnnotator{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		batchSize:  cfg.BatchSize,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		client:     openai.NewClient(opts...),
		schema:     schema,
		limiter:    NewRateLimiter(cfg.RequestsPerMinute),
		logger:     cfg.Logger,
		observer:   cfg.Observer,
	}, nil
}

// Name returns the provider identifier.
func (a *OpenAIAnnotator) Name() string {
	return OpenAIName
}

// Model returns the configured model.
func (a *OpenAIAnnotator) Model() string {
	return a.model
}

// BatchSize returns the number of chunks per request.
func (a *OpenAIAnnotator) BatchSize() int {
	return a.batchSize
}

// Annotate sends chunks in batches and concatenates the outputs in order.
// The first failing batch aborts the call.
func (a *OpenAIAnnotator) Annotate(ctx context.Context, chunks []string) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	out := make([]string, 0, len(chunks))
	for start := 0; start < len(chunks); start += a.batchSize {
		end := min(start+a.batchSize, len(chunks))
		batch, err := a.annotateBatch(ctx, chunks[start:end])
		if err != nil {
			return nil, fmt.Errorf("annotate chunks %d-%d: %w", start, end-1, err)
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (a *OpenAIAnnotator) annotateBatch(ctx context.Context, chunks []string) ([]string, error) {
	input, err := json.Marshal(map[string][]string{"inputs": chunks})
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(annotateSystemPrompt),
		openai.UserMessage(string(input)),
	}

	promptKey := promptKeyAnnotate
	var lastErr error
	for attempt := 0; attempt <= maxStructuredRepairAttempts; attempt++ {
		content, err := a.complete(ctx, messages, promptKey)
		if err != nil {
			return nil, err
		}

		outputs, err := decodeBatchOutput(a.schema, content, len(chunks))
		if err == nil {
			return outputs, nil
		}
		lastErr = err
		a.logger.Warn("annotation reply rejected",
			"attempt", attempt+1,
			"chunks", len(chunks),
			"error", err)

		messages = append(messages,
			openai.AssistantMessage(content),
			openai.UserMessage(structuredRepairPrompt(batchOutputSchema, len(chunks), content, err)),
		)
		promptKey = promptKeyRepair
	}

	return nil, fmt.Errorf("annotation reply invalid after %d repair attempts: %w", maxStructuredRepairAttempts, lastErr)
}

// complete performs one chat completion with rate limiting and retries.
func (a *OpenAIAnnotator) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, promptKey string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       a.model,
		Temperature: openai.Float(a.temperature),
	}

	requestID := uuid.New().String()
	attempts := 0
	var content string

	err := retry.Do(
		func() error {
			if err := a.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			attempts++
			start := time.Now()

			resp, err := a.client.Chat.Completions.New(ctx, params)
			result := &ChatResult{
				RequestID:     requestID,
				PromptKey:     promptKey,
				Provider:      OpenAIName,
				ModelUsed:     a.model,
				Temperature:   &a.temperature,
				ExecutionTime: time.Since(start),
				Attempts:      attempts,
			}

			if err != nil {
				err = mapOpenAIError(err)
				if rle, ok := IsRateLimitError(err); ok {
					a.limiter.Record429(rle.RetryAfter)
				}
				result.ErrorMessage = err.Error()
				a.observe(result)
				return err
			}
			if len(resp.Choices) == 0 {
				err := errors.New("openai returned no choices")
				result.ErrorMessage = err.Error()
				a.observe(result)
				return err
			}

			content = resp.Choices[0].Message.Content
			result.Success = true
			result.Content = content
			if resp.Model != "" {
				result.ModelUsed = resp.Model
			}
			result.PromptTokens = int(resp.Usage.PromptTokens)
			result.CompletionTokens = int(resp.Usage.CompletionTokens)
			result.TotalTokens = int(resp.Usage.TotalTokens)
			a.observe(result)
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(a.maxRetries)+1),
		retry.Delay(a.retryDelay),
		retry.DelayType(retryDelay),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			a.logger.Debug("retrying annotation request",
				"request_id", requestID,
				"attempt", n+1,
				"error", err)
		}),
	)
	if err != nil {
		return "", err
	}
	return content, nil
}

func (a *OpenAIAnnotator) observe(result *ChatResult) {
	if a.observer != nil {
		a.observer(result)
	}
}

// retryDelay honours a server Retry-After and backs off exponentially
// otherwise.
func retryDelay(n uint, err error, config *retry.Config) time.Duration {
	if rle, ok := IsRateLimitError(err); ok && rle.RetryAfter > 0 {
		return rle.RetryAfter
	}
	return retry.BackOffDelay(n, err, config)
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			retryAfter := time.Duration(0)
			if apiErr.Response != nil {
				retryAfter = parseRetryAfter(apiErr.Response.Header.Get("Retry-After"))
			}
			return &RateLimitError{
				Message:    fmt.Sprintf("OpenAI rate limited: %s", apiErr.Message),
				RetryAfter: retryAfter,
				StatusCode: apiErr.StatusCode,
			}
		}
		return &APIError{
			Provider:   "OpenAI",
			StatusCode: apiErr.StatusCode,
			Message:    strings.TrimSpace(apiErr.Message),
		}
	}
	return err
}

var _ Annotator = (*OpenAIAnnotator)(nil)
