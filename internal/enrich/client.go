package enrich

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobsift/enrich-cli/internal/resilience"
	"github.com/jobsift/enrich-cli/pkg/llm"
)

// ModelTier selects request shaping for a model family. Reasoning models get
// a larger token budget, a longer timeout, and no temperature parameter.
type ModelTier int

const (
	TierStandard ModelTier = iota
	TierReasoning
)

const (
	standardTemperature    = 0.3
	standardTokensPerUnit  = 500
	standardTokenCeiling   = 4000
	standardCallTimeout    = 60 * time.Second
	reasoningTokensPerUnit = 4000
	reasoningTokenCeiling  = 16000
	reasoningCallTimeout   = 180 * time.Second
)

var (
	reasoningPrefixes = []string{"o1", "o3", "o4", "gpt-5"}
	reasoningSuffixes = []string{"-reasoning", "-thinking"}
)

// ClassifyModel maps a model name onto its tier.
func ClassifyModel(name string) ModelTier {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, p := range reasoningPrefixes {
		if strings.HasPrefix(n, p) {
			return TierReasoning
		}
	}
	for _, s := range reasoningSuffixes {
		if strings.HasSuffix(n, s) {
			return TierReasoning
		}
	}
	return TierStandard
}

// MaxTokens returns the response token budget for a batch of n units,
// scaled per unit and capped to bound response cost.
func (t ModelTier) MaxTokens(n int) int {
	if t == TierReasoning {
		return min(reasoningTokensPerUnit*n, reasoningTokenCeiling)
	}
	return min(standardTokensPerUnit*n, standardTokenCeiling)
}

// Timeout returns the per-call deadline for the tier.
func (t ModelTier) Timeout() time.Duration {
	if t == TierReasoning {
		return reasoningCallTimeout
	}
	return standardCallTimeout
}

// EnrichmentClient wraps a provider transport with tier-aware request
// shaping, per-call timeouts, retry with backoff, and the structured-output
// fallback. It holds no state between calls.
type EnrichmentClient struct {
	provider   llm.Client
	model      string
	structured bool
	retry      resilience.RetryConfig
}

// ClientOption customizes an EnrichmentClient.
type ClientOption func(*EnrichmentClient)

// WithStructuredOutput toggles requesting JSON mode from the provider.
func WithStructuredOutput(enabled bool) ClientOption {
	return func(c *EnrichmentClient) { c.structured = enabled }
}

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(cfg resilience.RetryConfig) ClientOption {
	return func(c *EnrichmentClient) { c.retry = cfg }
}

// NewEnrichmentClient creates a client for the given provider and model.
func NewEnrichmentClient(provider llm.Client, model string, opts ...ClientOption) *EnrichmentClient {
	c := &EnrichmentClient{
		provider:   provider,
		model:      model,
		structured: true,
		retry: resilience.RetryConfig{
			MaxAttempts: 4,
			BaseDelay:   time.Second,
			OnRetry:     resilience.RetryLogger("llm", "chat completion"),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call sends one batch prompt and returns the raw response text.
//
// Failure precedence: a structured-output rejection clears the JSON-mode flag
// and reruns the full attempt budget once; auth errors return immediately;
// transient failures (including per-call timeouts) retry with exponential
// backoff until the budget is exhausted.
func (c *EnrichmentClient) Call(ctx context.Context, prompt string, batchLen int) (string, error) {
	text, err := c.callWithRetries(ctx, prompt, batchLen, c.structured)
	if err != nil && c.structured && resilience.IsUnsupportedFeature(err) {
		zap.L().Warn("provider rejected structured output, falling back to plain text",
			zap.String("model", c.model),
		)
		text, err = c.callWithRetries(ctx, prompt, batchLen, false)
	}
	return text, err
}

func (c *EnrichmentClient) callWithRetries(ctx context.Context, prompt string, n int, structured bool) (string, error) {
	tier := ClassifyModel(c.model)

	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, tier.Timeout())
		defer cancel()

		req := llm.ChatCompletionRequest{
			Model: c.model,
			Messages: []llm.Message{
				{Role: "system", Content: systemInstruction},
				{Role: "user", Content: prompt},
			},
			MaxTokens: intPtr(tier.MaxTokens(n)),
		}
		if tier == TierStandard {
			req.Temperature = float64Ptr(standardTemperature)
		}
		if structured {
			req.ResponseFormat = &llm.ResponseFormat{Type: "json_object"}
		}

		resp, err := c.provider.ChatCompletion(callCtx, req)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	})
}

func intPtr(v int) *int             { return &v }
func float64Ptr(v float64) *float64 { return &v }
