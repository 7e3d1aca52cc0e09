package llm

import (
	"context"
	"errors"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/jobsift/enrich-cli/internal/resilience"
)

const defaultAnthropicMaxTokens = 4096

// anthropicClient adapts the official Anthropic SDK to the Client interface,
// selected with llm.provider=anthropic.
type anthropicClient struct {
	client sdk.Client
	model  string
}

// NewAnthropic creates a Client backed by the Anthropic Messages API.
func NewAnthropic(apiKey, model string) Client {
	return &anthropicClient{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *anthropicClient) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	// The Messages API has no JSON response mode; surface the rejection the
	// same way an HTTP provider would so the caller falls back to plain text.
	if req.ResponseFormat != nil {
		return nil, resilience.NewUnsupportedFeatureError(
			eris.New("llm: anthropic provider does not support response_format"),
			"response_format",
		)
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := int64(defaultAnthropicMaxTokens)
	if req.MaxTokens != nil {
		maxTokens = int64(*req.MaxTokens)
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: maxTokens,
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	for _, m := range req.Messages {
		block := sdk.NewTextBlock(m.Content)
		switch m.Role {
		case "system":
			params.System = append(params.System, sdk.TextBlockParam{Text: m.Content})
		case "assistant":
			params.Messages = append(params.Messages, sdk.NewAssistantMessage(block))
		default:
			params.Messages = append(params.Messages, sdk.NewUserMessage(block))
		}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyAnthropicError(err)
	}

	return fromAnthropicMessage(msg), nil
}

// classifyAnthropicError maps SDK errors onto the resilience taxonomy.
func classifyAnthropicError(err error) error {
	wrapped := eris.Wrap(err, "llm: anthropic create message")

	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
			return resilience.NewAuthError(wrapped, apiErr.StatusCode)
		case resilience.IsTransientHTTPStatus(apiErr.StatusCode):
			return resilience.NewTransientError(wrapped, apiErr.StatusCode)
		}
	}
	return wrapped
}

// fromAnthropicMessage flattens a Messages API response into the
// chat-completions shape the pipeline consumes.
func fromAnthropicMessage(msg *sdk.Message) *ChatCompletionResponse {
	var text string
	for _, b := range msg.Content {
		if b.Type == "text" {
			text += b.Text
		}
	}

	return &ChatCompletionResponse{
		ID: msg.ID,
		Choices: []Choice{
			{Index: 0, Message: Message{Role: "assistant", Content: text}},
		},
		Usage: Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
		},
	}
}
