package llm

import (
	"context"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobsift/enrich-cli/internal/resilience"
)

func TestAnthropic_RejectsResponseFormat(t *testing.T) {
	client := NewAnthropic("test-key", "claude-haiku-4-5-20251001")

	_, err := client.ChatCompletion(context.Background(), ChatCompletionRequest{
		Messages:       []Message{{Role: "user", Content: "hi"}},
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	})

	require.Error(t, err)
	assert.True(t, resilience.IsUnsupportedFeature(err))
}

func TestFromAnthropicMessage(t *testing.T) {
	msg := &sdk.Message{
		ID: "msg-1",
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: "part one "},
			{Type: "text", Text: "part two"},
		},
		Usage: sdk.Usage{InputTokens: 100, OutputTokens: 25},
	}

	resp := fromAnthropicMessage(msg)

	assert.Equal(t, "msg-1", resp.ID)
	assert.Equal(t, "part one part two", resp.Text())
	assert.Equal(t, 100, resp.Usage.PromptTokens)
	assert.Equal(t, 25, resp.Usage.CompletionTokens)
}
