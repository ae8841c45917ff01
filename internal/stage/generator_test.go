package stage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/deep-research/internal/cost"
	"github.com/sells-group/deep-research/internal/model"
	"github.com/sells-group/deep-research/internal/resilience"
	"github.com/sells-group/deep-research/pkg/anthropic"
	"github.com/sells-group/deep-research/pkg/openai"
)

func TestAnthropicGenerator_Generate(t *testing.T) {
	client := &mockAnthropicClient{}
	g := NewAnthropicGenerator(client, "claude-sonnet-4-5-20250929", 4096, 0.2)

	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-sonnet-4-5-20250929" &&
			req.MaxTokens == 4096 &&
			len(req.System) == 1 &&
			req.System[0].Text == "instructions" &&
			req.System[0].CacheControl != nil &&
			req.System[0].CacheControl.TTL == "1h" &&
			len(req.Messages) == 1 &&
			req.Messages[0].Role == "user" &&
			req.Messages[0].Content == `{"a":1}` &&
			req.Temperature != nil && *req.Temperature == 0.2
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: `{"ok":true}`}},
		Usage: anthropic.TokenUsage{
			InputTokens:          100,
			OutputTokens:         20,
			CacheReadInputTokens: 900,
		},
	}, nil)

	gen, err := g.Generate(context.Background(), Request{Role: RoleCritic, Instructions: "instructions", Payload: `{"a":1}`})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, gen.Text)
	assert.Equal(t, "claude-sonnet-4-5-20250929", gen.Model)
	assert.Equal(t, model.TokenUsage{InputTokens: 100, OutputTokens: 20, CacheReadTokens: 900}, gen.Usage)
	client.AssertExpectations(t)
}

func TestAnthropicGenerator_Error(t *testing.T) {
	client := &mockAnthropicClient{}
	g := NewAnthropicGenerator(client, "m", 10, 0)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, &anthropic.APIError{StatusCode: 529, Err: errors.New("overloaded")})

	_, err := g.Generate(context.Background(), Request{Role: RoleEditor})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage: editor generation")
	assert.True(t, resilience.IsTransient(err))
}

func TestOpenAIGenerator_JSONModeByRole(t *testing.T) {
	client := &mockOpenAIClient{}
	g := NewOpenAIGenerator(client, "gpt-4o-mini", 2048, 0.3)

	client.On("Complete", mock.Anything, mock.MatchedBy(func(req openai.CompletionRequest) bool {
		return req.JSON && req.System == "analyst instructions" && req.User == "{}" && req.MaxTokens == 2048
	})).Return(&openai.CompletionResponse{Text: `{"bullets":[]}`, Usage: openai.Usage{PromptTokens: 50, CompletionTokens: 5}}, nil).Once()
	client.On("Complete", mock.Anything, mock.MatchedBy(func(req openai.CompletionRequest) bool {
		return !req.JSON
	})).Return(&openai.CompletionResponse{Text: "# Report"}, nil).Once()

	gen, err := g.Generate(context.Background(), Request{Role: RoleAnalyst, Instructions: "analyst instructions", Payload: "{}"})
	require.NoError(t, err)
	assert.Equal(t, model.TokenUsage{InputTokens: 50, OutputTokens: 5}, gen.Usage)

	gen, err = g.Generate(context.Background(), Request{Role: RoleNarrative, Payload: "{}"})
	require.NoError(t, err)
	assert.Equal(t, "# Report", gen.Text)
	client.AssertExpectations(t)
}

func TestResilientGenerator_RetriesAndTracks(t *testing.T) {
	next := &mockGenerator{}
	next.On("Generate", mock.Anything, mock.Anything).
		Return(nil, &anthropic.APIError{StatusCode: 429, Err: errors.New("rate limited")}).Once()
	next.On("Generate", mock.Anything, mock.Anything).
		Return(&Generation{Text: "{}", Model: "claude-sonnet-4-5-20250929", Usage: model.TokenUsage{InputTokens: 1000, OutputTokens: 100}}, nil).Once()

	guard := resilience.NewGuard("anthropic", resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}, nil, 0, 0)
	tracker := cost.NewTracker(nil)
	g := NewResilientGenerator(next, guard, tracker)

	gen, err := g.Generate(context.Background(), Request{Role: RoleResearcher})
	require.NoError(t, err)
	assert.Equal(t, "{}", gen.Text)
	next.AssertNumberOfCalls(t, "Generate", 2)

	s := tracker.Summary()
	assert.Equal(t, 1, s.Calls)
	assert.Equal(t, 1000, s.ByRole["researcher"].InputTokens)
	assert.Greater(t, s.EstimatedCostUSD, 0.0)
}

func TestResilientGenerator_PermanentError(t *testing.T) {
	next := &mockGenerator{}
	next.On("Generate", mock.Anything, mock.Anything).
		Return(nil, &anthropic.APIError{StatusCode: 400, Err: errors.New("bad request")})

	g := NewResilientGenerator(next, resilience.NewGuard("anthropic", resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	}, nil, 0, 0), nil)

	_, err := g.Generate(context.Background(), Request{Role: RoleCritic})
	require.Error(t, err)
	next.AssertNumberOfCalls(t, "Generate", 1)
}
