package stage

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/deep-research/internal/cost"
	"github.com/sells-group/deep-research/internal/model"
	"github.com/sells-group/deep-research/internal/resilience"
	"github.com/sells-group/deep-research/pkg/anthropic"
	"github.com/sells-group/deep-research/pkg/openai"
)

// Request is one generation call: a role's fixed instructions plus a
// JSON-serialized payload sent as the single user message.
type Request struct {
	Role         Role
	Instructions string
	Payload      string
}

// Generation is the reply of a generation call.
type Generation struct {
	Text  string
	Model string
	Usage model.TokenUsage
}

// Generator is the external text-generation capability.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Generation, error)
}

// AnthropicGenerator generates with the Anthropic Messages API. Role
// instructions are sent as a cached system block.
type AnthropicGenerator struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature *float64
}

// NewAnthropicGenerator creates an AnthropicGenerator.
func NewAnthropicGenerator(client anthropic.Client, modelID string, maxTokens int64, temperature float64) *AnthropicGenerator {
	return &AnthropicGenerator{
		client:      client,
		model:       modelID,
		maxTokens:   maxTokens,
		temperature: &temperature,
	}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (*Generation, error) {
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		System:      anthropic.BuildCachedSystemBlocks(req.Instructions),
		Messages:    []anthropic.Message{{Role: "user", Content: req.Payload}},
		Temperature: g.temperature,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "stage: %s generation", req.Role)
	}
	resp.Usage.LogCost(g.model, string(req.Role))

	return &Generation{
		Text:  resp.Text(),
		Model: g.model,
		Usage: model.TokenUsage{
			InputTokens:         int(resp.Usage.InputTokens),
			OutputTokens:        int(resp.Usage.OutputTokens),
			CacheCreationTokens: int(resp.Usage.CacheCreationInputTokens),
			CacheReadTokens:     int(resp.Usage.CacheReadInputTokens),
		},
	}, nil
}

// OpenAIGenerator generates with an OpenAI-compatible chat endpoint.
type OpenAIGenerator struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIGenerator creates an OpenAIGenerator.
func NewOpenAIGenerator(client openai.Client, modelID string, maxTokens int, temperature float64) *OpenAIGenerator {
	return &OpenAIGenerator{
		client:      client,
		model:       modelID,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*Generation, error) {
	resp, err := g.client.Complete(ctx, openai.CompletionRequest{
		Model:       g.model,
		System:      req.Instructions,
		User:        req.Payload,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		JSON:        req.Role.WantsJSON(),
	})
	if err != nil {
		return nil, eris.Wrapf(err, "stage: %s generation", req.Role)
	}
	resp.Usage.LogCost(g.model, string(req.Role))

	return &Generation{
		Text:  resp.Text,
		Model: g.model,
		Usage: model.TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

// ResilientGenerator wraps a Generator with the provider guard (throttle,
// circuit breaker, retries) and records usage on the run's cost tracker.
type ResilientGenerator struct {
	next    Generator
	guard   *resilience.Guard
	tracker *cost.Tracker
}

// NewResilientGenerator wraps next. guard and tracker may be nil.
func NewResilientGenerator(next Generator, guard *resilience.Guard, tracker *cost.Tracker) *ResilientGenerator {
	return &ResilientGenerator{next: next, guard: guard, tracker: tracker}
}

func (g *ResilientGenerator) Generate(ctx context.Context, req Request) (*Generation, error) {
	gen, err := resilience.Call(ctx, g.guard, func(ctx context.Context) (*Generation, error) {
		return g.next.Generate(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	g.tracker.RecordGeneration(string(req.Role), gen.Model, gen.Usage)
	return gen, nil
}
