// Package cost prices and accumulates provider usage for a run.
package cost

import (
	"sync"

	"github.com/sells-group/deep-research/internal/model"
)

// Rates holds per-provider pricing configuration.
type Rates struct {
	Models map[string]ModelRate `yaml:"models" mapstructure:"models"`
	Serper SerperRate           `yaml:"serper" mapstructure:"serper"`
	Jina   JinaRate             `yaml:"jina" mapstructure:"jina"`
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// SerperRate holds Serper pricing.
type SerperRate struct {
	PerQuery float64 `yaml:"per_query" mapstructure:"per_query"`
}

// JinaRate holds Jina Reader pricing.
type JinaRate struct {
	PerMTok float64 `yaml:"per_mtok" mapstructure:"per_mtok"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Generation prices one text-generation call. Unknown models cost 0.
func (c *Calculator) Generation(modelID string, u model.TokenUsage) float64 {
	rate, ok := c.rates.Models[modelID]
	if !ok {
		return 0
	}
	in := (float64(u.InputTokens) / 1e6) * rate.Input
	out := (float64(u.OutputTokens) / 1e6) * rate.Output
	cw := (float64(u.CacheCreationTokens) / 1e6) * rate.Input * rate.CacheWriteMul
	cr := (float64(u.CacheReadTokens) / 1e6) * rate.Input * rate.CacheReadMul
	return in + out + cw + cr
}

// Searches prices n search queries.
func (c *Calculator) Searches(n int) float64 {
	return float64(n) * c.rates.Serper.PerQuery
}

// Jina prices Jina Reader token usage.
func (c *Calculator) Jina(tokens int) float64 {
	return (float64(tokens) / 1e6) * c.rates.Jina.PerMTok
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Models: map[string]ModelRate{
			"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00, CacheWriteMul: 1.25, CacheReadMul: 0.1},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00, CacheWriteMul: 1.25, CacheReadMul: 0.1},
			"claude-opus-4-6":            {Input: 15.00, Output: 75.00, CacheWriteMul: 1.25, CacheReadMul: 0.1},
			"gpt-4o-mini":                {Input: 0.15, Output: 0.60},
			"gpt-4o":                     {Input: 2.50, Output: 10.00},
		},
		Serper: SerperRate{PerQuery: 0.001},
		Jina:   JinaRate{PerMTok: 0.02},
	}
}

// Summary is a snapshot of a Tracker.
type Summary struct {
	Usage            model.TokenUsage            `json:"usage"`
	ByRole           map[string]model.TokenUsage `json:"by_role"`
	Calls            int                         `json:"calls"`
	Searches         int                         `json:"searches"`
	JinaTokens       int                         `json:"jina_tokens"`
	EstimatedCostUSD float64                     `json:"estimated_cost_usd"`
}

// Tracker accumulates usage across the concurrent sections of one run.
type Tracker struct {
	calc *Calculator

	mu      sync.Mutex
	summary Summary
}

// NewTracker creates a Tracker pricing usage with calc. A nil calc prices
// with DefaultRates.
func NewTracker(calc *Calculator) *Tracker {
	if calc == nil {
		calc = NewCalculator(DefaultRates())
	}
	return &Tracker{
		calc:    calc,
		summary: Summary{ByRole: make(map[string]model.TokenUsage)},
	}
}

// RecordGeneration adds one generation call. A nil Tracker ignores it.
func (t *Tracker) RecordGeneration(role, modelID string, u model.TokenUsage) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.summary.Calls++
	t.summary.Usage.Add(u)
	r := t.summary.ByRole[role]
	r.Add(u)
	t.summary.ByRole[role] = r
	t.summary.EstimatedCostUSD += t.calc.Generation(modelID, u)
}

// RecordSearches adds n search queries.
func (t *Tracker) RecordSearches(n int) {
	if t == nil || n <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary.Searches += n
	t.summary.EstimatedCostUSD += t.calc.Searches(n)
}

// RecordJina adds Jina Reader tokens.
func (t *Tracker) RecordJina(tokens int) {
	if t == nil || tokens <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary.JinaTokens += tokens
	t.summary.EstimatedCostUSD += t.calc.Jina(tokens)
}

// Summary returns a copy of the accumulated usage.
func (t *Tracker) Summary() Summary {
	if t == nil {
		return Summary{ByRole: map[string]model.TokenUsage{}}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.summary
	out.ByRole = make(map[string]model.TokenUsage, len(t.summary.ByRole))
	for k, v := range t.summary.ByRole {
		out.ByRole[k] = v
	}
	return out
}
