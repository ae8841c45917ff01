package stage

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/deep-research/internal/model"
)

// complexityRanges bounds the recommended query count per class.
var complexityRanges = map[string][2]int{
	model.ComplexitySimple:   {8, 10},
	model.ComplexityModerate: {12, 15},
	model.ComplexityComplex:  {16, 20},
}

// Adapter runs the typed generation stages over a Generator.
type Adapter struct {
	gen Generator
}

// NewAdapter creates an Adapter.
func NewAdapter(gen Generator) *Adapter {
	return &Adapter{gen: gen}
}

type queryGenPayload struct {
	model.SectionDetails
	Complexity          string `json:"complexity"`
	SearchStrategyNotes string `json:"search_strategy_notes"`
}

type researchPayload struct {
	model.SectionDetails
	Queries       []model.Query     `json:"queries"`
	SearchResults []model.QueryHits `json:"search_results"`
}

type analystPayload struct {
	model.SectionDetails
	Facts        []model.Fact        `json:"facts"`
	DomainsSeen  []string            `json:"domains_seen"`
	GapFlags     []string            `json:"gap_flags"`
	PageExcerpts []model.PageExcerpt `json:"page_excerpts,omitempty"`
}

type criticPayload struct {
	model.SectionDetails
	Facts       []model.Fact        `json:"facts"`
	DomainsSeen []string            `json:"domains_seen"`
	GapFlags    []string            `json:"gap_flags"`
	Analyst     model.AnalystOutput `json:"analyst_json"`
}

type editorPayload struct {
	model.SectionDetails
	Analyst     model.AnalystOutput `json:"analyst_json"`
	Facts       []model.Fact        `json:"facts"`
	DomainsSeen []string            `json:"domains_seen"`
	GapFlags    []string            `json:"gap_flags"`
	Critic      *model.CriticOutput `json:"critic_json,omitempty"`
}

// Complexity classifies the section and recommends a query count, clamped
// to the range of its class.
func (a *Adapter) Complexity(ctx context.Context, d model.SectionDetails) Result[model.ComplexityAssessment] {
	res := call[model.ComplexityAssessment](ctx, a, RoleComplexity, d.Descriptor.Section, d)
	if res.OK() {
		res.Value = ClampComplexity(res.Value)
	}
	return res
}

// QueryGen produces search queries for the section. d.RunParams.MaxQueries
// is the requested count.
func (a *Adapter) QueryGen(ctx context.Context, d model.SectionDetails, c model.ComplexityAssessment) Result[model.QueryPlan] {
	res := call[model.QueryPlan](ctx, a, RoleQueryGen, d.Descriptor.Section, queryGenPayload{
		SectionDetails:      d,
		Complexity:          c.Complexity,
		SearchStrategyNotes: c.SearchStrategyNotes,
	})
	if res.OK() {
		res.Value.Queries = compactQueries(res.Value.Queries)
	}
	return res
}

// Research extracts facts from the search results gathered for queries.
func (a *Adapter) Research(ctx context.Context, d model.SectionDetails, queries []model.Query, results []model.QueryHits) Result[model.ResearchResult] {
	res := call[model.ResearchResult](ctx, a, RoleResearcher, d.Descriptor.Section, researchPayload{
		SectionDetails: d,
		Queries:        nonNil(queries),
		SearchResults:  nonNil(results),
	})
	if res.OK() {
		res.Value = normalizeResearch(res.Value)
	}
	return res
}

// Analyze synthesizes the section's facts. pages are optional excerpts of
// cited source pages.
func (a *Adapter) Analyze(ctx context.Context, d model.SectionDetails, r model.ResearchResult, pages []model.PageExcerpt) Result[model.AnalystOutput] {
	res := call[model.AnalystOutput](ctx, a, RoleAnalyst, d.Descriptor.Section, analystPayload{
		SectionDetails: d,
		Facts:          nonNil(r.Facts),
		DomainsSeen:    nonNil(r.DomainsSeen),
		GapFlags:       nonNil(r.GapFlags),
		PageExcerpts:   pages,
	})
	if res.OK() {
		res.Value = normalizeAnalysis(res.Value, d.Descriptor.Section)
	}
	return res
}

// Critique assesses research quality and proposes gap queries.
func (a *Adapter) Critique(ctx context.Context, d model.SectionDetails, r model.ResearchResult, analysis model.AnalystOutput) Result[model.CriticOutput] {
	res := call[model.CriticOutput](ctx, a, RoleCritic, d.Descriptor.Section, criticPayload{
		SectionDetails: d,
		Facts:          nonNil(r.Facts),
		DomainsSeen:    nonNil(r.DomainsSeen),
		GapFlags:       nonNil(r.GapFlags),
		Analyst:        analysis,
	})
	if res.OK() {
		res.Value.GapQueries = compactQueries(res.Value.GapQueries)
		res.Value.QualityIssues = nonNil(res.Value.QualityIssues)
	}
	return res
}

// Edit turns the current analysis into the section's brief. critic may be
// nil when critique was skipped.
func (a *Adapter) Edit(ctx context.Context, d model.SectionDetails, r model.ResearchResult, analysis model.AnalystOutput, critic *model.CriticOutput) Result[model.EditorOutput] {
	res := call[model.EditorOutput](ctx, a, RoleEditor, d.Descriptor.Section, editorPayload{
		SectionDetails: d,
		Analyst:        analysis,
		Facts:          nonNil(r.Facts),
		DomainsSeen:    nonNil(r.DomainsSeen),
		GapFlags:       nonNil(r.GapFlags),
		Critic:         critic,
	})
	if res.OK() {
		e := res.Value
		if e.Section == "" {
			e.Section = d.Descriptor.Section
		}
		e.Highlights = nonNil(e.Highlights)
		e.FactsRef = nonNil(e.FactsRef)
		e.GapsNext = nonNil(e.GapsNext)
		e.Confidence = clamp01(e.Confidence)
		res.Value = e
	}
	return res
}

// Narrative asks the narrative writer for prose. The reply is returned
// verbatim.
func (a *Adapter) Narrative(ctx context.Context, payload any) (string, error) {
	return a.generate(ctx, RoleNarrative, "", payload)
}

func call[T any](ctx context.Context, a *Adapter, role Role, section string, payload any) Result[T] {
	text, err := a.generate(ctx, role, section, payload)
	if err != nil {
		return Fail[T](&StageError{Stage: role, Kind: KindCall, Err: err})
	}
	v, perr := parseReply[T](role, text)
	if perr != nil {
		zap.L().Warn("stage: reply is not valid JSON, using fallback",
			zap.String("stage", string(role)),
			zap.String("section", section),
			zap.String("reply", perr.Snippet),
			zap.Error(perr.Err),
		)
		return Fail[T](perr)
	}
	return OK(v)
}

func (a *Adapter) generate(ctx context.Context, role Role, section string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", eris.Wrapf(err, "stage: marshal %s payload", role)
	}

	start := time.Now()
	gen, err := a.gen.Generate(ctx, Request{
		Role:         role,
		Instructions: role.Instructions(),
		Payload:      string(body),
	})
	if err != nil {
		return "", err
	}
	zap.L().Debug("stage: generation complete",
		zap.String("stage", string(role)),
		zap.String("section", section),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		zap.Int("output_tokens", gen.Usage.OutputTokens),
	)
	return gen.Text, nil
}

// ClampComplexity normalizes the class name and bounds the recommended
// query count to the class range. Unknown classes become moderate.
func ClampComplexity(c model.ComplexityAssessment) model.ComplexityAssessment {
	class := strings.ToLower(strings.TrimSpace(c.Complexity))
	r, ok := complexityRanges[class]
	if !ok {
		class = model.ComplexityModerate
		r = complexityRanges[class]
	}
	c.Complexity = class
	c.RecommendedQueryCount = min(max(c.RecommendedQueryCount, r[0]), r[1])
	return c
}

// FallbackComplexity is used when classification fails.
func FallbackComplexity() model.ComplexityAssessment {
	return model.ComplexityAssessment{
		Complexity:            model.ComplexityModerate,
		Reasoning:             "complexity classification unavailable",
		RecommendedQueryCount: 12,
	}
}

// FallbackQueryPlan is used when query generation fails.
func FallbackQueryPlan() model.QueryPlan {
	return model.QueryPlan{Queries: []model.Query{}}
}

// FallbackResearch is used when fact extraction fails.
func FallbackResearch() model.ResearchResult {
	return model.ResearchResult{Facts: []model.Fact{}, DomainsSeen: []string{}, GapFlags: []string{}}
}

// FallbackAnalysis is used when analysis fails.
func FallbackAnalysis(section string) model.AnalystOutput {
	return model.AnalystOutput{Section: section, Bullets: []model.EvidenceBullet{}, GapsNext: []string{}}
}

// FallbackCritic is used when critique fails. It never triggers iteration.
func FallbackCritic() model.CriticOutput {
	return model.CriticOutput{
		NeedsIteration:  false,
		IterationReason: "critique unavailable",
		QualityIssues:   []string{},
		GapQueries:      []model.Query{},
	}
}

// FallbackEditor is used when editing fails.
func FallbackEditor(section string) model.EditorOutput {
	return model.EditorOutput{
		Section:    section,
		Highlights: []string{},
		FactsRef:   []string{},
		GapsNext:   []string{},
	}
}

func normalizeResearch(r model.ResearchResult) model.ResearchResult {
	r.Facts = nonNil(r.Facts)
	r.DomainsSeen = nonNil(r.DomainsSeen)
	r.GapFlags = nonNil(r.GapFlags)
	for i := range r.Facts {
		r.Facts[i].Confidence = clamp01(r.Facts[i].Confidence)
		r.Facts[i].Tags = nonNil(r.Facts[i].Tags)
	}
	return r
}

func normalizeAnalysis(a model.AnalystOutput, section string) model.AnalystOutput {
	if a.Section == "" {
		a.Section = section
	}
	a.Bullets = nonNil(a.Bullets)
	a.GapsNext = nonNil(a.GapsNext)
	return a
}

func compactQueries(qs []model.Query) []model.Query {
	out := make([]model.Query, 0, len(qs))
	for _, q := range qs {
		q.Q = strings.TrimSpace(q.Q)
		if q.Q != "" {
			out = append(out, q)
		}
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func clamp01(f float64) float64 {
	return min(max(f, 0), 1)
}
