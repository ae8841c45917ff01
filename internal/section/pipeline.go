// Package section runs the research pipeline for one section of a
// framework: complexity, query generation, research, analysis, an optional
// critique with at most one gap-filling iteration, and editing.
package section

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/deep-research/internal/model"
	"github.com/sells-group/deep-research/internal/stage"
)

// DefaultMaxGapQueries bounds the gap queries run in the iteration round.
const DefaultMaxGapQueries = 5

// Stages are the generation stages a pipeline drives. *stage.Adapter
// implements it.
type Stages interface {
	Complexity(ctx context.Context, d model.SectionDetails) stage.Result[model.ComplexityAssessment]
	QueryGen(ctx context.Context, d model.SectionDetails, c model.ComplexityAssessment) stage.Result[model.QueryPlan]
	Research(ctx context.Context, d model.SectionDetails, queries []model.Query, results []model.QueryHits) stage.Result[model.ResearchResult]
	Analyze(ctx context.Context, d model.SectionDetails, r model.ResearchResult, pages []model.PageExcerpt) stage.Result[model.AnalystOutput]
	Critique(ctx context.Context, d model.SectionDetails, r model.ResearchResult, a model.AnalystOutput) stage.Result[model.CriticOutput]
	Edit(ctx context.Context, d model.SectionDetails, r model.ResearchResult, a model.AnalystOutput, c *model.CriticOutput) stage.Result[model.EditorOutput]
}

// Evidence gathers search results and page excerpts. *research.Gatherer
// implements it.
type Evidence interface {
	Search(ctx context.Context, queries []model.Query, p model.RunParams) []model.QueryHits
	ReadSources(ctx context.Context, facts []model.Fact) []model.PageExcerpt
}

// Options configures a Pipeline.
type Options struct {
	// EnableCritic runs the critique stage and allows one iteration round.
	EnableCritic bool
	// MaxGapQueries caps the critic's gap queries. Zero uses
	// DefaultMaxGapQueries, which is also the upper bound.
	MaxGapQueries int
	// Progress receives human-readable status lines. May be nil.
	Progress func(string)
}

// DefaultOptions returns options with the critic enabled.
func DefaultOptions() Options {
	return Options{EnableCritic: true, MaxGapQueries: DefaultMaxGapQueries}
}

// Pipeline runs one section. It is safe to reuse across sections but a
// single Run is strictly sequential.
type Pipeline struct {
	stages   Stages
	evidence Evidence
	opts     Options
}

// New creates a Pipeline. evidence may be nil, in which case stages run
// without search results or page excerpts.
func New(stages Stages, evidence Evidence, opts Options) *Pipeline {
	if opts.MaxGapQueries <= 0 {
		opts.MaxGapQueries = DefaultMaxGapQueries
	}
	opts.MaxGapQueries = min(opts.MaxGapQueries, DefaultMaxGapQueries)
	return &Pipeline{stages: stages, evidence: evidence, opts: opts}
}

// Run executes the pipeline for d. Stage failures fall back to the stage
// default and never abort the section; Run only returns an error when ctx
// is done before a stage starts.
func (p *Pipeline) Run(ctx context.Context, d model.SectionDetails) (*model.SectionResult, error) {
	name := d.Descriptor.Section
	log := zap.L().With(zap.String("framework", d.Framework), zap.String("section", name))
	start := time.Now()
	var art model.SectionArtifacts

	// Complexity
	if err := checkpoint(ctx, name, stage.RoleComplexity); err != nil {
		return nil, err
	}
	art.Complexity = valueOr(log, p.stages.Complexity(ctx, d), stage.FallbackComplexity())
	d.RunParams = d.RunParams.WithMaxQueries(art.Complexity.RecommendedQueryCount)
	p.progress("🧭 %s: complexity %s, planning %d queries", name, art.Complexity.Complexity, art.Complexity.RecommendedQueryCount)

	// QueryGen
	if err := checkpoint(ctx, name, stage.RoleQueryGen); err != nil {
		return nil, err
	}
	art.Queries = valueOr(log, p.stages.QueryGen(ctx, d, art.Complexity), stage.FallbackQueryPlan())
	p.progress("🔎 %s: %d queries generated, researching", name, len(art.Queries.Queries))

	// Research
	if err := checkpoint(ctx, name, stage.RoleResearcher); err != nil {
		return nil, err
	}
	art.Research = p.research(ctx, log, d, art.Queries.Queries)
	art.FactURLs = make(map[string][]string)
	addFactURLs(art.FactURLs, art.Research.Facts)
	p.progress("📚 %s: %d facts from %d domains, analyzing", name, len(art.Research.Facts), len(art.Research.DomainsSeen))

	// Analyze
	if err := checkpoint(ctx, name, stage.RoleAnalyst); err != nil {
		return nil, err
	}
	art.Analysis = p.analyze(ctx, log, d, art.Research)

	// Critique and at most one iteration round.
	if p.opts.EnableCritic {
		if err := checkpoint(ctx, name, stage.RoleCritic); err != nil {
			return nil, err
		}
		critic := valueOr(log, p.stages.Critique(ctx, d, art.Research, art.Analysis), stage.FallbackCritic())
		art.Critic = &critic

		if critic.NeedsIteration && len(critic.GapQueries) > 0 {
			gaps := critic.GapQueries
			if len(gaps) > p.opts.MaxGapQueries {
				gaps = gaps[:p.opts.MaxGapQueries]
			}
			p.progress("🔁 %s: iterating with %d gap queries (%s)", name, len(gaps), critic.IterationReason)

			if err := checkpoint(ctx, name, stage.RoleResearcher); err != nil {
				return nil, err
			}
			gap := p.research(ctx, log, d, gaps)
			art.GapResearch = &gap

			merged, added := MergeFacts(art.Research, gap)
			art.Research = merged
			addFactURLs(art.FactURLs, added)
			art.Iterated = true

			if err := checkpoint(ctx, name, stage.RoleAnalyst); err != nil {
				return nil, err
			}
			art.Analysis = p.analyze(ctx, log, d, art.Research)
			p.progress("🧩 %s: iteration added %d new facts", name, len(added))
		}
	}

	// Edit
	if err := checkpoint(ctx, name, stage.RoleEditor); err != nil {
		return nil, err
	}
	p.progress("✍️ %s: editor finalizing brief", name)
	editor := valueOr(log, p.stages.Edit(ctx, d, art.Research, art.Analysis, art.Critic), stage.FallbackEditor(name))

	brief := model.SectionBrief{
		Section:    name,
		Highlights: editor.Highlights,
		FactsRef:   ResolveFactsRef(editor.FactsRef, art.FactURLs),
		GapsNext:   editor.GapsNext,
		Confidence: editor.Confidence,
	}

	log.Info("section complete",
		zap.Int("facts", len(art.Research.Facts)),
		zap.Int("highlights", len(brief.Highlights)),
		zap.Float64("confidence", brief.Confidence),
		zap.Bool("iterated", art.Iterated),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return &model.SectionResult{Section: name, Brief: brief, Artifacts: art}, nil
}

func (p *Pipeline) research(ctx context.Context, log *zap.Logger, d model.SectionDetails, queries []model.Query) model.ResearchResult {
	var hits []model.QueryHits
	if p.evidence != nil {
		hits = p.evidence.Search(ctx, queries, d.RunParams)
	}
	return valueOr(log, p.stages.Research(ctx, d, queries, hits), stage.FallbackResearch())
}

func (p *Pipeline) analyze(ctx context.Context, log *zap.Logger, d model.SectionDetails, r model.ResearchResult) model.AnalystOutput {
	var pages []model.PageExcerpt
	if p.evidence != nil {
		pages = p.evidence.ReadSources(ctx, r.Facts)
	}
	return valueOr(log, p.stages.Analyze(ctx, d, r, pages), stage.FallbackAnalysis(d.Descriptor.Section))
}

func (p *Pipeline) progress(format string, args ...any) {
	if p.opts.Progress != nil {
		p.opts.Progress(fmt.Sprintf(format, args...))
	}
}

func valueOr[T any](log *zap.Logger, res stage.Result[T], def T) T {
	if res.Err != nil {
		log.Warn("stage failed, using fallback",
			zap.String("stage", string(res.Err.Stage)),
			zap.String("kind", string(res.Err.Kind)),
			zap.Error(res.Err),
		)
	}
	return res.ValueOr(def)
}

func checkpoint(ctx context.Context, section string, next stage.Role) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrapf(err, "section %s: cancelled before %s", section, next)
	}
	return nil
}
