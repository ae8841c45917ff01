package report

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/deep-research/internal/model"
)

// Narrator writes the narrative report. *stage.Adapter implements it.
type Narrator interface {
	Narrative(ctx context.Context, payload any) (string, error)
}

// Builder runs the final report stage.
type Builder struct {
	narrator Narrator
}

// NewBuilder creates a Builder. A nil narrator skips narrative generation.
func NewBuilder(narrator Narrator) *Builder {
	return &Builder{narrator: narrator}
}

type narrativePayload struct {
	Framework string `json:"framework"`
	Topic     string `json:"topic_or_idea"`
	Outline
	SectionAnalyses    map[string]model.AnalystOutput `json:"section_analyses"`
	AllFacts           []model.GlobalFact             `json:"all_facts"`
	SectionConfidences map[string]float64             `json:"section_confidences"`
	GlobalFactURLs     map[string][]string            `json:"global_facts_to_url_mapping"`
}

// Build assembles the final report from the successful section results,
// given in framework order. A failed narrative call leaves a placeholder
// narrative; the structured summary and metadata are always returned.
func (b *Builder) Build(ctx context.Context, framework, topic string, results []model.SectionResult) *model.FinalReport {
	summary := model.StructuredSummary{
		Framework: framework,
		Topic:     topic,
		Sections:  make(map[string]model.SectionSummary, len(results)),
		Order:     make([]string, 0, len(results)),
	}
	analyses := make(map[string]model.AnalystOutput, len(results))
	confidences := make(map[string]float64, len(results))
	reg := NewRegistry()

	var confSum float64
	for _, r := range results {
		brief := r.Brief
		summary.Sections[r.Section] = model.SectionSummary{
			Highlights: nonNil(brief.Highlights),
			Confidence: brief.Confidence,
			FactsRef:   nonNilMap(brief.FactsRef),
			GapsNext:   nonNil(brief.GapsNext),
		}
		summary.Order = append(summary.Order, r.Section)
		analyses[r.Section] = r.Artifacts.Analysis
		confidences[r.Section] = brief.Confidence
		confSum += brief.Confidence

		for _, f := range r.Artifacts.Research.Facts {
			reg.Add(r.Section, f, r.Artifacts.FactURLs[f.FactID])
		}
	}

	meta := model.ReportMetadata{
		TotalFacts:    reg.Len(),
		SectionsCount: len(results),
	}
	if len(results) > 0 {
		meta.AvgConfidence = confSum / float64(len(results))
	}

	facts := reg.Facts()
	urls := reg.URLs()
	outline := OutlineFor(framework)

	narrative := b.narrate(ctx, narrativePayload{
		Framework:          framework,
		Topic:              topic,
		Outline:            outline,
		SectionAnalyses:    analyses,
		AllFacts:           facts,
		SectionConfidences: confidences,
		GlobalFactURLs:     urls,
	})

	return &model.FinalReport{
		StructuredSummary: summary,
		NarrativeReport:   narrative,
		Metadata:          meta,
		Facts:             facts,
		FactURLs:          urls,
	}
}

func (b *Builder) narrate(ctx context.Context, p narrativePayload) string {
	if b.narrator == nil {
		return fmt.Sprintf("_Narrative report unavailable for %s: no narrative writer configured._", p.Topic)
	}
	text, err := b.narrator.Narrative(ctx, p)
	if err != nil {
		zap.L().Error("report: narrative generation failed",
			zap.String("framework", p.Framework),
			zap.String("topic", p.Topic),
			zap.Error(err),
		)
		return fmt.Sprintf("_Narrative report unavailable for %s: %v. The structured summary below is complete._", p.Topic, err)
	}
	return text
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMap(m map[string][]string) map[string][]string {
	if m == nil {
		return map[string][]string{}
	}
	return m
}
