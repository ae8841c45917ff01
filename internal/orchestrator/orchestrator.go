// Package orchestrator runs every section of a framework concurrently and
// merges their progress into one ordered stream that ends with the final
// report.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/deep-research/internal/cost"
	"github.com/sells-group/deep-research/internal/framework"
	"github.com/sells-group/deep-research/internal/model"
)

// SectionRunner runs the pipeline of one section. *section.Pipeline
// implements it.
type SectionRunner interface {
	Run(ctx context.Context, d model.SectionDetails) (*model.SectionResult, error)
}

// RunnerFactory builds the runner for one section. progress is nil when
// live progress is disabled.
type RunnerFactory func(progress func(string)) SectionRunner

// ReportBuilder builds the final report. *report.Builder implements it.
type ReportBuilder interface {
	Build(ctx context.Context, framework, topic string, results []model.SectionResult) *model.FinalReport
}

// Options configures an Orchestrator.
type Options struct {
	// LiveProgress forwards section progress lines as they happen. When
	// false only section completions are reported.
	LiveProgress bool
	// Tracker, when set, supplies token usage and cost for the report
	// metadata.
	Tracker *cost.Tracker
}

// Orchestrator fans a run out to one section pipeline per descriptor.
type Orchestrator struct {
	table     framework.Table
	params    model.RunParams
	newRunner RunnerFactory
	reports   ReportBuilder
	opts      Options
}

// New creates an Orchestrator. params is shared read-only by every section
// of every run.
func New(table framework.Table, params model.RunParams, newRunner RunnerFactory, reports ReportBuilder, opts Options) *Orchestrator {
	if table == nil {
		table = framework.Default()
	}
	return &Orchestrator{
		table:     table,
		params:    params,
		newRunner: newRunner,
		reports:   reports,
		opts:      opts,
	}
}

type completion struct {
	index   int
	section string
	result  *model.SectionResult
	err     error
}

// Run starts a run and returns its progress stream. The stream ends with an
// UpdateReport element, or with a single UpdateError for an unknown
// framework. The channel is closed when the run is over and callers must
// drain it until then. If ctx is cancelled, progress updates may be
// dropped; Run waits for the started sections and ends the stream with a
// single UpdateError.
func (o *Orchestrator) Run(ctx context.Context, frameworkName, topic string) <-chan model.Update {
	out := make(chan model.Update, 16)
	go func() {
		defer close(out)
		o.run(ctx, frameworkName, topic, out)
	}()
	return out
}

func (o *Orchestrator) run(ctx context.Context, frameworkName, topic string, out chan<- model.Update) {
	runID := uuid.NewString()
	log := zap.L().With(
		zap.String("run_id", runID),
		zap.String("framework", frameworkName),
		zap.String("topic", topic),
	)
	emit := func(u model.Update) {
		u.RunID = runID
		select {
		case out <- u:
		case <-ctx.Done():
		}
	}

	descs, err := o.table.Sections(frameworkName)
	if err != nil {
		log.Warn("orchestrator: rejected run", zap.Error(err))
		emit(model.Update{
			Kind: model.UpdateError,
			Text: fmt.Sprintf("❌ Unknown framework %q. Choose one of: %s.", frameworkName, strings.Join(framework.Names(), ", ")),
		})
		return
	}

	start := time.Now()
	log.Info("orchestrator: starting run", zap.Int("sections", len(descs)))

	var progress *queue
	if o.opts.LiveProgress {
		progress = newQueue()
	}
	done := make(chan completion, len(descs))

	for i, desc := range descs {
		emit(model.Update{
			Kind:    model.UpdateStart,
			Section: desc.Section,
			Text:    fmt.Sprintf("🚀 Starting section %s", desc.Section),
		})
		d := model.SectionDetails{
			Framework:  frameworkName,
			Topic:      topic,
			Descriptor: framework.Expand(desc, topic),
			RunParams:  o.params,
		}
		go o.runSection(ctx, i, d, progress, done)
	}

	results := make([]*model.SectionResult, len(descs))
	failed := 0
	for pending := len(descs); pending > 0; {
		select {
		case c := <-done:
			pending--
			// A section's progress lines are queued before its completion.
			for _, u := range progress.drain() {
				emit(u)
			}
			if c.err != nil {
				failed++
				log.Error("orchestrator: section failed", zap.String("section", c.section), zap.Error(c.err))
				emit(model.Update{
					Kind:    model.UpdateSectionFailed,
					Section: c.section,
					Text:    fmt.Sprintf("❌ %s failed: %v", c.section, c.err),
				})
				continue
			}
			results[c.index] = c.result
			emit(model.Update{
				Kind:    model.UpdateSectionDone,
				Section: c.section,
				Text: fmt.Sprintf("✅ %s finished: %d highlights, confidence %.2f",
					c.section, len(c.result.Brief.Highlights), c.result.Brief.Confidence),
			})
		case <-progress.ready():
			for _, u := range progress.drain() {
				emit(u)
			}
		}
	}
	for _, u := range progress.drain() {
		emit(u)
	}

	if ctx.Err() != nil {
		log.Warn("orchestrator: run cancelled", zap.Error(ctx.Err()))
		// Sent without the ctx guard so the stream always ends with it.
		out <- model.Update{RunID: runID, Kind: model.UpdateError, Text: "❌ Run cancelled before the final report"}
		return
	}

	ok := make([]model.SectionResult, 0, len(descs))
	for _, r := range results {
		if r != nil {
			ok = append(ok, *r)
		}
	}

	emit(model.Update{
		Kind: model.UpdateReporting,
		Text: fmt.Sprintf("📝 Writing final report from %d of %d sections", len(ok), len(descs)),
	})
	rep := o.reports.Build(ctx, frameworkName, topic, ok)

	usage := o.opts.Tracker.Summary()
	rep.Metadata.InputTokens = usage.Usage.InputTokens
	rep.Metadata.OutputTokens = usage.Usage.OutputTokens
	rep.Metadata.EstimatedCostUSD = usage.EstimatedCostUSD

	log.Info("orchestrator: run complete",
		zap.Int("succeeded", len(ok)),
		zap.Int("failed", failed),
		zap.Int("facts", rep.Metadata.TotalFacts),
		zap.Float64("estimated_cost_usd", usage.EstimatedCostUSD),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	emit(model.Update{
		Kind:   model.UpdateReport,
		Text:   fmt.Sprintf("🎉 Report ready: %d sections, %d facts", rep.Metadata.SectionsCount, rep.Metadata.TotalFacts),
		Report: rep,
	})
}

func (o *Orchestrator) runSection(ctx context.Context, index int, d model.SectionDetails, progress *queue, done chan<- completion) {
	name := d.Descriptor.Section
	c := completion{index: index, section: name}
	defer func() {
		if r := recover(); r != nil {
			c.result = nil
			c.err = eris.Errorf("section %s panicked: %v", name, r)
		}
		done <- c
	}()

	var report func(string)
	if progress != nil {
		report = func(text string) {
			progress.push(model.Update{Kind: model.UpdateProgress, Section: name, Text: text})
		}
	}

	c.result, c.err = o.newRunner(report).Run(ctx, d)
	if c.err == nil && c.result == nil {
		c.err = eris.Errorf("section %s returned no result", name)
	}
}
