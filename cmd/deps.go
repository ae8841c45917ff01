package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/deep-research/internal/config"
	"github.com/sells-group/deep-research/internal/cost"
	"github.com/sells-group/deep-research/internal/framework"
	"github.com/sells-group/deep-research/internal/model"
	"github.com/sells-group/deep-research/internal/orchestrator"
	"github.com/sells-group/deep-research/internal/report"
	"github.com/sells-group/deep-research/internal/research"
	"github.com/sells-group/deep-research/internal/resilience"
	"github.com/sells-group/deep-research/internal/scrape"
	"github.com/sells-group/deep-research/internal/section"
	"github.com/sells-group/deep-research/internal/stage"
	anthropicpkg "github.com/sells-group/deep-research/pkg/anthropic"
	"github.com/sells-group/deep-research/pkg/browser"
	"github.com/sells-group/deep-research/pkg/jina"
	openaipkg "github.com/sells-group/deep-research/pkg/openai"
	"github.com/sells-group/deep-research/pkg/serper"
)

// runEnv holds the clients and guards shared by every run of the process.
// Usage accounting is per run; see newOrchestrator.
type runEnv struct {
	cfg   *config.Config
	table framework.Table

	generator stage.Generator
	llmGuard  *resilience.Guard

	serper      serper.Client // may be nil
	serperGuard *resilience.Guard
	jina        jina.Client // may be nil
	jinaGuard   *resilience.Guard
	jinaBreaker *resilience.CircuitBreaker

	browser *browser.Reader // may be nil
}

// runOptions are the per-run switches exposed by the run and serve commands.
type runOptions struct {
	EnableCritic bool
}

// loadTable returns the framework table, applying the configured override
// file when one is set.
func loadTable(c *config.Config) (framework.Table, error) {
	if c.Research.FrameworksFile == "" {
		return framework.Default(), nil
	}
	t, err := framework.LoadFile(c.Research.FrameworksFile)
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded framework overrides", zap.String("path", c.Research.FrameworksFile))
	return t, nil
}

// initEnv validates the config and builds all provider clients. Callers
// should defer env.Close().
func initEnv(c *config.Config, mode string) (*runEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}
	table, err := loadTable(c)
	if err != nil {
		return nil, err
	}

	retry := resilience.RetryFromConfig(c.Retry)
	breakers := resilience.NewServiceBreakers(resilience.CircuitFromConfig(c.Circuit))
	env := &runEnv{cfg: c, table: table}

	switch c.LLM.Provider {
	case "openai":
		client := openaipkg.NewClient(c.OpenAI.Key, openaipkg.WithBaseURL(c.OpenAI.BaseURL))
		env.generator = stage.NewOpenAIGenerator(client, c.OpenAI.Model, int(c.LLM.MaxTokens), c.LLM.Temperature)
	default:
		client := anthropicpkg.NewClient(c.Anthropic.Key)
		env.generator = stage.NewAnthropicGenerator(client, c.Anthropic.Model, c.LLM.MaxTokens, c.LLM.Temperature)
	}
	env.llmGuard = resilience.NewGuard(c.LLM.Provider, retry, breakers.Get(c.LLM.Provider), c.RateLimit.LLMPerSec, c.RateLimit.Burst)

	if c.Serper.Key != "" {
		env.serper = serper.NewClient(c.Serper.Key,
			serper.WithBaseURL(c.Serper.BaseURL),
			serper.WithCountry(c.Serper.Country),
			serper.WithHTTPClient(&http.Client{Timeout: time.Duration(c.Serper.TimeoutSecs) * time.Second}),
		)
		env.serperGuard = resilience.NewGuard("serper", retry, breakers.Get("serper"), c.RateLimit.SearchPerSec, c.RateLimit.Burst)
	} else {
		zap.L().Debug("RESEARCH_SERPER_KEY not set, searching with jina only")
	}

	if c.Jina.Key != "" {
		opts := []jina.Option{jina.WithBaseURL(c.Jina.BaseURL)}
		if c.Jina.SearchBaseURL != "" {
			opts = append(opts, jina.WithSearchBaseURL(c.Jina.SearchBaseURL))
		}
		env.jina = jina.NewClient(c.Jina.Key, opts...)
		env.jinaBreaker = breakers.Get("jina")
		env.jinaGuard = resilience.NewGuard("jina", retry, env.jinaBreaker, c.RateLimit.SearchPerSec, c.RateLimit.Burst)
	} else {
		zap.L().Debug("RESEARCH_JINA_KEY not set, jina reader and search fallback disabled")
	}

	if c.Browser.Enabled {
		env.browser = browser.New(browser.Options{Bin: c.Browser.Bin, UserAgent: c.Browser.UserAgent})
		zap.L().Info("headless browser page reads enabled")
	}

	return env, nil
}

// Close releases the browser, if one was started.
func (e *runEnv) Close() {
	if e.browser != nil {
		if err := e.browser.Close(); err != nil {
			zap.L().Warn("close browser", zap.Error(err))
		}
	}
}

// newOrchestrator wires the collaborators of one run around a fresh usage
// tracker.
func (e *runEnv) newOrchestrator(opts runOptions) *orchestrator.Orchestrator {
	tracker := cost.NewTracker(nil)

	gen := stage.NewResilientGenerator(e.generator, e.llmGuard, tracker)
	adapter := stage.NewAdapter(gen)

	var searchers []research.Searcher
	if e.serper != nil {
		searchers = append(searchers, research.NewSerperSearcher(e.serper, e.serperGuard, tracker))
	}
	if e.jina != nil {
		searchers = append(searchers, research.NewJinaSearcher(e.jina, e.jinaGuard))
	}

	timeout := time.Duration(e.cfg.Browser.TimeoutMs) * time.Millisecond
	var readers []scrape.Reader
	if e.browser != nil {
		readers = append(readers, scrape.NewBrowserReader(e.browser, timeout))
	}
	readers = append(readers, scrape.NewHTTPReader(e.cfg.Browser.UserAgent))
	if e.jina != nil {
		readers = append(readers, scrape.NewJinaReader(e.jina, e.jinaGuard, e.jinaBreaker, tracker))
	}
	chain := scrape.NewChain(scrape.NewFilter(nil), timeout, e.cfg.Browser.MaxChars, readers...)

	gatherer := research.NewGatherer(research.NewFallbackSearcher(searchers...), chain, research.Options{
		Parallel:  e.cfg.Research.SearchParallel,
		PageReads: e.cfg.Research.PageReads,
	})

	newRunner := func(progress func(string)) orchestrator.SectionRunner {
		return section.New(adapter, gatherer, section.Options{
			EnableCritic:  opts.EnableCritic,
			MaxGapQueries: e.cfg.Research.MaxGapQueries,
			Progress:      progress,
		})
	}

	return orchestrator.New(e.table, e.cfg.Research.RunParams(), newRunner, report.NewBuilder(adapter), orchestrator.Options{
		LiveProgress: true,
		Tracker:      tracker,
	})
}

// start runs framework/topic on a fresh orchestrator. It satisfies
// runStarter for the HTTP server.
func (e *runEnv) start(ctx context.Context, frameworkName, topic string, opts runOptions) <-chan model.Update {
	return e.newOrchestrator(opts).Run(ctx, frameworkName, topic)
}
