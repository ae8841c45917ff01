// Package research gathers the evidence handed to the researcher and
// analyst stages: web and news search results and page excerpts.
package research

import (
	"context"
	"html"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/deep-research/internal/cost"
	"github.com/sells-group/deep-research/internal/model"
	"github.com/sells-group/deep-research/internal/resilience"
	"github.com/sells-group/deep-research/pkg/jina"
	"github.com/sells-group/deep-research/pkg/serper"
)

// SearchQuery is one search request.
type SearchQuery struct {
	Q            string
	Kind         string // model.SearchWeb or model.SearchNews
	Num          int
	Lang         string
	LookbackDays int
}

// Searcher is the web search capability.
type Searcher interface {
	Search(ctx context.Context, q SearchQuery) ([]model.SearchHit, error)
	Name() string
}

// SerperSearcher searches with the Serper API.
type SerperSearcher struct {
	client  serper.Client
	guard   *resilience.Guard
	tracker *cost.Tracker
}

// NewSerperSearcher creates a SerperSearcher. guard and tracker may be nil.
func NewSerperSearcher(client serper.Client, guard *resilience.Guard, tracker *cost.Tracker) *SerperSearcher {
	return &SerperSearcher{client: client, guard: guard, tracker: tracker}
}

func (s *SerperSearcher) Name() string { return "serper" }

func (s *SerperSearcher) Search(ctx context.Context, q SearchQuery) ([]model.SearchHit, error) {
	kind := serper.KindSearch
	if q.Kind == model.SearchNews {
		kind = serper.KindNews
	}
	req := serper.SearchRequest{
		Kind: kind,
		Q:    q.Q,
		Num:  q.Num,
		Page: 1,
		HL:   q.Lang,
		TBS:  lookbackTBS(q.LookbackDays),
	}

	resp, err := resilience.Call(ctx, s.guard, func(ctx context.Context) (*serper.SearchResponse, error) {
		return s.client.Search(ctx, req)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "research: serper %s search", kind)
	}
	s.tracker.RecordSearches(1)

	hits := make([]model.SearchHit, 0, len(resp.Items))
	for _, it := range resp.Items {
		hits = append(hits, model.SearchHit{
			Title:    it.Title,
			Link:     it.Link,
			Snippet:  it.Snippet,
			Date:     it.Date,
			Source:   it.Source,
			Position: it.Position,
		})
	}
	return hits, nil
}

// JinaSearcher searches with the Jina search API. It has no news vertical.
type JinaSearcher struct {
	client jina.Client
	guard  *resilience.Guard
}

// NewJinaSearcher creates a JinaSearcher. guard may be nil.
func NewJinaSearcher(client jina.Client, guard *resilience.Guard) *JinaSearcher {
	return &JinaSearcher{client: client, guard: guard}
}

func (s *JinaSearcher) Name() string { return "jina" }

func (s *JinaSearcher) Search(ctx context.Context, q SearchQuery) ([]model.SearchHit, error) {
	var opts []jina.SearchOption
	if q.Num > 0 {
		opts = append(opts, jina.WithCount(q.Num))
	}
	if q.Lang != "" {
		opts = append(opts, jina.WithLanguage(q.Lang))
	}

	resp, err := resilience.Call(ctx, s.guard, func(ctx context.Context) (*jina.SearchResponse, error) {
		return s.client.Search(ctx, q.Q, opts...)
	})
	if err != nil {
		return nil, eris.Wrap(err, "research: jina search")
	}

	hits := make([]model.SearchHit, 0, len(resp.Data))
	for i, r := range resp.Data {
		snippet := r.Description
		if snippet == "" {
			snippet = truncateRunes(r.Content, 300)
		}
		hits = append(hits, model.SearchHit{
			Title:    r.Title,
			Link:     r.URL,
			Snippet:  html.UnescapeString(snippet),
			Position: i + 1,
		})
		if q.Num > 0 && len(hits) == q.Num {
			break
		}
	}
	return hits, nil
}

// FallbackSearcher tries each searcher in order until one returns hits.
type FallbackSearcher struct {
	searchers []Searcher
}

// NewFallbackSearcher creates a FallbackSearcher.
func NewFallbackSearcher(searchers ...Searcher) *FallbackSearcher {
	return &FallbackSearcher{searchers: searchers}
}

func (f *FallbackSearcher) Name() string {
	names := make([]string, len(f.searchers))
	for i, s := range f.searchers {
		names[i] = s.Name()
	}
	return strings.Join(names, ">")
}

func (f *FallbackSearcher) Search(ctx context.Context, q SearchQuery) ([]model.SearchHit, error) {
	var lastErr error
	for _, s := range f.searchers {
		hits, err := s.Search(ctx, q)
		if err == nil && len(hits) > 0 {
			return hits, nil
		}
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "research: search cancelled")
		}
		if err != nil {
			zap.L().Debug("research: searcher failed, trying next",
				zap.String("searcher", s.Name()),
				zap.String("query", q.Q),
				zap.Error(err),
			)
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return []model.SearchHit{}, nil
}

// lookbackTBS maps a lookback window to the nearest Google time filter.
// Windows longer than a year are not filtered.
func lookbackTBS(days int) string {
	switch {
	case days <= 0:
		return ""
	case days <= 1:
		return "qdr:d"
	case days <= 7:
		return "qdr:w"
	case days <= 31:
		return "qdr:m"
	case days <= 366:
		return "qdr:y"
	default:
		return ""
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
