package research

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/deep-research/internal/model"
)

// Default gathering limits.
const (
	DefaultParallel     = 4
	DefaultPageReads    = 3
	DefaultExcerptChars = 8000
)

// PageReader reads the visible text of a URL. *scrape.Chain implements it.
type PageReader interface {
	Read(ctx context.Context, url string) (*model.Page, error)
}

// Options configures a Gatherer.
type Options struct {
	// Parallel bounds concurrent searches and page reads.
	Parallel int
	// PageReads is the number of cited source pages read for the analyst.
	// Zero disables page reads.
	PageReads int
	// ExcerptChars caps the text of each page excerpt.
	ExcerptChars int
}

// Gatherer collects search results and page excerpts for one section.
type Gatherer struct {
	searcher Searcher
	reader   PageReader
	opts     Options
}

// NewGatherer creates a Gatherer. reader may be nil to disable page reads.
func NewGatherer(searcher Searcher, reader PageReader, opts Options) *Gatherer {
	if opts.Parallel <= 0 {
		opts.Parallel = DefaultParallel
	}
	if opts.PageReads < 0 {
		opts.PageReads = 0
	}
	if opts.ExcerptChars <= 0 {
		opts.ExcerptChars = DefaultExcerptChars
	}
	return &Gatherer{searcher: searcher, reader: reader, opts: opts}
}

// Search runs every query in parallel and returns results in query order.
// Hits whose canonical URL was already returned for an earlier query are
// dropped. Failed queries are logged and left out.
func (g *Gatherer) Search(ctx context.Context, queries []model.Query, p model.RunParams) []model.QueryHits {
	if g.searcher == nil || len(queries) == 0 {
		return []model.QueryHits{}
	}

	lang := ""
	if len(p.Langs) > 0 {
		lang = p.Langs[0]
	}

	slots := make([]*model.QueryHits, len(queries))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Parallel)

	for i, q := range queries {
		eg.Go(func() error {
			kind := QueryKind(q)
			hits, err := g.searcher.Search(egCtx, SearchQuery{
				Q:            q.Q,
				Kind:         kind,
				Num:          p.KPerQuery,
				Lang:         lang,
				LookbackDays: p.LookbackDays,
			})
			if err != nil {
				zap.L().Warn("research: search failed, skipping query",
					zap.String("query", q.Q),
					zap.String("kind", kind),
					zap.Error(err),
				)
				return nil
			}
			slots[i] = &model.QueryHits{Query: q.Q, Kind: kind, Hits: hits}
			return nil
		})
	}
	_ = eg.Wait()

	seen := make(map[string]bool)
	out := make([]model.QueryHits, 0, len(queries))
	for _, s := range slots {
		if s == nil {
			continue
		}
		kept := make([]model.SearchHit, 0, len(s.Hits))
		for _, h := range s.Hits {
			key := CanonicalURL(h.Link)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			kept = append(kept, h)
		}
		s.Hits = kept
		out = append(out, *s)
	}
	return out
}

// ReadSources reads up to Options.PageReads distinct source URLs cited by
// facts, most confident facts first. Read failures are skipped.
func (g *Gatherer) ReadSources(ctx context.Context, facts []model.Fact) []model.PageExcerpt {
	if g.reader == nil || g.opts.PageReads == 0 {
		return nil
	}
	urls := topSourceURLs(facts, g.opts.PageReads)
	if len(urls) == 0 {
		return nil
	}

	slots := make([]*model.PageExcerpt, len(urls))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Parallel)

	for i, u := range urls {
		eg.Go(func() error {
			page, err := g.reader.Read(egCtx, u)
			if err != nil {
				zap.L().Debug("research: page read failed",
					zap.String("url", u),
					zap.Error(err),
				)
				return nil
			}
			slots[i] = &model.PageExcerpt{
				URL:   u,
				Title: page.Title,
				Text:  truncateRunes(page.Text, g.opts.ExcerptChars),
			}
			return nil
		})
	}
	_ = eg.Wait()

	var out []model.PageExcerpt
	for _, s := range slots {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// QueryKind returns model.SearchNews for queries aimed at news coverage.
func QueryKind(q model.Query) string {
	if strings.Contains(strings.ToLower(q.Family), "news") {
		return model.SearchNews
	}
	if q.Axes != nil && strings.EqualFold(q.Axes.Modality, "news") {
		return model.SearchNews
	}
	return model.SearchWeb
}

// CanonicalURL normalizes a URL for deduplication: lower-case host without
// "www.", no fragment, no tracking parameters, no trailing slash.
func CanonicalURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || lk == "gclid" || lk == "fbclid" {
			q.Del(k)
		}
	}

	out := host + strings.TrimSuffix(u.EscapedPath(), "/")
	if enc := q.Encode(); enc != "" {
		out += "?" + enc
	}
	return out
}

func topSourceURLs(facts []model.Fact, n int) []string {
	ranked := make([]model.Fact, len(facts))
	copy(ranked, facts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	seen := make(map[string]bool)
	var urls []string
	for _, f := range ranked {
		key := CanonicalURL(f.SourceURL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		urls = append(urls, f.SourceURL)
		if len(urls) == n {
			break
		}
	}
	return urls
}
