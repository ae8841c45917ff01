package scrape

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/deep-research/internal/model"
)

// Chain tries readers in priority order, returning the first page with text.
type Chain struct {
	filter   *Filter
	readers  []Reader
	timeout  time.Duration
	maxChars int
}

// NewChain creates a Chain. A nil filter uses the default extension list;
// timeout and maxChars <= 0 use DefaultTimeout and DefaultMaxChars.
func NewChain(filter *Filter, timeout time.Duration, maxChars int, readers ...Reader) *Chain {
	if filter == nil {
		filter = NewFilter(nil)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Chain{filter: filter, readers: readers, timeout: timeout, maxChars: maxChars}
}

// Readers returns the names of the configured readers in order.
func (c *Chain) Readers() []string {
	names := make([]string, len(c.readers))
	for i, r := range c.readers {
		names[i] = r.Name()
	}
	return names
}

// Read tries each reader in order for a single URL. Each attempt is bounded
// by the chain timeout. The returned page has collapsed whitespace, text
// capped at the chain's character limit and the total elapsed time.
func (c *Chain) Read(ctx context.Context, targetURL string) (*model.Page, error) {
	if c.filter.IsExcluded(targetURL) {
		return nil, eris.Errorf("scrape: url excluded: %s", targetURL)
	}

	start := time.Now()
	var lastErr error
	for _, r := range c.readers {
		if !r.Supports(targetURL) {
			continue
		}

		page, err := c.readOne(ctx, r, targetURL)
		if err == nil && page != nil && page.Text != "" {
			page.ElapsedMs = time.Since(start).Milliseconds()
			return page, nil
		}
		if err == nil {
			err = eris.Errorf("scrape: %s returned no text", r.Name())
		}
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "scrape: read cancelled")
		}
		zap.L().Debug("scrape: reader failed, trying next",
			zap.String("reader", r.Name()),
			zap.String("url", targetURL),
			zap.Error(err),
		)
		lastErr = err
	}

	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "scrape: all readers failed")
	}
	return nil, eris.Errorf("scrape: no suitable reader for url: %s", targetURL)
}

func (c *Chain) readOne(ctx context.Context, r Reader, targetURL string) (*model.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	page, err := r.Read(ctx, targetURL)
	if err != nil || page == nil {
		return page, err
	}
	page.Text = Truncate(CollapseWhitespace(page.Text), c.maxChars)
	if page.FinalURL == "" {
		page.FinalURL = targetURL
	}
	return page, nil
}
