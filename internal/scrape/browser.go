package scrape

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/deep-research/internal/model"
	"github.com/sells-group/deep-research/pkg/browser"
)

// PageRenderer renders a page in a browser. *browser.Reader implements it.
type PageRenderer interface {
	Read(ctx context.Context, url string, timeout time.Duration) (*browser.Result, error)
}

// BrowserReader reads pages with JavaScript rendering.
type BrowserReader struct {
	renderer PageRenderer
	timeout  time.Duration
}

// NewBrowserReader creates a BrowserReader. timeout <= 0 uses DefaultTimeout.
func NewBrowserReader(r PageRenderer, timeout time.Duration) *BrowserReader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &BrowserReader{renderer: r, timeout: timeout}
}

func (b *BrowserReader) Name() string { return "browser" }

func (b *BrowserReader) Supports(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
}

// Read renders the page and returns its visible text.
func (b *BrowserReader) Read(ctx context.Context, targetURL string) (*model.Page, error) {
	res, err := b.renderer.Read(ctx, targetURL, b.timeout)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 400 {
		return nil, eris.Errorf("browser: status %d", res.StatusCode)
	}
	if LooksLikeChallenge(res.Text) {
		return nil, eris.New("browser: challenge page")
	}
	return &model.Page{
		Title:      res.Title,
		FinalURL:   res.FinalURL,
		StatusCode: res.StatusCode,
		Text:       res.Text,
	}, nil
}
