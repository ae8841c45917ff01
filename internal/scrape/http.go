package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/deep-research/internal/model"
)

const (
	defaultUserAgent = "Mozilla/5.0 (compatible; DeepResearch/1.0)"
	maxBodyBytes     = 4 << 20
)

// HTTPReader fetches HTML with net/http and extracts visible text without
// running scripts. Blocked or script-only pages fail so the chain moves on.
type HTTPReader struct {
	client    *http.Client
	userAgent string
}

// NewHTTPReader creates an HTTPReader. An empty userAgent uses a default.
func NewHTTPReader(userAgent string) *HTTPReader {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &HTTPReader{
		userAgent: userAgent,
		client: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

func (h *HTTPReader) Name() string { return "http" }

func (h *HTTPReader) Supports(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
}

// Read fetches a URL, detects blocks and extracts the visible text.
func (h *HTTPReader) Read(ctx context.Context, targetURL string) (*model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "http: create request")
	}
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "http: read body")
	}

	if blocked, kind := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("http: blocked (%s)", kind)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("http: status %d", resp.StatusCode)
	}

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	page := &model.Page{FinalURL: resp.Request.URL.String(), StatusCode: resp.StatusCode}

	switch {
	case ct == "" || strings.Contains(ct, "html"):
		title, text, err := HTMLText(body)
		if err != nil {
			return nil, err
		}
		page.Title, page.Text = title, text
	case strings.HasPrefix(ct, "text/"):
		page.Text = string(body)
	default:
		return nil, eris.Errorf("http: unsupported content type %q", ct)
	}

	if len(strings.TrimSpace(page.Text)) < 100 {
		return nil, eris.New("http: empty page")
	}
	return page, nil
}
