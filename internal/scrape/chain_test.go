package scrape

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/deep-research/internal/model"
)

// stubReader implements Reader for testing.
type stubReader struct {
	name     string
	supports bool
	page     *model.Page
	err      error
	delay    time.Duration
	calls    int
}

func (s *stubReader) Name() string           { return s.name }
func (s *stubReader) Supports(_ string) bool { return s.supports }
func (s *stubReader) Read(ctx context.Context, _ string) (*model.Page, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.page == nil {
		return nil, s.err
	}
	p := *s.page
	return &p, s.err
}

func TestChain_Read_FirstSuccess(t *testing.T) {
	r1 := &stubReader{name: "browser", supports: true, page: &model.Page{Title: "Home", Text: "content", StatusCode: 200}}
	r2 := &stubReader{name: "http", supports: true}

	chain := NewChain(nil, 0, 0, r1, r2)
	page, err := chain.Read(context.Background(), "https://acme.com")

	require.NoError(t, err)
	assert.Equal(t, "Home", page.Title)
	assert.Equal(t, "https://acme.com", page.FinalURL)
	assert.Equal(t, 0, r2.calls)
}

func TestChain_Read_FallbackOnError(t *testing.T) {
	r1 := &stubReader{name: "browser", supports: true, err: errors.New("launch failed")}
	r2 := &stubReader{name: "http", supports: true, page: &model.Page{FinalURL: "https://acme.com/final", Text: "fallback text"}}

	chain := NewChain(nil, 0, 0, r1, r2)
	page, err := chain.Read(context.Background(), "https://acme.com")

	require.NoError(t, err)
	assert.Equal(t, "https://acme.com/final", page.FinalURL)
	assert.Equal(t, "fallback text", page.Text)
}

func TestChain_Read_FallbackOnEmptyText(t *testing.T) {
	r1 := &stubReader{name: "http", supports: true, page: &model.Page{Text: "   \n\t "}}
	r2 := &stubReader{name: "jina", supports: true, page: &model.Page{Text: "from jina"}}

	chain := NewChain(nil, 0, 0, r1, r2)
	page, err := chain.Read(context.Background(), "https://acme.com")

	require.NoError(t, err)
	assert.Equal(t, "from jina", page.Text)
}

func TestChain_Read_AllFail(t *testing.T) {
	r1 := &stubReader{name: "s1", supports: true, err: errors.New("s1 error")}
	r2 := &stubReader{name: "s2", supports: true, err: errors.New("s2 error")}

	chain := NewChain(nil, 0, 0, r1, r2)
	page, err := chain.Read(context.Background(), "https://acme.com")

	assert.Error(t, err)
	assert.Nil(t, page)
	assert.Contains(t, err.Error(), "all readers failed")
	assert.Contains(t, err.Error(), "s2 error")
}

func TestChain_Read_ExcludedURL(t *testing.T) {
	r1 := &stubReader{name: "s1", supports: true}

	chain := NewChain(nil, 0, 0, r1)
	for _, u := range []string{"https://acme.com/report.zip", "ftp://acme.com/x", "not a url"} {
		page, err := chain.Read(context.Background(), u)
		assert.Error(t, err, u)
		assert.Nil(t, page)
		assert.Contains(t, err.Error(), "excluded")
	}
	assert.Equal(t, 0, r1.calls)
}

func TestChain_Read_SkipsUnsupported(t *testing.T) {
	r1 := &stubReader{name: "s1", supports: false}
	r2 := &stubReader{name: "s2", supports: true, page: &model.Page{Text: "ok"}}

	chain := NewChain(nil, 0, 0, r1, r2)
	page, err := chain.Read(context.Background(), "https://acme.com")

	require.NoError(t, err)
	assert.Equal(t, "ok", page.Text)
	assert.Equal(t, 0, r1.calls)
}

func TestChain_Read_NoSuitableReader(t *testing.T) {
	chain := NewChain(nil, 0, 0, &stubReader{name: "s1", supports: false})
	_, err := chain.Read(context.Background(), "https://acme.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no suitable reader")
}

func TestChain_Read_NormalizesAndTruncates(t *testing.T) {
	raw := "Line  one\r\n\r\n\r\n\r\n   Line\ttwo   " + strings.Repeat("x", 100)
	r1 := &stubReader{name: "s1", supports: true, page: &model.Page{Text: raw}}

	chain := NewChain(nil, 0, 20, r1)
	page, err := chain.Read(context.Background(), "https://acme.com")

	require.NoError(t, err)
	assert.Equal(t, "Line one\n\nLine two", page.Text[:18])
	assert.LessOrEqual(t, len([]rune(page.Text)), 20)
}

func TestChain_Read_PerReaderTimeout(t *testing.T) {
	slow := &stubReader{name: "slow", supports: true, delay: time.Second, page: &model.Page{Text: "late"}}
	fast := &stubReader{name: "fast", supports: true, page: &model.Page{Text: "fast"}}

	chain := NewChain(nil, 20*time.Millisecond, 0, slow, fast)
	page, err := chain.Read(context.Background(), "https://acme.com")

	require.NoError(t, err)
	assert.Equal(t, "fast", page.Text)
}

func TestChain_Read_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r1 := &stubReader{name: "s1", supports: true, delay: time.Second}
	r2 := &stubReader{name: "s2", supports: true, page: &model.Page{Text: "never"}}

	chain := NewChain(nil, 0, 0, r1, r2)
	_, err := chain.Read(ctx, "https://acme.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
	assert.Equal(t, 0, r2.calls)
}

func TestChain_Readers(t *testing.T) {
	chain := NewChain(nil, 0, 0,
		&stubReader{name: "browser"},
		&stubReader{name: "http"},
		&stubReader{name: "jina"},
	)
	assert.Equal(t, []string{"browser", "http", "jina"}, chain.Readers())
}

func TestFilter_IsExcluded(t *testing.T) {
	f := NewFilter([]string{"pdf", ".ZIP"})

	assert.True(t, f.IsExcluded("https://acme.com/deck.pdf"))
	assert.True(t, f.IsExcluded("https://acme.com/a/b.zip"))
	assert.True(t, f.IsExcluded("mailto:info@acme.com"))
	assert.False(t, f.IsExcluded("https://acme.com/deck.mp4"))
	assert.False(t, f.IsExcluded("https://acme.com/pricing"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "héllo", Truncate("héllo wörld", 5))
}
