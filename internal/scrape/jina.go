package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/deep-research/internal/cost"
	"github.com/sells-group/deep-research/internal/model"
	"github.com/sells-group/deep-research/internal/resilience"
	"github.com/sells-group/deep-research/pkg/jina"
)

// JinaReader reads pages through the Jina reader API. It is the last resort
// of the chain and is skipped while its circuit is open.
type JinaReader struct {
	client  jina.Client
	guard   *resilience.Guard
	breaker *resilience.CircuitBreaker
	tracker *cost.Tracker
}

// NewJinaReader creates a JinaReader. guard may be nil; breaker, when set,
// should be the one the guard uses so Supports reflects its state.
func NewJinaReader(client jina.Client, guard *resilience.Guard, breaker *resilience.CircuitBreaker, tracker *cost.Tracker) *JinaReader {
	return &JinaReader{client: client, guard: guard, breaker: breaker, tracker: tracker}
}

func (j *JinaReader) Name() string { return "jina" }

// Supports returns true unless the circuit breaker is open.
func (j *JinaReader) Supports(_ string) bool {
	return j.breaker == nil || j.breaker.State() != resilience.CircuitOpen
}

// Read fetches a URL via the Jina reader and validates the response.
func (j *JinaReader) Read(ctx context.Context, targetURL string) (*model.Page, error) {
	resp, err := resilience.Call(ctx, j.guard, func(ctx context.Context) (*jina.ReadResponse, error) {
		return j.client.Read(ctx, targetURL)
	})
	if err != nil {
		return nil, err
	}
	j.tracker.RecordJina(resp.Data.Usage.Tokens)

	if needsFallback(resp) {
		return nil, eris.New("jina: response has no usable content")
	}

	return &model.Page{
		Title:      resp.Data.Title,
		FinalURL:   resp.Data.URL,
		StatusCode: 200,
		Text:       resp.Data.Content,
	}, nil
}

// needsFallback reports whether a Jina response is empty, an error, or a
// bot-challenge interstitial.
func needsFallback(resp *jina.ReadResponse) bool {
	if resp == nil {
		return true
	}
	if resp.Code != 0 && resp.Code != 200 {
		return true
	}
	content := strings.TrimSpace(resp.Data.Content)
	return len(content) < 100 || LooksLikeChallenge(content)
}
