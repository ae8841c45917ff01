package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/deep-research/internal/cost"
	"github.com/sells-group/deep-research/internal/resilience"
	"github.com/sells-group/deep-research/pkg/jina"
)

type mockJinaClient struct {
	mock.Mock
}

func (m *mockJinaClient) Read(ctx context.Context, url string) (*jina.ReadResponse, error) {
	args := m.Called(ctx, url)
	resp, _ := args.Get(0).(*jina.ReadResponse)
	return resp, args.Error(1)
}

func (m *mockJinaClient) Search(ctx context.Context, query string, _ ...jina.SearchOption) (*jina.SearchResponse, error) {
	args := m.Called(ctx, query)
	resp, _ := args.Get(0).(*jina.SearchResponse)
	return resp, args.Error(1)
}

const acmeContent = "# Acme Corp\n\nWe build things and do stuff for people around the world. " +
	"This is a long enough content string to pass the minimum content length check."

func TestJinaReader_Name(t *testing.T) {
	t.Parallel()
	r := NewJinaReader(&mockJinaClient{}, nil, nil, nil)
	assert.Equal(t, "jina", r.Name())
}

func TestJinaReader_SupportsFollowsBreaker(t *testing.T) {
	t.Parallel()
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Hour,
		ShouldTrip:       func(error) bool { return true },
	})
	r := NewJinaReader(&mockJinaClient{}, nil, cb, nil)
	assert.True(t, r.Supports("https://example.com"))

	_ = cb.Execute(context.Background(), func(context.Context) error { return errors.New("boom") })
	assert.False(t, r.Supports("https://example.com"))
}

func TestJinaReader_Read_Success(t *testing.T) {
	t.Parallel()
	client := &mockJinaClient{}
	tracker := cost.NewTracker(nil)
	r := NewJinaReader(client, nil, nil, tracker)

	client.On("Read", mock.Anything, "https://acme.com").Return(&jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{
			URL:     "https://acme.com/",
			Title:   "Acme Corp",
			Content: acmeContent,
			Usage:   jina.ReadUsage{Tokens: 500},
		},
	}, nil)

	page, err := r.Read(context.Background(), "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, "https://acme.com/", page.FinalURL)
	assert.Equal(t, "Acme Corp", page.Title)
	assert.Equal(t, 200, page.StatusCode)
	assert.Equal(t, acmeContent, page.Text)
	assert.Equal(t, 500, tracker.Summary().JinaTokens)
	client.AssertExpectations(t)
}

func TestJinaReader_Read_ClientError(t *testing.T) {
	t.Parallel()
	client := &mockJinaClient{}
	r := NewJinaReader(client, nil, nil, nil)

	client.On("Read", mock.Anything, "https://fail.com").Return(nil, errors.New("connection refused"))

	_, err := r.Read(context.Background(), "https://fail.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestJinaReader_Read_RetriesThroughGuard(t *testing.T) {
	t.Parallel()
	client := &mockJinaClient{}
	guard := resilience.NewGuard("jina", resilience.RetryConfig{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}, nil, 0, 0)
	r := NewJinaReader(client, guard, nil, nil)

	client.On("Read", mock.Anything, "https://acme.com").
		Return(nil, &jina.APIError{StatusCode: 503, Body: "unavailable"}).Once()
	client.On("Read", mock.Anything, "https://acme.com").
		Return(&jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: acmeContent}}, nil).Once()

	page, err := r.Read(context.Background(), "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, acmeContent, page.Text)
	client.AssertNumberOfCalls(t, "Read", 2)
}

func TestJinaReader_Read_ChallengePage(t *testing.T) {
	t.Parallel()
	client := &mockJinaClient{}
	r := NewJinaReader(client, nil, nil, nil)

	client.On("Read", mock.Anything, "https://cf.com").Return(&jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{
			Content: "Just a moment... Checking your browser before accessing cf.com. This process is automatic.",
		},
	}, nil)

	_, err := r.Read(context.Background(), "https://cf.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable content")
}

func TestNeedsFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp *jina.ReadResponse
		want bool
	}{
		{
			name: "nil response",
			resp: nil,
			want: true,
		},
		{
			name: "non-200 code",
			resp: &jina.ReadResponse{Code: 403},
			want: true,
		},
		{
			name: "short content",
			resp: &jina.ReadResponse{
				Code: 200,
				Data: jina.ReadData{Content: "too short"},
			},
			want: true,
		},
		{
			name: "challenge signature in short content",
			resp: &jina.ReadResponse{
				Code: 200,
				Data: jina.ReadData{
					Content: "Checking your browser before accessing this site. Please enable JavaScript and cookies to continue.",
				},
			},
			want: true,
		},
		{
			name: "cloudflare in short content",
			resp: &jina.ReadResponse{
				Code: 200,
				Data: jina.ReadData{
					Content: "Attention Required! Cloudflare security check. Enable JavaScript and cookies to continue browsing this site.",
				},
			},
			want: true,
		},
		{
			name: "valid long content",
			resp: &jina.ReadResponse{
				Code: 200,
				Data: jina.ReadData{
					Content: "This is valid content that is long enough to pass the minimum length check. " +
						"It does not contain any challenge signatures and should be considered valid content for extraction. " +
						"Adding more text to make sure we are well over the 100 character minimum threshold.",
				},
			},
			want: false,
		},
		{
			name: "challenge signature in long content over 1000 chars is ok",
			resp: &jina.ReadResponse{
				Code: 200,
				Data: jina.ReadData{
					Content: makeLongContent("This page mentions cloudflare somewhere but has lots of real content."),
				},
			},
			want: false,
		},
		{
			name: "code 0 is acceptable",
			resp: &jina.ReadResponse{
				Code: 0,
				Data: jina.ReadData{
					Content: "This is valid content that is long enough to pass the minimum length check. " +
						"More text here to fill up the 100 character requirement for the content to be considered valid.",
				},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, needsFallback(tt.resp))
		})
	}
}

// makeLongContent creates a string > 1000 chars that includes the given prefix.
func makeLongContent(prefix string) string {
	content := prefix
	for len(content) < 1100 {
		content += " This is filler content to make the string longer than the 1000 character threshold."
	}
	return content
}
