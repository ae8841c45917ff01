// Package serper provides a client for Google web and news search via
// Serper.dev.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://google.serper.dev"

// Kind selects the search vertical.
type Kind string

const (
	// KindSearch is standard web search.
	KindSearch Kind = "search"
	// KindNews is news search.
	KindNews Kind = "news"
)

// Client performs searches against the Serper API.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest is the request body for POST /search and POST /news.
type SearchRequest struct {
	Kind Kind   `json:"-"`
	Q    string `json:"q"`
	Num  int    `json:"num,omitempty"`
	Page int    `json:"page,omitempty"`
	GL   string `json:"gl,omitempty"`
	HL   string `json:"hl,omitempty"`
	// TBS is a Google time filter such as "qdr:m" or "qdr:y".
	TBS string `json:"tbs,omitempty"`
}

// Item is a normalized organic or news result.
type Item struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet,omitempty"`
	Source   string `json:"source,omitempty"`
	Date     string `json:"date,omitempty"`
	Position int    `json:"position,omitempty"`
}

// SearchResponse holds normalized items. For web search a titled answer
// box with a link is placed first.
type SearchResponse struct {
	Kind  Kind   `json:"kind"`
	Query string `json:"query"`
	Items []Item `json:"items"`
}

type rawResponse struct {
	Organic   []Item `json:"organic"`
	News      []Item `json:"news"`
	AnswerBox *struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"answerBox"`
}

// APIError is a non-2xx reply from Serper.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("serper: unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithCountry sets the default gl parameter.
func WithCountry(gl string) Option {
	return func(c *httpClient) {
		c.country = gl
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	country string
	http    *http.Client
}

// NewClient creates a Serper API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		country: "us",
		http: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.Kind == "" {
		req.Kind = KindSearch
	}
	if req.Num <= 0 {
		req.Num = 10
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.GL == "" {
		req.GL = c.country
	}
	if req.HL == "" {
		req.HL = "en"
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "serper: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+string(req.Kind), bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "serper: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "serper: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "serper: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var raw rawResponse
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, eris.Wrap(err, "serper: unmarshal response")
	}

	return normalize(req, raw), nil
}

func normalize(req SearchRequest, raw rawResponse) *SearchResponse {
	out := &SearchResponse{Kind: req.Kind, Query: req.Q}

	if req.Kind == KindNews {
		out.Items = append(out.Items, raw.News...)
	} else {
		if ab := raw.AnswerBox; ab != nil && ab.Title != "" && ab.Link != "" {
			out.Items = append(out.Items, Item{Title: ab.Title, Link: ab.Link, Snippet: ab.Snippet})
		}
		out.Items = append(out.Items, raw.Organic...)
	}

	for i := range out.Items {
		out.Items[i].Snippet = html.UnescapeString(out.Items[i].Snippet)
	}
	return out
}
