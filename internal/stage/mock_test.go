package stage

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/deep-research/pkg/anthropic"
	"github.com/sells-group/deep-research/pkg/openai"
)

// scriptedGenerator replies per role and records every request.
type scriptedGenerator struct {
	mu       sync.Mutex
	replies  map[Role]string
	errs     map[Role]error
	requests []Request
}

func newScripted(replies map[Role]string) *scriptedGenerator {
	return &scriptedGenerator{replies: replies, errs: map[Role]error{}}
}

func (s *scriptedGenerator) Generate(_ context.Context, req Request) (*Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if err := s.errs[req.Role]; err != nil {
		return nil, err
	}
	return &Generation{Text: s.replies[req.Role], Model: "test-model"}, nil
}

func (s *scriptedGenerator) last() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*anthropic.MessageResponse)
	return resp, args.Error(1)
}

type mockOpenAIClient struct {
	mock.Mock
}

func (m *mockOpenAIClient) Complete(ctx context.Context, req openai.CompletionRequest) (*openai.CompletionResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*openai.CompletionResponse)
	return resp, args.Error(1)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, req Request) (*Generation, error) {
	args := m.Called(ctx, req)
	gen, _ := args.Get(0).(*Generation)
	return gen, args.Error(1)
}
