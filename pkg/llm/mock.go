package llm

import (
	"context"
	"sync"
)

// MockClient is a scripted Client for tests. Responses are returned in order;
// once exhausted, Complete returns an empty end_turn response.
type MockClient struct {
	mu        sync.Mutex
	responses []CompletionResponse
	requests  []CompletionRequest
	err       error
}

// NewMockClient creates a mock that replays the given responses in order.
func NewMockClient(responses ...CompletionResponse) *MockClient {
	return &MockClient{responses: responses}
}

// FailWith makes every Complete call return err.
func (m *MockClient) FailWith(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Enqueue appends a scripted response.
func (m *MockClient) Enqueue(resp CompletionResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// Complete implements the Client interface.
func (m *MockClient) Complete(_ context.Context, in CompletionRequest) (CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, in)
	if m.err != nil {
		return CompletionResponse{}, m.err
	}
	if len(m.responses) == 0 {
		return CompletionResponse{StopReason: "end_turn"}, nil
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

// ModelName returns a fixed test model identifier.
func (m *MockClient) ModelName() string { return "mock-model" }

// Requests returns a copy of every request seen so far.
func (m *MockClient) Requests() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
