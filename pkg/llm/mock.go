package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Test doubles for Provider. All of them report usage estimated at four
// characters per token so cost accounting has something to count.

func estimateUsage(req ChatRequest, content string) Usage {
	prompt := 0
	for _, m := range req.Messages {
		prompt += len(m.Content)
	}
	u := Usage{PromptTokens: prompt / 4, CompletionTokens: len(content) / 4}
	u.TotalTokens = u.PromptTokens + u.CompletionTokens
	return u
}

// recording keeps the requests a double has seen.
type recording struct {
	mu       sync.Mutex
	requests []ChatRequest
}

func (r *recording) record(req ChatRequest) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return len(r.requests)
}

// Requests returns the requests received so far.
func (r *recording) Requests() []ChatRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ChatRequest(nil), r.requests...)
}

// Calls returns how many times Chat has been invoked.
func (r *recording) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

// MockProvider answers every request with Response, or fails with Err.
// ChatFunc, when set, takes over entirely.
type MockProvider struct {
	recording

	Response string
	Err      error
	ChatFunc func(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

func (m *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	m.record(req)
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &ChatResponse{Content: m.Response, Usage: estimateUsage(req, m.Response)}, nil
}

// FailingMockProvider always fails.
type FailingMockProvider struct {
	Err error
}

func (f *FailingMockProvider) Chat(context.Context, ChatRequest) (*ChatResponse, error) {
	if f.Err == nil {
		return nil, fmt.Errorf("mock error")
	}
	return nil, f.Err
}

// ScriptedMockProvider serves queued failures first, then queued responses in
// order. It fails once both queues are empty.
type ScriptedMockProvider struct {
	recording

	queue sync.Mutex
	errs  []error
	texts []string
}

// NewScriptedMockProvider queues responses.
func NewScriptedMockProvider(responses ...string) *ScriptedMockProvider {
	return &ScriptedMockProvider{texts: append([]string(nil), responses...)}
}

// FailFirst queues errs ahead of the responses.
func (s *ScriptedMockProvider) FailFirst(errs ...error) *ScriptedMockProvider {
	s.queue.Lock()
	defer s.queue.Unlock()
	s.errs = append(s.errs, errs...)
	return s
}

// AddResponse appends a response to the queue.
func (s *ScriptedMockProvider) AddResponse(response string) {
	s.queue.Lock()
	defer s.queue.Unlock()
	s.texts = append(s.texts, response)
}

func (s *ScriptedMockProvider) Chat(_ context.Context, req ChatRequest) (*ChatResponse, error) {
	call := s.record(req)

	s.queue.Lock()
	defer s.queue.Unlock()
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	if len(s.texts) == 0 {
		return nil, fmt.Errorf("scripted mock: no response left for call %d", call)
	}
	content := s.texts[0]
	s.texts = s.texts[1:]
	return &ChatResponse{Content: content, Usage: estimateUsage(req, content)}, nil
}

// MatchRule answers requests whose system prompt contains Marker.
type MatchRule struct {
	Marker   string
	Response string
}

// MatchMockProvider picks the response of the first rule whose marker appears
// in the request's system turns, or Fallback. Answers do not depend on call
// order, so concurrent roles get stable replies.
type MatchMockProvider struct {
	Rules    []MatchRule
	Fallback string
}

func (p *MatchMockProvider) Chat(_ context.Context, req ChatRequest) (*ChatResponse, error) {
	var system strings.Builder
	for _, msg := range req.Messages {
		if msg.Role == RoleSystem {
			system.WriteString(msg.Content)
			system.WriteByte('\n')
		}
	}
	prompt := system.String()
	content := p.Fallback
	for _, rule := range p.Rules {
		if strings.Contains(prompt, rule.Marker) {
			content = rule.Response
			break
		}
	}
	return &ChatResponse{Content: content, Usage: estimateUsage(req, content)}, nil
}
