// Package testutil provides test doubles shared across packages.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// MockModelName is the provider-qualified name the mock registers under.
const MockModelName = "mock/test-model"

// MockLLM provides deterministic LLM responses for testing.
// It matches user message content against registered patterns and
// returns the corresponding response, optionally with tool requests.
//
// Thread-safe for concurrent use.
type MockLLM struct {
	mu        sync.Mutex
	responses []mockRule
	fallback  string
	calls     []MockCall
}

type mockRule struct {
	pattern  string            // substring match in user message
	response string            // text response
	tools    []*ai.ToolRequest // tool calls to request (nil = text only)
}

// MockCall records a single call to the mock model.
type MockCall struct {
	UserMessage string // last user message text
	Response    string // response text returned
}

// NewMockLLM creates a mock LLM with the given fallback response.
// The fallback is returned when no pattern matches.
func NewMockLLM(fallback string) *MockLLM {
	return &MockLLM{fallback: fallback}
}

// AddResponse registers a pattern-response pair.
// When a user message contains the pattern (case-insensitive), the
// response is returned. First registered match wins.
func (m *MockLLM) AddResponse(pattern, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockRule{
		pattern:  strings.ToLower(pattern),
		response: response,
	})
}

// AddToolResponse registers a pattern that triggers tool requests.
func (m *MockLLM) AddToolResponse(pattern string, tools []*ai.ToolRequest, textResponse string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockRule{
		pattern:  strings.ToLower(pattern),
		response: textResponse,
		tools:    tools,
	})
}

// Calls returns a copy of all recorded calls.
func (m *MockLLM) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]MockCall, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// Reset clears all recorded calls (keeps registered responses).
func (m *MockLLM) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// RegisterModel registers the mock as a Genkit model under MockModelName.
func (m *MockLLM) RegisterModel(g *genkit.Genkit) ai.Model {
	return genkit.DefineModel(g, MockModelName, &ai.ModelOptions{
		Label: "Mock Test Model",
		Supports: &ai.ModelSupports{
			Multiturn:  true,
			Tools:      true,
			ToolChoice: true,
			SystemRole: true,
			Media:      false,
		},
	}, m.generate)
}

// generate is the Genkit model function.
func (m *MockLLM) generate(ctx context.Context, req *ai.ModelRequest, cb ai.ModelStreamCallback) (*ai.ModelResponse, error) {
	// Extract last user message
	var userText string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == ai.RoleUser {
			userText = req.Messages[i].Text()
			break
		}
	}

	// Find matching rule
	m.mu.Lock()
	var matched *mockRule
	lower := strings.ToLower(userText)
	for i := range m.responses {
		if strings.Contains(lower, m.responses[i].pattern) {
			matched = &m.responses[i]
			break
		}
	}

	responseText := m.fallback
	if matched != nil {
		responseText = matched.response
	}

	m.calls = append(m.calls, MockCall{
		UserMessage: userText,
		Response:    responseText,
	})
	m.mu.Unlock()

	if cb != nil {
		_ = cb(ctx, &ai.ModelResponseChunk{
			Content: []*ai.Part{ai.NewTextPart(responseText)},
		})
	}

	var parts []*ai.Part
	if matched != nil && len(matched.tools) > 0 {
		for _, tr := range matched.tools {
			parts = append(parts, &ai.Part{
				Kind:        ai.PartToolRequest,
				ToolRequest: tr,
			})
		}
	}
	parts = append(parts, ai.NewTextPart(responseText))

	return &ai.ModelResponse{
		Request: req,
		Message: &ai.Message{
			Role:    ai.RoleModel,
			Content: parts,
		},
	}, nil
}
