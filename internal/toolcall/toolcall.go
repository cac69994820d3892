// Package toolcall defines the wire types shared by the dispatcher,
// the conversation orchestrator, and the HTTP API: chat messages and
// the tool call envelope the model emits and the dispatcher enriches.
package toolcall

import "encoding/json"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Tool call execution status, set by the dispatcher.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Message is a single entry in a conversation transcript.
// Messages are immutable once created; the transcript is append-only.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// FunctionCall names the tool the model chose and carries its arguments
// as a JSON-encoded string, exactly as the provider emits them.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is one proposed function invocation. The model supplies
// ID, Type, and Function; the dispatcher enriches the call with Status,
// Result, and DurationMs after execution. On the wire the enrichment
// fields are absent until the call has been dispatched; MarshalJSON
// keys this on Status.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`

	// Set by the dispatcher.
	Status     string `json:"status,omitempty"`
	Result     any    `json:"result,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`
}

// MarshalJSON omits Status, Result, and DurationMs while the call is
// still a proposal. Once dispatched (Status set), Result and DurationMs
// are always present, even when the result is null or the call finished
// in under a millisecond.
func (tc ToolCall) MarshalJSON() ([]byte, error) {
	type proposed struct {
		ID       string       `json:"id"`
		Type     string       `json:"type"`
		Function FunctionCall `json:"function"`
	}
	p := proposed{ID: tc.ID, Type: tc.Type, Function: tc.Function}
	if tc.Status == "" {
		return json.Marshal(p)
	}
	return json.Marshal(struct {
		proposed
		Status     string `json:"status"`
		Result     any    `json:"result"`
		DurationMs int64  `json:"durationMs"`
	}{
		proposed:   p,
		Status:     tc.Status,
		Result:     tc.Result,
		DurationMs: tc.DurationMs,
	})
}

// TypeFunction is the only tool call type this system knows.
const TypeFunction = "function"

// ErrorResult is the uniform error payload placed in ToolCall.Result
// when a call fails.
type ErrorResult struct {
	Error string `json:"error"`
}

// MarshalResult returns the call's result as JSON, for logging and tests.
// A nil result marshals to "null", which is a valid ok payload
// ("not found" is a normal result, not an error).
func (tc ToolCall) MarshalResult() ([]byte, error) {
	return json.Marshal(tc.Result)
}
