package genai

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoptalk-demo/shoptalk/internal/conversation"
	"github.com/shoptalk-demo/shoptalk/internal/log"
	"github.com/shoptalk-demo/shoptalk/internal/registry"
	"github.com/shoptalk-demo/shoptalk/internal/testutil"
	"github.com/shoptalk-demo/shoptalk/internal/toolcall"
)

func newTestCompleter(t *testing.T, mock *testutil.MockLLM) *Completer {
	t.Helper()

	g := genkit.Init(context.Background())
	mock.RegisterModel(g)

	reg, err := registry.New()
	require.NoError(t, err)

	c, err := NewCompleter(g, reg, testutil.MockModelName, log.NewNop())
	require.NoError(t, err)
	return c
}

func TestComplete_MapsToolRequests(t *testing.T) {
	mock := testutil.NewMockLLM("fallback")
	mock.AddToolResponse("list the users", []*ai.ToolRequest{
		{Ref: "call-1", Name: registry.NameListUsers, Input: map[string]any{}},
	}, "")
	c := newTestCompleter(t, mock)

	resp, err := c.Complete(context.Background(), conversation.Request{
		Messages: []toolcall.Message{
			{Role: toolcall.RoleSystem, Content: "system prompt"},
			{Role: toolcall.RoleUser, Content: "please list the users"},
		},
		Temperature: 0.1,
		ForceTool:   true,
	})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	tc := resp.ToolCalls[0]
	assert.Equal(t, "call-1", tc.ID)
	assert.Equal(t, toolcall.TypeFunction, tc.Type)
	assert.Equal(t, registry.NameListUsers, tc.Function.Name)
	assert.JSONEq(t, `{}`, tc.Function.Arguments)
}

func TestComplete_ArgumentsAreJSONEncoded(t *testing.T) {
	mock := testutil.NewMockLLM("")
	mock.AddToolResponse("update", []*ai.ToolRequest{
		{Ref: "call-7", Name: registry.NameUpdateUserRecord, Input: map[string]any{
			"user_id": "u1",
			"field":   "status",
			"value":   "inactive",
		}},
	}, "")
	c := newTestCompleter(t, mock)

	resp, err := c.Complete(context.Background(), conversation.Request{
		Messages: []toolcall.Message{
			{Role: toolcall.RoleUser, Content: "update u1 status"},
		},
	})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	var args map[string]string
	require.NoError(t, json.Unmarshal([]byte(resp.ToolCalls[0].Function.Arguments), &args))
	assert.Equal(t, "u1", args["user_id"])
	assert.Equal(t, "status", args["field"])
	assert.Equal(t, "inactive", args["value"])
}

func TestComplete_MissingRefGetsID(t *testing.T) {
	mock := testutil.NewMockLLM("")
	mock.AddToolResponse("reset", []*ai.ToolRequest{
		{Name: registry.NameResetDB, Input: map[string]any{}},
	}, "")
	c := newTestCompleter(t, mock)

	resp, err := c.Complete(context.Background(), conversation.Request{
		Messages: []toolcall.Message{{Role: toolcall.RoleUser, Content: "reset the db"}},
	})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.NotEmpty(t, resp.ToolCalls[0].ID, "a missing ref must be replaced by a generated ID")
}

func TestComplete_TextOnlyResponse(t *testing.T) {
	mock := testutil.NewMockLLM("just text")
	c := newTestCompleter(t, mock)

	resp, err := c.Complete(context.Background(), conversation.Request{
		Messages: []toolcall.Message{{Role: toolcall.RoleUser, Content: "anything"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "just text", resp.Content)
	assert.Empty(t, resp.ToolCalls)
}

func TestFullModelName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		provider, model, want string
	}{
		{ProviderOpenAI, "gpt-4o-mini", "openai/gpt-4o-mini"},
		{ProviderOllama, "llama3.3", "ollama/llama3.3"},
		{"", "gemini-2.5-flash", "googleai/gemini-2.5-flash"},
		{ProviderOpenAI, "mock/test-model", "mock/test-model"},
	}
	for _, tt := range tests {
		if got := FullModelName(tt.provider, tt.model); got != tt.want {
			t.Errorf("FullModelName(%q, %q) = %q, want %q", tt.provider, tt.model, got, tt.want)
		}
	}
}

func TestToGenkitMessages_ToolCallPairing(t *testing.T) {
	t.Parallel()

	msgs := []toolcall.Message{
		{Role: toolcall.RoleUser, Content: "list users"},
		{Role: toolcall.RoleAssistant, Content: "", ToolCalls: []toolcall.ToolCall{{
			ID:       "c1",
			Type:     toolcall.TypeFunction,
			Function: toolcall.FunctionCall{Name: registry.NameListUsers, Arguments: "{}"},
			Status:   toolcall.StatusOK,
			Result:   []any{},
		}}},
	}

	out := toGenkitMessages(msgs)

	// user + model(with tool request) + tool(with response)
	require.Len(t, out, 3)
	assert.Equal(t, ai.RoleUser, out[0].Role)
	assert.Equal(t, ai.RoleModel, out[1].Role)
	require.NotEmpty(t, out[1].Content)
	assert.Equal(t, ai.PartToolRequest, out[1].Content[0].Kind)
	assert.Equal(t, ai.RoleTool, out[2].Role)
	assert.Equal(t, ai.PartToolResponse, out[2].Content[0].Kind)
}
