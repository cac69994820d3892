// Package genai implements the conversation.Completer interface on top
// of Firebase Genkit.
//
// The orchestrator owns tool execution, so generation always runs with
// return-tool-requests: Genkit hands proposed calls back instead of
// invoking the registered handlers. The handlers exist only so the
// provider sees a complete tool definition (name, description, input
// schema derived from the registry's input structs).
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/google/uuid"

	"github.com/shoptalk-demo/shoptalk/internal/conversation"
	"github.com/shoptalk-demo/shoptalk/internal/registry"
	"github.com/shoptalk-demo/shoptalk/internal/toolcall"
)

// AI provider identifiers.
const (
	ProviderGoogleAI = "googleai"
	ProviderOpenAI   = "openai"
	ProviderOllama   = "ollama"
)

// InitConfig selects the provider plugin for Genkit initialization.
type InitConfig struct {
	Provider   string // googleai (default), openai, ollama
	ModelName  string // bare model name, e.g. "gpt-4o-mini"
	OllamaHost string // only used when Provider is ollama
}

// Init initializes Genkit with the configured provider plugin.
// API keys (GEMINI_API_KEY, OPENAI_API_KEY) are read by the plugins
// directly from the environment.
func Init(ctx context.Context, cfg InitConfig) (*genkit.Genkit, error) {
	var g *genkit.Genkit

	switch cfg.Provider {
	case ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery)
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)

	case ProviderOpenAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}

	default: // googleai
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with googleai provider")
		}
	}

	return g, nil
}

// FullModelName returns the provider-qualified model name for Genkit,
// e.g. "openai/gpt-4o-mini". Names already containing "/" pass through.
func FullModelName(provider, model string) string {
	for i := 0; i < len(model); i++ {
		if model[i] == '/' {
			return model
		}
	}
	if provider == "" {
		provider = ProviderGoogleAI
	}
	return provider + "/" + model
}

// Completer is the Genkit-backed conversation.Completer.
type Completer struct {
	g         *genkit.Genkit
	modelName string
	toolRefs  []ai.ToolRef
	logger    *slog.Logger
}

// NewCompleter registers the catalog's tools with Genkit and returns a
// ready Completer. modelName must be provider-qualified.
func NewCompleter(g *genkit.Genkit, reg *registry.Registry, modelName string, logger *slog.Logger) (*Completer, error) {
	if g == nil {
		return nil, errors.New("genkit instance is required")
	}
	if reg == nil {
		return nil, errors.New("registry is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	refs, err := defineTools(g, reg)
	if err != nil {
		return nil, err
	}

	logger.Debug("completer initialized", "model", modelName, "tools", len(refs))
	return &Completer{
		g:         g,
		modelName: modelName,
		toolRefs:  refs,
		logger:    logger,
	}, nil
}

// errOutOfBand guards the stub handlers. Generation runs with
// WithReturnToolRequests, so these handlers are never invoked; if one
// is, the wiring is broken.
var errOutOfBand = errors.New("tool execution happens in the dispatcher, not in genkit")

// defineTools registers one Genkit tool per catalog entry, in catalog
// order. The typed input structs give the provider the same parameter
// schema the registry advertises.
func defineTools(g *genkit.Genkit, reg *registry.Registry) ([]ai.ToolRef, error) {
	descs := reg.Tools()
	refs := make([]ai.ToolRef, 0, len(descs))

	for _, d := range descs {
		var tool ai.Tool
		switch d.Name {
		case registry.NameSearchProduct:
			tool = genkit.DefineTool(g, d.Name, d.Description,
				func(_ *ai.ToolContext, _ registry.SearchProductInput) (any, error) {
					return nil, errOutOfBand
				})
		case registry.NameSearchUser:
			tool = genkit.DefineTool(g, d.Name, d.Description,
				func(_ *ai.ToolContext, _ registry.SearchUserInput) (any, error) {
					return nil, errOutOfBand
				})
		case registry.NameSearchUsersByName:
			tool = genkit.DefineTool(g, d.Name, d.Description,
				func(_ *ai.ToolContext, _ registry.SearchUsersByNameInput) (any, error) {
					return nil, errOutOfBand
				})
		case registry.NameUpdateUserRecord:
			tool = genkit.DefineTool(g, d.Name, d.Description,
				func(_ *ai.ToolContext, _ registry.UpdateUserRecordInput) (any, error) {
					return nil, errOutOfBand
				})
		case registry.NameListUsers, registry.NameListProducts, registry.NameResetDB:
			tool = genkit.DefineTool(g, d.Name, d.Description,
				func(_ *ai.ToolContext, _ registry.EmptyInput) (any, error) {
					return nil, errOutOfBand
				})
		default:
			return nil, fmt.Errorf("no input shape for tool %q", d.Name)
		}
		refs = append(refs, tool)
	}
	return refs, nil
}

// Complete issues one model call with the tool catalog and forced tool
// choice, and maps the proposed tool requests back into the wire shape.
func (c *Completer) Complete(ctx context.Context, req conversation.Request) (*conversation.Response, error) {
	messages := toGenkitMessages(req.Messages)

	opts := []ai.GenerateOption{
		ai.WithModelName(c.modelName),
		ai.WithMessages(messages...),
		ai.WithTools(c.toolRefs...),
		ai.WithReturnToolRequests(true),
		ai.WithConfig(&ai.GenerationCommonConfig{
			Temperature: req.Temperature,
		}),
	}
	if req.ForceTool {
		opts = append(opts, ai.WithToolChoice(ai.ToolChoiceRequired))
	}

	resp, err := genkit.Generate(ctx, c.g, opts...)
	if err != nil {
		return nil, fmt.Errorf("generating completion: %w", err)
	}
	if resp == nil || resp.Message == nil {
		return nil, conversation.ErrNoResponse
	}

	calls, err := toToolCalls(resp.ToolRequests())
	if err != nil {
		return nil, err
	}

	return &conversation.Response{
		Content:   resp.Text(),
		ToolCalls: calls,
	}, nil
}

// toGenkitMessages converts transcript messages to Genkit's shape.
// Assistant messages that carried tool calls become a model message
// with tool request parts followed by a tool message with the recorded
// results, so the provider sees a coherent call/response pairing.
func toGenkitMessages(msgs []toolcall.Message) []*ai.Message {
	out := make([]*ai.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case toolcall.RoleSystem:
			out = append(out, &ai.Message{
				Role:    ai.RoleSystem,
				Content: []*ai.Part{ai.NewTextPart(m.Content)},
			})

		case toolcall.RoleAssistant:
			parts := []*ai.Part{}
			if m.Content != "" {
				parts = append(parts, ai.NewTextPart(m.Content))
			}
			var responses []*ai.Part
			for _, tc := range m.ToolCalls {
				parts = append(parts, &ai.Part{
					Kind: ai.PartToolRequest,
					ToolRequest: &ai.ToolRequest{
						Ref:   tc.ID,
						Name:  tc.Function.Name,
						Input: parseInput(tc.Function.Arguments),
					},
				})
				if tc.Status != "" {
					responses = append(responses, &ai.Part{
						Kind: ai.PartToolResponse,
						ToolResponse: &ai.ToolResponse{
							Ref:    tc.ID,
							Name:   tc.Function.Name,
							Output: tc.Result,
						},
					})
				}
			}
			if len(parts) == 0 {
				parts = append(parts, ai.NewTextPart(""))
			}
			out = append(out, &ai.Message{Role: ai.RoleModel, Content: parts})
			if len(responses) > 0 {
				out = append(out, &ai.Message{Role: ai.RoleTool, Content: responses})
			}

		default: // user
			out = append(out, &ai.Message{
				Role:    ai.RoleUser,
				Content: []*ai.Part{ai.NewTextPart(m.Content)},
			})
		}
	}
	return out
}

// parseInput best-effort decodes a JSON argument string for replay to
// the provider. Undecodable input is passed through as raw text.
func parseInput(raw string) any {
	if raw == "" {
		return map[string]any{}
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// toToolCalls maps Genkit tool requests into the wire envelope,
// preserving emission order. The model's ref becomes the call ID; a
// missing ref gets a fresh UUID so results stay correlatable.
func toToolCalls(reqs []*ai.ToolRequest) ([]toolcall.ToolCall, error) {
	calls := make([]toolcall.ToolCall, 0, len(reqs))
	for _, tr := range reqs {
		args, err := json.Marshal(tr.Input)
		if err != nil {
			return nil, fmt.Errorf("encoding arguments for %s: %w", tr.Name, err)
		}

		id := tr.Ref
		if id == "" {
			id = uuid.NewString()
		}

		calls = append(calls, toolcall.ToolCall{
			ID:   id,
			Type: toolcall.TypeFunction,
			Function: toolcall.FunctionCall{
				Name:      tr.Name,
				Arguments: string(args),
			},
		})
	}
	return calls, nil
}
