// Package conversation orchestrates one chat turn: history in, model
// call out, proposed tool calls dispatched, enriched assistant message
// back.
//
// The orchestrator depends on the Completer interface, not on any
// provider transport. One turn issues exactly one model call with no
// retry, backoff, or streaming.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shoptalk-demo/shoptalk/internal/registry"
	"github.com/shoptalk-demo/shoptalk/internal/store"
	"github.com/shoptalk-demo/shoptalk/internal/toolcall"
)

// Sentinel errors for turn-level failures. Per-tool-call faults never
// surface here; they are contained in each call's result envelope.
var (
	// ErrNoResponse indicates the model call succeeded but yielded no
	// assistant message at all. The turn must not synthesize output.
	ErrNoResponse = errors.New("no response from model")

	// ErrModelUnavailable wraps any transport-level fault of the
	// outbound model call (network, auth, rate limit, timeout).
	ErrModelUnavailable = errors.New("assistant unavailable")
)

// DefaultTemperature favors determinism over creativity: tool selection
// should be reproducible for a demo/test environment.
const DefaultTemperature = 0.1

// DefaultModelTimeout bounds the outbound model call. The reference
// system had no timeout; a server cannot afford an unbounded hang.
const DefaultModelTimeout = 30 * time.Second

// Request is the provider-agnostic shape of one model call.
type Request struct {
	Messages    []toolcall.Message    // system instruction first, then history
	Tools       []registry.Descriptor // full catalog
	Temperature float64
	ForceTool   bool // tool_choice=required; always true in this system
}

// Response is what a provider hands back: free-text content (often
// empty when a tool was called) and the proposed, un-executed calls.
type Response struct {
	Content   string
	ToolCalls []toolcall.ToolCall
}

// Completer is the outbound model dependency. Implementations wrap a
// concrete provider; the orchestrator only ever sees this shape.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Dispatcher executes proposed tool calls. Satisfied by
// *dispatch.Dispatcher.
type Dispatcher interface {
	ExecuteAll(ctx context.Context, calls []toolcall.ToolCall) []toolcall.ToolCall
}

// Turn is the result of one completed conversation turn.
type Turn struct {
	Content   string              `json:"content"`
	ToolCalls []toolcall.ToolCall `json:"tool_calls"`
	DB        store.Snapshot      `json:"db"`
}

// Config carries the orchestrator's dependencies.
type Config struct {
	Completer  Completer
	Dispatcher Dispatcher
	Registry   *registry.Registry
	Store      *store.Store
	Logger     *slog.Logger

	// Temperature for the model call; zero means DefaultTemperature.
	Temperature float64

	// ModelTimeout bounds each outbound call; zero means
	// DefaultModelTimeout.
	ModelTimeout time.Duration
}

func (cfg Config) validate() error {
	if cfg.Completer == nil {
		return errors.New("completer is required")
	}
	if cfg.Dispatcher == nil {
		return errors.New("dispatcher is required")
	}
	if cfg.Registry == nil {
		return errors.New("registry is required")
	}
	if cfg.Store == nil {
		return errors.New("store is required")
	}
	return nil
}

// Orchestrator runs conversation turns. Stateless apart from injected
// dependencies; safe for concurrent use.
type Orchestrator struct {
	completer    Completer
	dispatcher   Dispatcher
	registry     *registry.Registry
	store        *store.Store
	logger       *slog.Logger
	temperature  float64
	modelTimeout time.Duration
}

// New creates an orchestrator from cfg.
func New(cfg Config) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	temp := cfg.Temperature
	if temp == 0 {
		temp = DefaultTemperature
	}
	timeout := cfg.ModelTimeout
	if timeout <= 0 {
		timeout = DefaultModelTimeout
	}

	return &Orchestrator{
		completer:    cfg.Completer,
		dispatcher:   cfg.Dispatcher,
		registry:     cfg.Registry,
		store:        cfg.Store,
		logger:       logger,
		temperature:  temp,
		modelTimeout: timeout,
	}, nil
}

// Converse runs one turn over the given history and returns the
// enriched assistant output plus a fresh store snapshot.
//
// Any fault of the model call itself is re-raised as a single coarse
// ErrModelUnavailable; the caller owns the apology message and keeps
// the user's message in the transcript. A successful call that carries
// no assistant message is ErrNoResponse and equally fatal for the turn.
func (o *Orchestrator) Converse(ctx context.Context, history []toolcall.Message) (*Turn, error) {
	messages := make([]toolcall.Message, 0, len(history)+1)
	messages = append(messages, toolcall.Message{
		Role:    toolcall.RoleSystem,
		Content: o.registry.SystemPrompt(),
	})
	messages = append(messages, history...)

	callCtx, cancel := context.WithTimeout(ctx, o.modelTimeout)
	defer cancel()

	resp, err := o.completer.Complete(callCtx, Request{
		Messages:    messages,
		Tools:       o.registry.Tools(),
		Temperature: o.temperature,
		ForceTool:   true,
	})
	if err != nil {
		if errors.Is(err, ErrNoResponse) {
			return nil, err
		}
		o.logger.Error("model call failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if resp == nil {
		return nil, ErrNoResponse
	}

	executed := o.dispatcher.ExecuteAll(ctx, resp.ToolCalls)

	o.logger.Debug("turn completed",
		"history_len", len(history),
		"tool_calls", len(executed),
	)

	return &Turn{
		Content:   resp.Content,
		ToolCalls: executed,
		DB:        o.store.Snapshot(),
	}, nil
}
