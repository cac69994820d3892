// Package dispatch executes tool calls proposed by the model against
// the mock data store.
//
// The dispatcher is the containment boundary for per-call faults: it
// always returns a well-formed, enriched ToolCall. Malformed argument
// JSON degrades to an empty argument set, unknown tools and validation
// failures become error envelopes, and "not found" is an ok result with
// a null payload. Only the shared store carries state between calls.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shoptalk-demo/shoptalk/internal/registry"
	"github.com/shoptalk-demo/shoptalk/internal/store"
	"github.com/shoptalk-demo/shoptalk/internal/toolcall"
)

// Dispatcher routes tool calls to store operations.
type Dispatcher struct {
	store  *store.Store
	logger *slog.Logger
}

// New creates a dispatcher bound to the given store.
// A nil logger falls back to slog.Default().
func New(st *store.Store, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{store: st, logger: logger}
}

// Execute runs one proposed tool call and returns it enriched with
// status, result, and duration. It never returns an error: every fault
// is folded into the call's own error envelope so one bad call cannot
// abort the turn.
func (d *Dispatcher) Execute(ctx context.Context, tc toolcall.ToolCall) toolcall.ToolCall {
	start := time.Now()

	status := toolcall.StatusOK
	var result any

	args := parseArgs(tc.Function.Arguments)

	switch tc.Function.Name {
	case registry.NameSearchProduct:
		result = d.store.SearchProduct(args.str("product_name"))

	case registry.NameSearchUser:
		result = userOrNil(d.store.SearchUser(args.str("user_id")))

	case registry.NameSearchUsersByName:
		result = d.store.SearchUsersByName(args.str("name"))

	case registry.NameUpdateUserRecord:
		field := args.str("field")
		if !store.UpdatableField(field) {
			status = toolcall.StatusError
			result = toolcall.ErrorResult{Error: fmt.Sprintf("unknown field: %q (allowed: name, email, status)", field)}
			break
		}
		u, err := d.store.UpdateUserRecord(args.str("user_id"), field, args.str("value"))
		if err != nil {
			status = toolcall.StatusError
			result = toolcall.ErrorResult{Error: err.Error()}
		} else {
			result = userOrNil(u)
		}

	case registry.NameListUsers:
		result = d.store.ListUsers()

	case registry.NameListProducts:
		result = d.store.ListProducts()

	case registry.NameResetDB:
		result = d.store.Reset()

	default:
		status = toolcall.StatusError
		result = toolcall.ErrorResult{Error: "Unknown tool"}
	}

	tc.Status = status
	tc.Result = result
	tc.DurationMs = time.Since(start).Milliseconds()

	d.logger.Debug("tool call executed",
		"tool", tc.Function.Name,
		"status", tc.Status,
		"duration_ms", tc.DurationMs,
	)
	return tc
}

// ExecuteAll runs every proposed call in emission order and returns the
// enriched calls in the same order, so the caller can correlate results
// by position as well as by ID. Calls run sequentially; when two calls
// in one turn target the same record, the last write wins.
func (d *Dispatcher) ExecuteAll(ctx context.Context, calls []toolcall.ToolCall) []toolcall.ToolCall {
	executed := make([]toolcall.ToolCall, len(calls))
	for i, tc := range calls {
		executed[i] = d.Execute(ctx, tc)
	}
	return executed
}

// userOrNil converts a *store.User into an untyped result. A typed nil
// pointer inside an interface would marshal as null but compare
// non-nil; normalizing here keeps "not found" a plain null.
func userOrNil(u *store.User) any {
	if u == nil {
		return nil
	}
	return u
}

// arguments is the leniently parsed tool argument set.
type arguments map[string]any

// parseArgs decodes the JSON-encoded argument string. Malformed or
// empty input yields an empty set rather than failing the call; missing
// arguments then read as "".
func parseArgs(raw string) arguments {
	if raw == "" {
		return arguments{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return arguments{}
	}
	if m == nil {
		return arguments{}
	}
	return m
}

// str reads a string argument, stringifying non-string scalars the way
// the model sometimes emits them (numbers, bools). Missing or null
// values read as "".
func (a arguments) str(key string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
