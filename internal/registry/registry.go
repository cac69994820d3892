// Package registry holds the fixed catalog of tools the model may call
// and the system instruction that forces tool-only responses.
//
// The catalog is a versionable artifact, not runtime state: names,
// descriptions, and parameter schemas exist to inform the model. The
// registry performs no runtime enforcement; argument validation happens
// in the dispatcher.
package registry

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool names. This is the single source of truth; the dispatcher
// switches on these and the genai layer registers them with the model
// provider.
const (
	NameSearchProduct     = "search_product"
	NameSearchUser        = "search_user"
	NameSearchUsersByName = "search_users_by_name"
	NameUpdateUserRecord  = "update_user_record"
	NameListUsers         = "list_users"
	NameListProducts      = "list_products"
	NameResetDB           = "reset_db"
)

// Input shapes for the tools that take parameters. The JSON schema each
// tool advertises is derived from these structs; omitempty marks a
// parameter optional.

// SearchProductInput selects products by name substring. Price is
// accepted for model convenience but not used as a filter.
type SearchProductInput struct {
	ProductName  string  `json:"product_name,omitempty" jsonschema:"The name of the product to search for"`
	ProductPrice float64 `json:"product_price,omitempty" jsonschema:"The price of the product to search for"`
}

// SearchUserInput selects a single user by ID.
type SearchUserInput struct {
	UserID string `json:"user_id" jsonschema:"The unique identifier of the user to search for"`
}

// SearchUsersByNameInput selects users by name substring.
type SearchUsersByNameInput struct {
	Name string `json:"name" jsonschema:"Name or partial name to search for"`
}

// UpdateUserRecordInput updates one field of one user record.
type UpdateUserRecordInput struct {
	UserID string `json:"user_id" jsonschema:"The unique identifier of the user to update"`
	Field  string `json:"field" jsonschema:"The field name to update (name, email, or status)"`
	Value  string `json:"value" jsonschema:"The new value to set for the specified field"`
}

// EmptyInput is the parameter shape for tools that take no arguments.
type EmptyInput struct{}

// Descriptor describes one callable tool to the model.
type Descriptor struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

// Registry is the ordered, immutable tool catalog.
type Registry struct {
	tools []Descriptor
	index map[string]Descriptor
}

// New builds the catalog. Schema derivation is done once here; a
// failure means a malformed input struct and is a programming error
// surfaced at startup.
func New() (*Registry, error) {
	type spec struct {
		name        string
		description string
		schema      func() (*jsonschema.Schema, error)
	}

	specs := []spec{
		{NameSearchProduct, "Search for a product by name in the product database",
			func() (*jsonschema.Schema, error) { return jsonschema.For[SearchProductInput](nil) }},
		{NameSearchUser, "Search for a user by their user ID",
			func() (*jsonschema.Schema, error) { return jsonschema.For[SearchUserInput](nil) }},
		{NameSearchUsersByName, "Search for users whose name contains the given substring",
			func() (*jsonschema.Schema, error) { return jsonschema.For[SearchUsersByNameInput](nil) }},
		{NameUpdateUserRecord, "Update a specific field in a user record",
			func() (*jsonschema.Schema, error) { return jsonschema.For[UpdateUserRecordInput](nil) }},
		{NameListUsers, "List all users in the database",
			func() (*jsonschema.Schema, error) { return jsonschema.For[EmptyInput](nil) }},
		{NameListProducts, "List all products in the database",
			func() (*jsonschema.Schema, error) { return jsonschema.For[EmptyInput](nil) }},
		{NameResetDB, "Reset the mock database to its initial state",
			func() (*jsonschema.Schema, error) { return jsonschema.For[EmptyInput](nil) }},
	}

	r := &Registry{
		tools: make([]Descriptor, 0, len(specs)),
		index: make(map[string]Descriptor, len(specs)),
	}
	for _, sp := range specs {
		schema, err := sp.schema()
		if err != nil {
			return nil, fmt.Errorf("deriving schema for %s: %w", sp.name, err)
		}
		d := Descriptor{Name: sp.name, Description: sp.description, Parameters: schema}
		r.tools = append(r.tools, d)
		r.index[sp.name] = d
	}
	return r, nil
}

// Tools returns the catalog in its fixed order.
func (r *Registry) Tools() []Descriptor {
	out := make([]Descriptor, len(r.tools))
	copy(out, r.tools)
	return out
}

// Names returns the tool names in catalog order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, d := range r.tools {
		names[i] = d.Name
	}
	return names
}

// Lookup returns the descriptor for a tool name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.index[name]
	return d, ok
}

// SystemPrompt returns the instruction that forces the model to answer
// every turn with exactly one tool call.
func (r *Registry) SystemPrompt() string {
	return systemPrompt
}

const systemPrompt = `You are a query generator assistant. Your job is to analyze user messages and determine the appropriate tool to call based on their request.

IMPORTANT RULES:
1. You MUST always use one of the available tools to respond - NEVER provide free text responses
2. Analyze the user's message carefully and choose the most appropriate tool
3. Only output valid JSON function calls - no explanations or additional text
4. If the user's request doesn't clearly match a tool, use the most relevant one based on context

Available tools:
- search_product: Use when the user wants to find or look up a product
- search_user: Use when the user wants to find information about a specific user
- search_users_by_name: Use when the user wants to find users by a name or partial name
- update_user_record: Use when the user wants to modify or update user information
- list_users: Use to list all users
- list_products: Use to list all products
- reset_db: Use to reset the demo database

Always respond with a tool call that best matches the user's intent.`
