// Package tool implements the built-in tool handlers (shell, file I/O,
// memory) and the static name→handler registry the agent loop dispatches
// through.
package tool

import (
	"encoding/json"
	"fmt"
)

// Handler executes one tool call against its raw JSON input, scoped to
// workspace.
type Handler func(inputJSON, workspace string) Result

// Definition is a tool's Claude-style schema entry, as emitted by
// Definitions for both adapters (the OpenAI adapter translates it further).
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Registry is a static name→handler map plus the schema metadata used to
// advertise tools to a provider.
type Registry struct {
	handlers map[string]Handler
	defs     []Definition
}

// NewRegistry builds the registry of built-in tools: shell, file_read,
// file_write, plus remember/recall when mem is non-nil.
func NewRegistry(mem MemoryBackend) *Registry {
	r := &Registry{handlers: map[string]Handler{}}

	r.register(Definition{
		Name:        "shell",
		Description: "Run a shell command in the workspace and return its combined stdout/stderr.",
		InputSchema: schema(map[string]any{
			"command": map[string]any{"type": "string", "description": "Command to run via the POSIX shell."},
		}, "command"),
	}, ShellHandler)

	r.register(Definition{
		Name:        "file_read",
		Description: "Read a file's contents relative to the workspace.",
		InputSchema: schema(map[string]any{
			"path": map[string]any{"type": "string", "description": "Path relative to the workspace root."},
		}, "path"),
	}, FileReadHandler)

	r.register(Definition{
		Name:        "file_write",
		Description: "Write content to a file relative to the workspace, creating parent directories as needed.",
		InputSchema: schema(map[string]any{
			"path":    map[string]any{"type": "string", "description": "Path relative to the workspace root."},
			"content": map[string]any{"type": "string", "description": "Content to write."},
		}, "path", "content"),
	}, FileWriteHandler)

	if mem != nil {
		r.register(Definition{
			Name:        "remember",
			Description: "Store a key/value fact in long-term memory.",
			InputSchema: schema(map[string]any{
				"key":   map[string]any{"type": "string"},
				"value": map[string]any{"type": "string"},
			}, "key", "value"),
		}, rememberHandler(mem))

		r.register(Definition{
			Name:        "recall",
			Description: "Search long-term memory for facts related to a query.",
			InputSchema: schema(map[string]any{
				"query": map[string]any{"type": "string"},
			}, "query"),
		}, recallHandler(mem))
	}

	return r
}

func schema(properties map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func (r *Registry) register(def Definition, h Handler) {
	r.handlers[def.Name] = h
	r.defs = append(r.defs, def)
}

// Definitions returns the Claude-style schema array for every registered
// tool, in registration order.
func (r *Registry) Definitions() []Definition { return r.defs }

// Dispatch looks up name and runs it; an unknown name fails without
// touching the filesystem or any handler.
func (r *Registry) Dispatch(name, inputJSON, workspace string) Result {
	h, found := r.handlers[name]
	if !found {
		return fail(fmt.Sprintf("Unknown tool: %s", name))
	}
	return h(inputJSON, workspace)
}

// decodeInput unmarshals a tool's raw JSON input into dst, used by every
// built-in handler before touching its arguments.
func decodeInput(inputJSON string, dst any) error {
	if inputJSON == "" {
		return fmt.Errorf("empty input")
	}
	return json.Unmarshal([]byte(inputJSON), dst)
}
