// Package provider implements the two chat/tool-use back-ends (a
// Claude-style and an OpenAI-style API) behind one capability interface, so
// the agent loop never branches on which provider it is talking to.
package provider

import "github.com/haeli05/seaclaw/internal/httpclient"

// ToolDefinition is a tool's Claude-style schema, the common currency both
// adapters accept (the OpenAI adapter translates it on the way out).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolCall is a provider-unified tool invocation. Input is kept as a
// textual JSON-shaped string because providers may emit it fragmented
// during streaming; assembly is finished before this struct is built.
type ToolCall struct {
	ID    string
	Name  string
	Input string
}

// StopReason mirrors the provider's termination signal.
type StopReason string

const (
	StopEndTurn StopReason = "end_turn"
	StopToolUse StopReason = "tool_use"
)

// Usage carries token accounting; the core does not do cost accounting
// (explicit non-goal) but keeps the raw counts for callers that want them.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// ChatResponse is the provider-unified result of one turn.
type ChatResponse struct {
	Text       string
	ToolCalls  []ToolCall
	StopReason StopReason
	Usage      Usage
}

// NumTools reports how many tool calls this response carries.
func (r *ChatResponse) NumTools() int { return len(r.ToolCalls) }

// TextDeltaFunc receives model text as it streams in.
type TextDeltaFunc func(delta string)

// Credentials bundles what an adapter needs to authenticate.
type Credentials struct {
	APIKey  string
	BaseURL string // overrides the provider's default endpoint when set
}

// Provider is the capability interface both adapters satisfy, selected once
// at session start rather than compared by name on every turn (spec.md §9
// design note on provider polymorphism).
type Provider interface {
	Chat(http *httpclient.Client, creds Credentials, model, system, messagesJSON string, tools []ToolDefinition, temperature float64) (*ChatResponse, error)
	ChatStream(http *httpclient.Client, creds Credentials, model, system, messagesJSON string, tools []ToolDefinition, temperature float64, onText TextDeltaFunc) (*ChatResponse, error)
}

// MaxTokens is the fixed ceiling both adapters request.
const MaxTokens = 8192

// errorResponse synthesizes a ChatResponse carrying only text, used for
// every error surface spec.md §7 names (transport, parse, provider-api):
// the loop always gets something it can save and show the user.
func errorResponse(text string) *ChatResponse {
	return &ChatResponse{Text: text, StopReason: StopEndTurn}
}
