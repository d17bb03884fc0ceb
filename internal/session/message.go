// Package session implements the append-only, channel-keyed conversation
// log described by the agent's data model: messages made of ordered
// content blocks, persisted as a JSON array per session key.
package session

import "encoding/json"

// Role discriminates a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType discriminates a ContentBlock.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// ContentBlock is one element of a Message's content array. Only the
// fields relevant to Type are populated; the rest are zero values.
type ContentBlock struct {
	Type BlockType `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// tool_use (assistant only)
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result (user only)
	ToolUseID string `json:"tool_use_id,omitempty"`
	Output    string `json:"content,omitempty"`
}

// Message is one entry in a Session's history.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}
