package provider

import (
	"encoding/json"
	"fmt"

	"github.com/haeli05/seaclaw/internal/httpclient"
)

const (
	claudeBaseURL      = "https://api.anthropic.com/v1/messages"
	claudeAnthropicVer = "2023-06-01"
)

// Claude implements Provider against Anthropic's Messages API. The
// serialized session (already Claude-shaped content blocks, per
// internal/session) is passed straight through as the messages field.
type Claude struct{}

type claudeRequest struct {
	Model       string            `json:"model"`
	MaxTokens   int               `json:"max_tokens"`
	Temperature float64           `json:"temperature"`
	System      string            `json:"system,omitempty"`
	Messages    json.RawMessage   `json:"messages"`
	Tools       []ToolDefinition  `json:"tools,omitempty"`
	Stream      bool              `json:"stream,omitempty"`
}

type claudeContentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type claudeResponse struct {
	Content    []claudeContentBlock `json:"content"`
	StopReason string               `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (Claude) headers(creds Credentials) []httpclient.Header {
	return []httpclient.Header{
		{Key: "x-api-key", Value: creds.APIKey},
		{Key: "anthropic-version", Value: claudeAnthropicVer},
		{Key: "content-type", Value: "application/json"},
	}
}

func (c Claude) endpoint(creds Credentials) string {
	if creds.BaseURL != "" {
		return creds.BaseURL
	}
	return claudeBaseURL
}

func (c Claude) buildRequest(model, system, messagesJSON string, tools []ToolDefinition, temperature float64, stream bool) claudeRequest {
	return claudeRequest{
		Model:       model,
		MaxTokens:   MaxTokens,
		Temperature: temperature,
		System:      system,
		Messages:    json.RawMessage(messagesJSON),
		Tools:       tools,
		Stream:      stream,
	}
}

// Chat issues a non-streaming completion.
func (c Claude) Chat(http *httpclient.Client, creds Credentials, model, system, messagesJSON string, tools []ToolDefinition, temperature float64) (*ChatResponse, error) {
	req := c.buildRequest(model, system, messagesJSON, tools, temperature, false)
	body, err := json.Marshal(req)
	if err != nil {
		return errorResponse(fmt.Sprintf("marshal request: %v", err)), nil
	}

	resp, err := http.PostJSON(c.endpoint(creds), body, c.headers(creds))
	if err != nil || resp.Status == 0 {
		return errorResponse("no response from provider"), nil
	}

	var decoded claudeResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return errorResponse(fmt.Sprintf("parse failure: %v", err)), nil
	}
	if decoded.Error != nil {
		return errorResponse(decoded.Error.Message), nil
	}

	return claudeResponseToChatResponse(decoded), nil
}

func claudeResponseToChatResponse(decoded claudeResponse) *ChatResponse {
	out := &ChatResponse{
		StopReason: mapClaudeStopReason(decoded.StopReason),
		Usage:      Usage{InputTokens: decoded.Usage.InputTokens, OutputTokens: decoded.Usage.OutputTokens},
	}
	var text string
	for _, block := range decoded.Content {
		switch block.Type {
		case "text":
			text += block.Text
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID: block.ID, Name: block.Name, Input: string(block.Input),
			})
		}
	}
	out.Text = text
	return out
}

func mapClaudeStopReason(reason string) StopReason {
	switch reason {
	case "tool_use":
		return StopToolUse
	case "":
		return StopEndTurn
	default:
		return StopReason(reason)
	}
}

// claudeStreamEvent covers the union of fields used across the streaming
// event types this adapter cares about (message_start, content_block_start,
// content_block_delta, content_block_stop, message_delta).
type claudeStreamEvent struct {
	Type         string `json:"type"`
	Index        int    `json:"index"`
	ContentBlock *struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"content_block"`
	Delta *struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
		StopReason  string `json:"stop_reason"`
	} `json:"delta"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// inflightToolCall accumulates one tool_use block's id/name/argument
// fragments. Claude emits tool calls serially, so a single slot suffices
// (contrast the OpenAI adapter's 32-way index array).
type inflightToolCall struct {
	id, name string
	input    string
}

// ChatStream issues a streaming completion, forwarding text deltas to
// onText as they arrive; tool calls are accumulated silently and only
// finalized into the response once their content_block_stop arrives.
func (c Claude) ChatStream(http *httpclient.Client, creds Credentials, model, system, messagesJSON string, tools []ToolDefinition, temperature float64, onText TextDeltaFunc) (*ChatResponse, error) {
	req := c.buildRequest(model, system, messagesJSON, tools, temperature, true)
	body, err := json.Marshal(req)
	if err != nil {
		return errorResponse(fmt.Sprintf("marshal request: %v", err)), nil
	}

	out := &ChatResponse{StopReason: StopEndTurn}
	var text string
	var current *inflightToolCall

	streamErr := http.PostStream(c.endpoint(creds), body, c.headers(creds), func(payload string) bool {
		var ev claudeStreamEvent
		if json.Unmarshal([]byte(payload), &ev) != nil {
			return true
		}
		switch ev.Type {
		case "message_start":
			// input_tokens arrives nested under message.usage on this event.
			var start struct {
				Message struct {
					Usage struct {
						InputTokens int `json:"input_tokens"`
					} `json:"usage"`
				} `json:"message"`
			}
			if json.Unmarshal([]byte(payload), &start) == nil {
				out.Usage.InputTokens = start.Message.Usage.InputTokens
			}
		case "content_block_start":
			if ev.ContentBlock != nil && ev.ContentBlock.Type == "tool_use" {
				current = &inflightToolCall{id: ev.ContentBlock.ID, name: ev.ContentBlock.Name}
			}
		case "content_block_delta":
			if ev.Delta == nil {
				return true
			}
			switch ev.Delta.Type {
			case "text_delta":
				text += ev.Delta.Text
				if onText != nil {
					onText(ev.Delta.Text)
				}
			case "input_json_delta":
				if current != nil {
					current.input += ev.Delta.PartialJSON
				}
			}
		case "content_block_stop":
			if current != nil {
				out.ToolCalls = append(out.ToolCalls, ToolCall{ID: current.id, Name: current.name, Input: current.input})
				current = nil
			}
		case "message_delta":
			if ev.Delta != nil && ev.Delta.StopReason != "" {
				out.StopReason = mapClaudeStopReason(ev.Delta.StopReason)
			}
			if ev.Usage != nil {
				out.Usage.OutputTokens = ev.Usage.OutputTokens
			}
		case "error":
			if ev.Error != nil {
				text = ev.Error.Message
			}
		}
		return true
	})

	out.Text = text
	if streamErr != nil {
		return errorResponse("no response from provider"), nil
	}
	return out, nil
}
