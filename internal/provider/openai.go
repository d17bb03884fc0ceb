package provider

import (
	"encoding/json"
	"fmt"

	"github.com/haeli05/seaclaw/internal/httpclient"
)

const openaiBaseURL = "https://api.openai.com/v1/chat/completions"

// maxParallelToolCalls bounds how many concurrent tool-call indices a
// streaming response may open at once; OpenAI's own limit is looser but
// nothing in this system issues more than this per turn in practice.
const maxParallelToolCalls = 32

// OpenAI implements Provider against the Chat Completions API. Unlike
// Claude, system goes in as a synthetic first message and tools are
// wrapped in the {type:"function",function:{...}} envelope.
type OpenAI struct{}

type openaiFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type openaiTool struct {
	Type     string         `json:"type"`
	Function openaiFunction `json:"function"`
}

type openaiToolCallOut struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type openaiMessageOut struct {
	Role       string              `json:"role"`
	Content    *string             `json:"content"`
	ToolCalls  []openaiToolCallOut `json:"tool_calls,omitempty"`
	ToolCallID string              `json:"tool_call_id,omitempty"`
}

type openaiRequest struct {
	Model    string             `json:"model"`
	Messages []openaiMessageOut `json:"messages"`
	Tools    []openaiTool       `json:"tools,omitempty"`
	Stream   bool               `json:"stream,omitempty"`
	MaxTokens int               `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

// sessionBlock mirrors internal/session's on-disk content block shape,
// re-declared here so this package stays independent of the session
// package (it only ever sees the serialized JSON).
type sessionBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type sessionMessage struct {
	Role    string         `json:"role"`
	Content []sessionBlock `json:"content"`
}

func toolDefsToOpenAI(tools []ToolDefinition) []openaiTool {
	out := make([]openaiTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openaiTool{
			Type: "function",
			Function: openaiFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return out
}

// convertMessages translates the Claude-shaped content-block session log
// into OpenAI's flat role/content-with-tool_calls shape. A tool_use block
// becomes an assistant tool_calls entry; a tool_result block becomes its
// own role:"tool" message keyed by tool_call_id.
func convertMessages(system, messagesJSON string) ([]openaiMessageOut, error) {
	var msgs []sessionMessage
	if err := json.Unmarshal([]byte(messagesJSON), &msgs); err != nil {
		return nil, fmt.Errorf("decode session messages: %w", err)
	}

	out := make([]openaiMessageOut, 0, len(msgs)+1)
	if system != "" {
		s := system
		out = append(out, openaiMessageOut{Role: "system", Content: &s})
	}

	for _, m := range msgs {
		var text string
		var toolCalls []openaiToolCallOut
		var toolResults []openaiMessageOut

		for _, b := range m.Content {
			switch b.Type {
			case "text":
				text += b.Text
			case "tool_use":
				tc := openaiToolCallOut{ID: b.ID, Type: "function"}
				tc.Function.Name = b.Name
				tc.Function.Arguments = string(b.Input)
				toolCalls = append(toolCalls, tc)
			case "tool_result":
				toolResults = append(toolResults, openaiMessageOut{
					Role: "tool", ToolCallID: b.ToolUseID, Content: &b.Content,
				})
			}
		}

		if len(toolCalls) > 0 {
			var contentPtr *string
			if text != "" {
				contentPtr = &text
			}
			out = append(out, openaiMessageOut{Role: m.Role, Content: contentPtr, ToolCalls: toolCalls})
		} else if text != "" || len(toolResults) == 0 {
			t := text
			out = append(out, openaiMessageOut{Role: m.Role, Content: &t})
		}
		out = append(out, toolResults...)
	}
	return out, nil
}

type openaiChoiceMessage struct {
	Content   string `json:"content"`
	ToolCalls []struct {
		ID       string `json:"id"`
		Function struct {
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
		} `json:"function"`
	} `json:"tool_calls"`
}

type openaiResponse struct {
	Choices []struct {
		Message      openaiChoiceMessage `json:"message"`
		FinishReason string              `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (o OpenAI) headers(creds Credentials) []httpclient.Header {
	return []httpclient.Header{
		{Key: "Authorization", Value: "Bearer " + creds.APIKey},
		{Key: "content-type", Value: "application/json"},
	}
}

func (o OpenAI) endpoint(creds Credentials) string {
	if creds.BaseURL != "" {
		return creds.BaseURL
	}
	return openaiBaseURL
}

func (o OpenAI) buildRequest(model, system, messagesJSON string, tools []ToolDefinition, temperature float64, stream bool) (*openaiRequest, error) {
	msgs, err := convertMessages(system, messagesJSON)
	if err != nil {
		return nil, err
	}
	return &openaiRequest{
		Model:       model,
		Messages:    msgs,
		Tools:       toolDefsToOpenAI(tools),
		Stream:      stream,
		MaxTokens:   MaxTokens,
		Temperature: temperature,
	}, nil
}

func mapOpenAIFinishReason(reason string) StopReason {
	if reason == "tool_calls" {
		return StopToolUse
	}
	return StopEndTurn
}

// Chat issues a non-streaming completion.
func (o OpenAI) Chat(http *httpclient.Client, creds Credentials, model, system, messagesJSON string, tools []ToolDefinition, temperature float64) (*ChatResponse, error) {
	req, err := o.buildRequest(model, system, messagesJSON, tools, temperature, false)
	if err != nil {
		return errorResponse(fmt.Sprintf("build request: %v", err)), nil
	}
	body, err := json.Marshal(req)
	if err != nil {
		return errorResponse(fmt.Sprintf("marshal request: %v", err)), nil
	}

	resp, err := http.PostJSON(o.endpoint(creds), body, o.headers(creds))
	if err != nil || resp.Status == 0 {
		return errorResponse("no response from provider"), nil
	}

	var decoded openaiResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return errorResponse(fmt.Sprintf("parse failure: %v", err)), nil
	}
	if decoded.Error != nil {
		return errorResponse(decoded.Error.Message), nil
	}
	if len(decoded.Choices) == 0 {
		return errorResponse("provider returned no choices"), nil
	}

	choice := decoded.Choices[0]
	out := &ChatResponse{
		Text:       choice.Message.Content,
		StopReason: mapOpenAIFinishReason(choice.FinishReason),
		Usage:      Usage{InputTokens: decoded.Usage.PromptTokens, OutputTokens: decoded.Usage.CompletionTokens},
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Input: tc.Function.Arguments})
	}
	return out, nil
}

// streamingToolCall accumulates one parallel tool call by its stream index.
type streamingToolCall struct {
	id, name string
	args     string
	seen     bool
}

type openaiStreamChoice struct {
	Delta struct {
		Content   string `json:"content"`
		ToolCalls []struct {
			Index    int    `json:"index"`
			ID       string `json:"id"`
			Function struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"delta"`
	FinishReason string `json:"finish_reason"`
}

type openaiStreamEvent struct {
	Choices []openaiStreamChoice `json:"choices"`
	Usage   *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// ChatStream issues a streaming completion. Tool-call argument fragments
// arrive keyed by index (OpenAI supports issuing several tool calls in
// parallel), so a fixed slot array tracks them until finish_reason closes
// the turn.
func (o OpenAI) ChatStream(http *httpclient.Client, creds Credentials, model, system, messagesJSON string, tools []ToolDefinition, temperature float64, onText TextDeltaFunc) (*ChatResponse, error) {
	req, err := o.buildRequest(model, system, messagesJSON, tools, temperature, true)
	if err != nil {
		return errorResponse(fmt.Sprintf("build request: %v", err)), nil
	}
	body, err := json.Marshal(req)
	if err != nil {
		return errorResponse(fmt.Sprintf("marshal request: %v", err)), nil
	}

	out := &ChatResponse{StopReason: StopEndTurn}
	var text string
	var slots [maxParallelToolCalls]streamingToolCall

	streamErr := http.PostStream(o.endpoint(creds), body, o.headers(creds), func(payload string) bool {
		var ev openaiStreamEvent
		if json.Unmarshal([]byte(payload), &ev) != nil {
			return true
		}
		if ev.Usage != nil {
			out.Usage = Usage{InputTokens: ev.Usage.PromptTokens, OutputTokens: ev.Usage.CompletionTokens}
		}
		if len(ev.Choices) == 0 {
			return true
		}
		choice := ev.Choices[0]

		if choice.Delta.Content != "" {
			text += choice.Delta.Content
			if onText != nil {
				onText(choice.Delta.Content)
			}
		}
		for _, tc := range choice.Delta.ToolCalls {
			if tc.Index < 0 || tc.Index >= maxParallelToolCalls {
				continue
			}
			slot := &slots[tc.Index]
			slot.seen = true
			if tc.ID != "" {
				slot.id = tc.ID
			}
			if tc.Function.Name != "" {
				slot.name = tc.Function.Name
			}
			slot.args += tc.Function.Arguments
		}
		if choice.FinishReason != "" {
			out.StopReason = mapOpenAIFinishReason(choice.FinishReason)
		}
		return true
	})

	for _, slot := range slots {
		if slot.seen {
			out.ToolCalls = append(out.ToolCalls, ToolCall{ID: slot.id, Name: slot.name, Input: slot.args})
		}
	}
	out.Text = text
	if streamErr != nil {
		return errorResponse("no response from provider"), nil
	}
	return out, nil
}
