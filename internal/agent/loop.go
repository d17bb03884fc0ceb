// Package agent implements the bounded tool-use trampoline that drives one
// user turn to completion: ask the provider, honor its tool calls, repeat
// until it ends the turn or the iteration cap is hit.
package agent

import (
	"context"
	"fmt"

	"github.com/haeli05/seaclaw/internal/httpclient"
	"github.com/haeli05/seaclaw/internal/provider"
	"github.com/haeli05/seaclaw/internal/session"
	"github.com/haeli05/seaclaw/internal/tool"
)

// defaultMaxIterations caps how many provider round-trips a single turn may
// take when Loop.MaxIterations is left unset, preventing runaway spending on
// a tool-use cycle that never ends the turn.
const defaultMaxIterations = 10

// Loop wires a provider, its transport, a tool registry, and a system
// prompt into something that can run a full turn against a Session.
type Loop struct {
	HTTP          *httpclient.Client
	Provider      provider.Provider
	Creds         provider.Credentials
	Model         string
	System        string
	Temperature   float64
	Tools         *tool.Registry
	Workspace     string
	MaxIterations int
}

func (l *Loop) maxIterations() int {
	if l.MaxIterations > 0 {
		return l.MaxIterations
	}
	return defaultMaxIterations
}

// Run appends userMessage to sess, drives the trampoline to completion, and
// returns the turn's final text. onText, if non-nil and streaming is true,
// receives text deltas as they arrive from the provider.
func (l *Loop) Run(ctx context.Context, sess *session.Session, userMessage string, streaming bool, onText provider.TextDeltaFunc) (string, error) {
	sess.AddUser(userMessage)

	var partialText string
	defs := l.Tools.Definitions()
	toolDefs := make([]provider.ToolDefinition, 0, len(defs))
	for _, d := range defs {
		toolDefs = append(toolDefs, provider.ToolDefinition{Name: d.Name, Description: d.Description, InputSchema: d.InputSchema})
	}

	for i := 0; i < l.maxIterations(); i++ {
		select {
		case <-ctx.Done():
			return partialText, ctx.Err()
		default:
		}

		messagesJSON, err := sess.SerializeMessages()
		if err != nil {
			return "", fmt.Errorf("serialize session: %w", err)
		}

		resp, err := l.invoke(streaming, messagesJSON, toolDefs, onText)
		if err != nil {
			return "", err
		}

		if resp.NumTools() == 0 {
			sess.AddAssistant(resp.Text)
			if saveErr := sess.Save(); saveErr != nil {
				return resp.Text, saveErr
			}
			return resp.Text, nil
		}

		if resp.Text != "" {
			partialText = resp.Text
		}
		for _, call := range resp.ToolCalls {
			sess.AddToolUse(call.ID, call.Name, call.Input)
			result := l.Tools.Dispatch(call.Name, call.Input, l.Workspace)
			sess.AddToolResult(call.ID, result.Output)
		}
	}

	// Iteration cap reached without an end_turn: surface whatever partial
	// text the model produced along the way rather than nothing at all.
	sess.AddAssistant(partialText)
	if err := sess.Save(); err != nil {
		return partialText, err
	}
	return partialText, nil
}

func (l *Loop) invoke(streaming bool, messagesJSON string, tools []provider.ToolDefinition, onText provider.TextDeltaFunc) (*provider.ChatResponse, error) {
	if streaming {
		return l.Provider.ChatStream(l.HTTP, l.Creds, l.Model, l.System, messagesJSON, tools, l.Temperature, onText)
	}
	return l.Provider.Chat(l.HTTP, l.Creds, l.Model, l.System, messagesJSON, tools, l.Temperature)
}
