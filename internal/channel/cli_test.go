package channel

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/haeli05/seaclaw/internal/agent"
	"github.com/haeli05/seaclaw/internal/httpclient"
	"github.com/haeli05/seaclaw/internal/provider"
	"github.com/haeli05/seaclaw/internal/tool"
)

type echoProvider struct{}

func (echoProvider) Chat(_ *httpclient.Client, _ provider.Credentials, _, _, _ string, _ []provider.ToolDefinition, _ float64) (*provider.ChatResponse, error) {
	return &provider.ChatResponse{Text: "ack", StopReason: provider.StopEndTurn}, nil
}

func (e echoProvider) ChatStream(h *httpclient.Client, c provider.Credentials, model, system, messagesJSON string, tools []provider.ToolDefinition, temp float64, onText provider.TextDeltaFunc) (*provider.ChatResponse, error) {
	if onText != nil {
		onText("ack")
	}
	return e.Chat(h, c, model, system, messagesJSON, tools, temp)
}

func TestCLIRunOneShot(t *testing.T) {
	var out bytes.Buffer
	cli := &CLI{
		Loop: &agent.Loop{Provider: echoProvider{}, Model: "m", Tools: tool.NewRegistry(nil), Workspace: t.TempDir()},
		Out:  &out,
	}
	final, err := cli.RunOneShot(context.Background(), "hi")
	if err != nil {
		t.Fatalf("RunOneShot: %v", err)
	}
	if final != "ack" {
		t.Fatalf("unexpected final: %q", final)
	}
	if out.String() != "ack" {
		t.Fatalf("expected streamed text in output, got %q", out.String())
	}
}

func TestCLIRunInteractiveQuitsOnExit(t *testing.T) {
	var out bytes.Buffer
	dir := t.TempDir()
	cli := &CLI{
		Loop: &agent.Loop{Provider: echoProvider{}, Model: "m", Tools: tool.NewRegistry(nil), Workspace: dir},
		Out:  &out,
	}
	in := strings.NewReader("hello\n/exit\n")
	if err := cli.RunInteractive(context.Background(), in); err != nil {
		t.Fatalf("RunInteractive: %v", err)
	}
	if !strings.Contains(out.String(), "ack") {
		t.Fatalf("expected turn output, got %q", out.String())
	}
}

func TestStatusBannerReportsFields(t *testing.T) {
	var out bytes.Buffer
	StatusBanner(&out, "/tmp/ws", "claude-3", "anthropic")
	s := out.String()
	if !strings.Contains(s, "/tmp/ws") || !strings.Contains(s, "claude-3") || !strings.Contains(s, "anthropic") {
		t.Fatalf("banner missing expected fields: %q", s)
	}
}
