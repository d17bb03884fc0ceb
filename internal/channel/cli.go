package channel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/haeli05/seaclaw/internal/agent"
	"github.com/haeli05/seaclaw/internal/session"
)

const cliChannelName = "cli"

// CLI drives both interactive-terminal and one-shot invocation.
type CLI struct {
	Loop *agent.Loop
	Out  io.Writer
}

// RunOneShot runs a single prompt against an ephemeral session (no disk
// persistence) and returns its final text.
func (c *CLI) RunOneShot(ctx context.Context, prompt string) (string, error) {
	sess := session.OpenEphemeral(cliChannelName + ":oneshot")
	return c.Loop.Run(ctx, sess, prompt, true, c.streamSink())
}

// RunInteractive reads lines from in until EOF, "/quit", or "/exit",
// running each as a turn against a persistent per-terminal session.
func (c *CLI) RunInteractive(ctx context.Context, in io.Reader) error {
	sess := session.Open(c.Loop.Workspace, cliChannelName+":interactive")
	defer sess.Close()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.Out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		if _, err := c.Loop.Run(ctx, sess, line, true, c.streamSink()); err != nil {
			fmt.Fprintf(c.Out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(c.Out)
	}
}

func (c *CLI) streamSink() func(string) {
	return func(delta string) {
		fmt.Fprint(c.Out, delta)
	}
}

// StatusBanner reports the runtime's workspace, model, and provider before
// the first prompt, grounded on the teacher's startup status command.
func StatusBanner(w io.Writer, workspace, model, providerType string) {
	fmt.Fprintf(w, "seaclaw: workspace=%s model=%s provider=%s\n", workspace, model, providerType)
}
