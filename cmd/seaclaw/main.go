package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haeli05/seaclaw/internal/agent"
	"github.com/haeli05/seaclaw/internal/channel"
	"github.com/haeli05/seaclaw/internal/config"
	"github.com/haeli05/seaclaw/internal/cron"
	"github.com/haeli05/seaclaw/internal/httpclient"
	"github.com/haeli05/seaclaw/internal/memory"
	"github.com/haeli05/seaclaw/internal/provider"
	"github.com/haeli05/seaclaw/internal/session"
	"github.com/haeli05/seaclaw/internal/tool"
	"github.com/haeli05/seaclaw/internal/wsgateway"
)

const version = "0.1.0"

var (
	configFlag      string
	workspaceFlag   string
	modelFlag       string
	telegramFlag    bool
	gatewayPortFlag int
)

var rootCmd = &cobra.Command{
	Use:     "seaclaw [prompt]",
	Short:   "seaclaw - a tool-using conversational agent runtime",
	Version: version,
	Args:    cobra.MaximumNArgs(1),
	RunE:    run,
}

func init() {
	rootCmd.Flags().StringVar(&configFlag, "config", "", "path to config file")
	rootCmd.Flags().StringVar(&workspaceFlag, "workspace", "", "workspace directory (overrides config)")
	rootCmd.Flags().StringVar(&modelFlag, "model", "", "model identifier (overrides config)")
	rootCmd.Flags().BoolVar(&telegramFlag, "telegram", false, "enable the Telegram channel")
	rootCmd.Flags().IntVar(&gatewayPortFlag, "gateway-port", 0, "enable the WebSocket gateway on this port")
	rootCmd.SetVersionTemplate("seaclaw {{.Version}}\n")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlagOverrides(cfg)

	if cfg.Provider.APIKey == "" {
		fmt.Fprintln(os.Stderr, "seaclaw: no API key configured (set api_key, CCLAW_API_KEY, ANTHROPIC_API_KEY, or OPENAI_API_KEY)")
		os.Exit(1)
	}

	loop, err := buildLoop(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	if len(args) == 1 {
		cli := &channel.CLI{Loop: loop, Out: os.Stdout}
		_, err := cli.RunOneShot(ctx, args[0])
		fmt.Fprintln(os.Stdout)
		return err
	}

	sched := bootstrapScheduler(cfg, loop)
	go func() {
		<-ctx.Done()
		sched.Stop()
	}()
	go sched.Run()

	if cfg.Telegram.Enabled {
		go runTelegram(ctx, cfg, loop)
	}
	if cfg.Gateway.Port != 0 {
		go runGateway(ctx, cfg, loop)
	}

	channel.StatusBanner(os.Stdout, cfg.Workspace, cfg.Model, cfg.Provider.Type)
	cli := &channel.CLI{Loop: loop, Out: os.Stdout}
	return cli.RunInteractive(ctx, os.Stdin)
}

// bootstrapScheduler restores any persisted job table from a prior run.
// Restored jobs whose name has no registered handler in this process are
// dropped with a log line, per cron.Service.Load's documented behavior —
// this runtime exposes no operator API for declaring jobs, so in practice
// the table starts (and stays) empty until one is added in-process.
func bootstrapScheduler(cfg *config.Config, loop *agent.Loop) *cron.Service {
	statePath := filepath.Join(cfg.Workspace, ".cclaw", "cron.json")
	sched := cron.NewService(statePath)
	if err := sched.Load(statePath, func(name string) cron.Callback { return nil }); err != nil {
		log.Printf("[cron] load failed: %v", err)
	}
	return sched
}

func applyFlagOverrides(cfg *config.Config) {
	if workspaceFlag != "" {
		cfg.Workspace = workspaceFlag
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if telegramFlag {
		cfg.Telegram.Enabled = true
	}
	if gatewayPortFlag != 0 {
		cfg.Gateway.Port = gatewayPortFlag
	}
}

func selectProvider(cfg *config.Config) provider.Provider {
	if cfg.Provider.Type == "openai" {
		return provider.OpenAI{}
	}
	return provider.Claude{}
}

func buildLoop(cfg *config.Config) (*agent.Loop, error) {
	http, err := httpclient.NewClient()
	if err != nil {
		return nil, fmt.Errorf("init transport: %w", err)
	}

	var mem *memory.Store
	if cfg.MemoryDBPath != "" {
		mem, err = memory.Open(cfg.MemoryDBPath, buildEmbedder(cfg, http))
		if err != nil {
			return nil, fmt.Errorf("open memory store: %w", err)
		}
	}

	var registry *tool.Registry
	if mem != nil {
		registry = tool.NewRegistry(mem)
	} else {
		registry = tool.NewRegistry(nil)
	}

	return &agent.Loop{
		HTTP:          http,
		Provider:      selectProvider(cfg),
		Creds:         provider.Credentials{APIKey: cfg.Provider.APIKey, BaseURL: cfg.Provider.BaseURL},
		Model:         cfg.Model,
		System:        buildSystemPrompt(cfg.Workspace),
		Temperature:   cfg.Temperature,
		Tools:         registry,
		Workspace:     cfg.Workspace,
		MaxIterations: cfg.MaxToolIterations,
	}, nil
}

// buildEmbedder wires an OpenAI-compatible embeddings endpoint when the
// runtime is configured against OpenAI; Claude has no embeddings API, so
// under the Claude provider memory falls back to key/value storage with no
// similarity search (Recall returns no matches, per internal/memory).
func buildEmbedder(cfg *config.Config, http *httpclient.Client) memory.Embedder {
	if cfg.Provider.Type != "openai" {
		return nil
	}
	url := "https://api.openai.com/v1/embeddings"
	if cfg.Provider.BaseURL != "" {
		url = strings.TrimSuffix(cfg.Provider.BaseURL, "/chat/completions") + "/embeddings"
	}
	return &memory.HTTPEmbedder{HTTP: http, URL: url, APIKey: cfg.Provider.APIKey, Model: "text-embedding-3-small"}
}

// buildSystemPrompt assembles the workspace's prompt text: an AGENTS.md at
// the workspace root, if present, else a minimal built-in default.
func buildSystemPrompt(workspace string) string {
	data, err := os.ReadFile(filepath.Join(workspace, "AGENTS.md"))
	if err != nil {
		return "You are seaclaw, a tool-using assistant. Use the available tools to help the user."
	}
	return string(data)
}

func runTelegram(ctx context.Context, cfg *config.Config, loop *agent.Loop) {
	tg, err := channel.NewTelegram(cfg.Telegram, loop)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seaclaw: telegram disabled: %v\n", err)
		return
	}
	if err := tg.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "seaclaw: telegram stopped: %v\n", err)
	}
}

func runGateway(ctx context.Context, cfg *config.Config, loop *agent.Loop) {
	srv := &wsgateway.Server{
		Port:      cfg.Gateway.Port,
		AuthToken: cfg.Gateway.Token,
		Turn: func(chatID, text string) string {
			sess := session.Open(loop.Workspace, "ws:"+chatID)
			defer sess.Close()
			final, err := loop.Run(ctx, sess, text, false, nil)
			if err != nil {
				return "error: " + err.Error()
			}
			return final
		},
	}
	stop := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(stop)
	}()
	if err := srv.ListenAndServe(stop); err != nil {
		fmt.Fprintf(os.Stderr, "seaclaw: gateway stopped: %v\n", err)
	}
}
