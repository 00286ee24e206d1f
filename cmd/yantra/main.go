package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/arvind/yantra/internal/agent"
	"github.com/arvind/yantra/internal/gateway"
	"github.com/arvind/yantra/internal/governance"
	"github.com/arvind/yantra/internal/observability"
	"github.com/arvind/yantra/internal/store"
	"github.com/arvind/yantra/internal/tools"
	"github.com/arvind/yantra/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	mode := flag.String("mode", "cli", "run mode: 'cli' for interactive/one-shot, 'serve' for chat gateways")
	flow := flag.String("flow", "", "force an execution flow: 'plan', 'react' or 'swe'")
	input := flag.String("input", "", "one-shot task description (cli mode); empty starts the interactive loop")
	output := flag.String("output", "", "directory for step artifacts")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	observability.PrintBanner()
	observability.InitializeTerminal()
	defer observability.CleanupTerminal()

	// Route all log output through the terminal mutex so it never
	// interrupts the dashboard's cursor save/restore sequence.
	log.SetOutput(observability.NewTermWriter())

	logger := observability.NewLogger()

	db, err := store.New(cfg.Memory.Path)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	model := buildModel(cfg)
	registry := buildRegistry(cfg, db)

	policy := governance.NewSafetyPolicyEngine()
	invoker := tools.NewInvoker(registry, model, policy,
		time.Duration(cfg.Limits.ToolTimeoutSeconds)*time.Second, logger)

	executor := &agent.Executor{
		Model:    model,
		Registry: registry,
		Invoker:  invoker,
		Logger:   logger,
		Recorder: db,
	}

	brain := &agent.Orchestrator{
		Model:    model,
		Registry: registry,
		Invoker:  invoker,
		Executor: executor,
		React: &agent.ReactAgent{
			Model:         model,
			Registry:      registry,
			Invoker:       invoker,
			MaxIterations: cfg.Limits.MaxIterations,
			Logger:        logger,
		},
		SWE: &agent.SWEAgent{
			Model:       model,
			Executor:    executor,
			RetryBudget: cfg.Limits.RetryBudget,
			Logger:      logger,
		},
		Classifier: &agent.Classifier{Model: model},
		History:    db,
		Runs:       db,
		Prompts:    agent.NewPromptManager("./prompts"),
		Logger:     logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startDashboard(ctx, logger)

	switch *mode {
	case "serve":
		runServe(ctx, stop, cfg, brain)
	default:
		runCLI(ctx, brain, *flow, *input, *output)
	}
}

func buildModel(cfg *config.Config) llms.Model {
	pName, pCfg := cfg.GetDefaultProvider()
	if pName == "" {
		log.Fatal("No enabled provider found in config")
	}

	switch pName {
	case "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(pCfg.APIKey),
			openai.WithModel(pCfg.Model),
		}
		if pCfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(pCfg.BaseURL))
		}
		model, err := openai.New(opts...)
		if err != nil {
			log.Fatal(err)
		}
		return model
	default:
		log.Fatalf("Provider %s not supported", pName)
		return nil
	}
}

func buildRegistry(cfg *config.Config, db *store.Store) *tools.Registry {
	registry := tools.NewRegistry()

	if searchTool, err := tools.NewSearchTool(); err != nil {
		log.Printf("Warning: failed to initialize search tool: %v", err)
	} else {
		registry.Register(searchTool)
	}

	registry.Register(tools.NewScraperTool())
	registry.Register(tools.NewBrowserTool(true, "screenshots"))
	registry.Register(tools.NewShellTool(cfg.App.Workspace))
	registry.Register(tools.NewPythonTool(cfg.App.Workspace))
	registry.Register(tools.NewFilesystemTool(cfg.App.Workspace))
	registry.Register(tools.NewMarkdownTool(cfg.App.OutputDir))
	registry.Register(tools.NewCronTool(db))

	return registry
}

// runCLI handles one-shot and interactive use.
func runCLI(ctx context.Context, brain *agent.Orchestrator, flow, input, output string) {
	params := map[string]any{}
	if flow != "" {
		params["flow"] = flow
	}

	if input != "" {
		out := brain.Run(ctx, agent.TaskInput{Description: input, Parameters: params, OutputPath: output})
		printOutcome(out)
		if !out.Success {
			os.Exit(1)
		}
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	fmt.Println("Enter a task (or 'exit' to quit):")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return
		}
		if ctx.Err() != nil {
			return
		}

		out := brain.Run(observability.WithChatID(ctx, "cli"), agent.TaskInput{
			Description: line,
			Parameters:  params,
			OutputPath:  output,
		})
		printOutcome(out)
	}
}

// runServe starts the enabled chat gateways plus the task scheduler
// and blocks until a shutdown signal.
func runServe(ctx context.Context, stop context.CancelFunc, cfg *config.Config, brain *agent.Orchestrator) {
	var primary gateway.Messenger
	var started []gateway.Messenger

	if tgCfg, ok := cfg.GetGateway("telegram"); ok {
		tg, err := gateway.NewTelegramGateway(tgCfg.Token, brain)
		if err != nil {
			log.Fatal(err)
		}
		started = append(started, tg)
		primary = tg
	}

	if dcCfg, ok := cfg.GetGateway("discord"); ok {
		dc, err := gateway.NewDiscordGateway(dcCfg.Token, brain)
		if err != nil {
			log.Fatal(err)
		}
		started = append(started, dc)
		if primary == nil {
			primary = dc
		}
	}

	if len(started) == 0 {
		log.Fatal("serve mode requires at least one enabled gateway")
	}

	db, ok := brain.History.(*store.Store)
	if ok {
		scheduler := agent.NewScheduler(brain, db, primary)
		go scheduler.Start(ctx)
	}

	for _, g := range started {
		g := g
		go func() {
			if err := g.Start(); err != nil {
				log.Printf("Gateway failed: %v", err)
				stop()
			}
		}()
	}

	<-ctx.Done()

	for _, g := range started {
		_ = g.Stop()
	}
	time.Sleep(500 * time.Millisecond)
	log.Println("Shutdown complete.")
}

func startDashboard(ctx context.Context, logger *observability.Logger) {
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.PrintLiveStatus()
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.Heartbeat()
				logger.LogHeartbeat()
			}
		}
	}()
}

func printOutcome(out agent.TaskOutput) {
	if out.Success {
		fmt.Println("\n" + out.Result)
		return
	}
	reason := "unknown error"
	if e, ok := out.Metadata["error"].(string); ok {
		reason = e
	}
	fmt.Printf("\nTask failed: %s\n", reason)
	if out.Result != "" {
		fmt.Println(out.Result)
	}
}
