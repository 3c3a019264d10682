// Command flexagent runs one agent loop turn from the command line.
//
// Examples:
//
//	export OPENAI_API_KEY=...
//	flexagent -query "What is 12 * 7?"
//
//	export GROQ_API_KEY=...
//	flexagent -provider groq -config react -query "What time is it in UTC?"
//
//	flexagent -provider scripted -query "demo"   # offline, no API key needed
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/martinemde/flexagent/agentloop"
	"github.com/martinemde/flexagent/modelclient"
)

// envConfig holds settings read from the environment, overridable by flags.
type envConfig struct {
	Provider      string        `env:"FLEXAGENT_PROVIDER" envDefault:"openai"`
	Model         string        `env:"FLEXAGENT_MODEL"`
	APIKey        string        `env:"FLEXAGENT_API_KEY"`
	Config        string        `env:"FLEXAGENT_CONFIG" envDefault:"toolcall"`
	MaxIterations int           `env:"FLEXAGENT_MAX_ITERATIONS" envDefault:"0"`
	Timeout       time.Duration `env:"FLEXAGENT_TIMEOUT" envDefault:"5m"`
}

func main() {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		fail(fmt.Errorf("parse environment: %w", err))
	}

	var (
		flagProvider = flag.String("provider", cfg.Provider, "model provider: openai|anthropic|groq|google|ollama|scripted")
		flagModel    = flag.String("model", cfg.Model, "model ID (empty selects the provider default)")
		flagConfig   = flag.String("config", cfg.Config, "agent personality: "+strings.Join(agentloop.ConfigNames(), "|"))
		flagMaxIters = flag.Int("max-iterations", cfg.MaxIterations, "turn budget override (0 keeps the config default)")
		flagQuery    = flag.String("query", "", "user request (positional args are joined if empty)")
		flagTimeout  = flag.Duration("timeout", cfg.Timeout, "overall request timeout")
		flagVerbose  = flag.Bool("v", false, "log every loop event, including model replies")
	)
	flag.Parse()

	query := *flagQuery
	if query == "" {
		query = strings.Join(flag.Args(), " ")
	}
	if strings.TrimSpace(query) == "" {
		fail(fmt.Errorf("no query provided; use -query or positional arguments"))
	}

	level := slog.LevelInfo
	if *flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *flagTimeout)
	defer cancelTimeout()

	model, err := buildModel(ctx, *flagProvider, *flagModel, cfg.APIKey)
	if err != nil {
		fail(err)
	}
	defer model.Close()

	personality, err := agentloop.Config(*flagConfig)
	if err != nil {
		fail(err)
	}
	if *flagMaxIters > 0 {
		personality.MaxIterations = *flagMaxIters
	}

	agent, err := agentloop.New(personality, agentloop.WithModel(model))
	if err != nil {
		fail(err)
	}
	defer agent.Close()

	registerDemoTools(agent)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logEvents(logger, agent.Events())
	}()

	result, err := agent.Invoke(ctx, query)
	agent.Close()
	wg.Wait()

	if err != nil {
		logger.Error("run aborted", "error", err, "iterations", result.Iterations)
		os.Exit(1)
	}

	switch result.Outcome {
	case agentloop.OutcomeAnswered:
		if result.Reasoning != "" {
			logger.Info("reasoning", "text", result.Reasoning)
		}
		fmt.Println(result.Answer)
	case agentloop.OutcomeBudgetExhausted:
		logger.Warn("turn budget exhausted before a final answer",
			"iterations", result.Iterations,
			"tool_calls", len(result.ToolCalls))
		for i, call := range result.ToolCalls {
			logger.Info("tool call", "n", i+1, "tool", call.Tool, "result", result.ToolResults[i])
		}
		os.Exit(2)
	}
}

// buildModel assembles the model client. The scripted provider is an offline
// path for demos; everything else goes through the provider factory.
func buildModel(ctx context.Context, provider, model, apiKey string) (*modelclient.Client, error) {
	if provider == "scripted" {
		return modelclient.NewClient(
			modelclient.WithProvider(modelclient.NewScriptedProvider(
				"```json\n{\"Tool call\": \"time\", \"Tool Parameters\": \"None\", \"Final Response\": \"None\"}\n```",
				"```json\n{\"Tool call\": \"None\", \"Tool Parameters\": \"None\", \"Final Response\": \"The current time was reported by the time tool.\"}\n```",
			)),
		), nil
	}

	p, err := modelclient.New(ctx, provider, model, apiKey)
	if err != nil {
		return nil, err
	}
	return modelclient.NewClient(modelclient.WithProvider(p)), nil
}

// registerDemoTools wires the example tools the built-in personalities are
// prompted with.
func registerDemoTools(agent *agentloop.Agent) {
	must(agent.RegisterTool("calculator",
		"Evaluates a basic arithmetic expression, e.g. {\"expression\": \"2 + 3 * 4\"}",
		calculatorTool, "expression"))
	must(agent.RegisterTool("time",
		"Returns the current date and time in UTC; takes no parameters",
		timeTool))
	must(agent.RegisterTool("weather",
		"Reports the weather for a location, e.g. {\"location\": \"Paris\"}",
		weatherTool, "location"))
}

func calculatorTool(args agentloop.CallArgs) (string, error) {
	expr, ok := args.String("expression")
	if !ok {
		expr = args.Arg(0)
	}
	if strings.TrimSpace(expr) == "" {
		return "", fmt.Errorf("no expression provided")
	}
	value, err := evalExpression(expr)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s = %g", expr, value), nil
}

func timeTool(agentloop.CallArgs) (string, error) {
	return time.Now().UTC().Format("Monday, 2 January 2006 15:04:05 MST"), nil
}

// weatherTool is canned data; it exists to exercise named-parameter binding.
func weatherTool(args agentloop.CallArgs) (string, error) {
	location, ok := args.String("location")
	if !ok {
		location = args.Arg(0)
	}
	if strings.TrimSpace(location) == "" {
		return "", fmt.Errorf("no location provided")
	}
	return fmt.Sprintf("Weather in %s: 21°C, partly cloudy, light breeze", location), nil
}

// logEvents drains the agent's event channel into structured logs until the
// channel closes.
func logEvents(logger *slog.Logger, events <-chan agentloop.Event) {
	for ev := range events {
		switch ev.Kind {
		case agentloop.EventRunStart:
			logger.Info("run started", "run_id", ev.RunID, "config", ev.Data["config"])
		case agentloop.EventIteration:
			logger.Debug("iteration", "n", ev.Data["iteration"])
		case agentloop.EventModelReply:
			logger.Debug("model reply", "text", ev.Data["text"])
		case agentloop.EventToolCallStart:
			logger.Info("calling tool", "tool", ev.Data["tool"], "params", ev.Data["params"])
		case agentloop.EventToolCallEnd:
			if isErr, _ := ev.Data["is_error"].(bool); isErr {
				logger.Warn("tool failed", "tool", ev.Data["tool"], "result", ev.Data["result"])
			} else {
				logger.Info("tool result", "tool", ev.Data["tool"], "result", ev.Data["result"])
			}
		case agentloop.EventFinalAnswer:
			logger.Debug("final answer", "answer", ev.Data["answer"])
		case agentloop.EventBudgetExhausted:
			logger.Warn("budget exhausted", "max_iterations", ev.Data["max_iterations"])
		case agentloop.EventError:
			logger.Error("loop error", "error", ev.Data["error"])
		}
	}
}

func must(err error) {
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
