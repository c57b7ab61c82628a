// Agentic answers a goal by letting a language model call tools (web
// search, page fetching, arithmetic) until it has a final answer or runs
// out of steps.
//
// Usage:
//
//	agentic [flags] <goal words...>
//	agentic -init [dir]      Write an example agentic.yaml
//	agentic --version        Print version and build information
//
// Configuration is loaded from a single YAML or TOML file discovered
// automatically (see [config.DefaultSearchPaths]); without one, built-in
// defaults and provider keys from the environment are used.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/nugget/agentic/internal/agent"
	"github.com/nugget/agentic/internal/buildinfo"
	"github.com/nugget/agentic/internal/calc"
	"github.com/nugget/agentic/internal/config"
	"github.com/nugget/agentic/internal/defaults"
	"github.com/nugget/agentic/internal/fetch"
	"github.com/nugget/agentic/internal/llm"
	"github.com/nugget/agentic/internal/search"
	"github.com/nugget/agentic/internal/tools"
)

// main constructs the OS-level environment and delegates to [run], so
// the whole lifecycle can be driven from tests.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		stop()
		os.Exit(1)
	}
}

// options is the parsed command line.
type options struct {
	configPath string
	model      string
	maxSteps   int
	logLevel   string
	logFormat  string
	version    bool
	help       bool
	initDir    string
	doInit     bool
	goal       string
}

// parseArgs parses args by hand. The flag package relies on package-level
// globals, which makes it impossible to call run concurrently from tests.
// Everything after "--", and every non-flag word, is part of the goal.
// A dash-prefixed number such as "-5" is a word, not a flag.
func parseArgs(args []string) (*options, error) {
	opts := &options{}
	var words []string

	value := func(i *int, name string) (string, error) {
		if *i+1 >= len(args) {
			return "", fmt.Errorf("flag %s requires a value", name)
		}
		*i++
		return args[*i], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, inline, hasInline := strings.Cut(arg, "=")
		if !strings.HasPrefix(arg, "-") || arg == "-" || isNumber(arg) {
			words = append(words, arg)
			continue
		}
		if arg == "--" {
			words = append(words, args[i+1:]...)
			break
		}

		get := func() (string, error) {
			if hasInline {
				return inline, nil
			}
			return value(&i, name)
		}

		var err error
		switch strings.TrimLeft(name, "-") {
		case "config":
			opts.configPath, err = get()
		case "model":
			opts.model, err = get()
		case "max-steps":
			var v string
			if v, err = get(); err == nil {
				opts.maxSteps, err = strconv.Atoi(v)
				if err == nil && opts.maxSteps < 1 {
					err = fmt.Errorf("--max-steps must be at least 1, got %d", opts.maxSteps)
				} else if err != nil {
					err = fmt.Errorf("--max-steps: invalid number %q", v)
				}
			}
		case "log-level":
			opts.logLevel, err = get()
		case "log-format":
			opts.logFormat, err = get()
		case "init":
			opts.doInit = true
			if hasInline {
				opts.initDir = inline
			}
		case "version":
			opts.version = true
		case "h", "help":
			opts.help = true
		default:
			return nil, fmt.Errorf("unknown flag: %s (put goal words that start with - after --)", arg)
		}
		if err != nil {
			return nil, err
		}
	}

	if opts.doInit && opts.initDir == "" && len(words) > 0 {
		opts.initDir, words = words[0], words[1:]
	}
	opts.goal = strings.TrimSpace(strings.Join(words, " "))
	return opts, nil
}

// run is the real entry point. stdout carries only the answer (and
// -init/--version output); logs and diagnostics go to stderr.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}

	switch {
	case opts.help:
		return printUsage(stdout)
	case opts.version:
		return runVersion(stdout)
	case opts.doInit:
		dir := opts.initDir
		if dir == "" {
			dir = "."
		}
		return runInit(stdout, dir)
	case opts.goal == "":
		printUsage(stderr)
		return errors.New("usage: agentic [flags] <goal>")
	}

	cfg, cfgPath, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	applyOverrides(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := config.NewLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	if cfgPath != "" {
		logger.Info("config loaded", "path", cfgPath)
	} else {
		logger.Info("no config file found, using defaults")
	}

	llmClient := createLLMClient(cfg, logger)
	registry, err := createRegistry(cfg, logger)
	if err != nil {
		return err
	}

	a := agent.New(agent.Config{
		Model:        cfg.Agent.Model,
		MaxSteps:     cfg.Agent.MaxSteps,
		Temperature:  cfg.Agent.Temperature,
		TopP:         cfg.Agent.TopP,
		MaxTurns:     cfg.Agent.MaxTurns,
		Eviction:     cfg.EvictionPolicy(),
		SystemPrompt: cfg.Agent.SystemPrompt,
	}, llmClient, registry, logger)

	answer, err := a.Run(ctx, opts.goal)
	if err != nil {
		return fmt.Errorf("agentic: %w", err)
	}

	fmt.Fprint(stdout, "\n=== Final Answer ===\n")
	fmt.Fprintln(stdout, answer)
	return nil
}

// applyOverrides lets command-line flags win over the config file.
func applyOverrides(cfg *config.Config, opts *options) {
	if opts.model != "" {
		cfg.Agent.Model = opts.model
	}
	if opts.maxSteps > 0 {
		cfg.Agent.MaxSteps = opts.maxSteps
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.LogFormat = opts.logFormat
	}
}

// loadConfig locates and parses the configuration file. If explicit is
// non-empty, that exact path is used (and must exist). When nothing is
// found on the search path, defaults are returned with an empty path.
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if errors.Is(err, config.ErrNoConfig) {
		return config.Default(), "", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}

// createLLMClient builds a multi-provider LLM client. The default
// provider is always constructed; the others only when configured or
// named by a route.
func createLLMClient(cfg *config.Config, logger *slog.Logger) llm.Client {
	clients := map[string]llm.Client{}
	provider := func(name string) llm.Client {
		if c, ok := clients[name]; ok {
			return c
		}
		var c llm.Client
		switch name {
		case config.ProviderAnthropic:
			c = llm.NewAnthropicClient(cfg.LLM.Anthropic.URL, cfg.LLM.Anthropic.APIKey, logger)
		case config.ProviderOllama:
			c = llm.NewOllamaClient(cfg.LLM.Ollama.URL, logger)
		default:
			c = llm.NewOpenAIClient(cfg.LLM.OpenAI.URL, cfg.LLM.OpenAI.APIKey, logger)
		}
		clients[name] = c
		return c
	}

	multi := llm.NewMultiClient(provider(cfg.LLM.DefaultProvider))
	multi.AddProvider(cfg.LLM.DefaultProvider, clients[cfg.LLM.DefaultProvider])

	if cfg.LLM.OpenAI.APIKey != "" {
		multi.AddProvider(config.ProviderOpenAI, provider(config.ProviderOpenAI))
	}
	if cfg.LLM.Anthropic.APIKey != "" {
		multi.AddProvider(config.ProviderAnthropic, provider(config.ProviderAnthropic))
	}
	if cfg.LLM.Ollama.URL != "" {
		multi.AddProvider(config.ProviderOllama, provider(config.ProviderOllama))
	}
	for model, name := range cfg.LLM.Routes {
		multi.AddProvider(name, provider(name))
		multi.AddModel(model, name)
	}

	logger.Info("LLM client initialized",
		"model", cfg.Agent.Model,
		"provider", cfg.ProviderFor(cfg.Agent.Model),
		"providers", multi.Providers(),
	)
	return multi
}

// createRegistry registers the tools in advertising order: web_search
// (when its provider has credentials), fetch_url, calculator.
func createRegistry(cfg *config.Config, logger *slog.Logger) (*tools.Registry, error) {
	registry := tools.NewRegistry(logger)

	mgr := search.NewManager(cfg.Search.Provider)
	if cfg.Search.Tavily.APIKey != "" {
		mgr.Register(search.NewTavily(cfg.Search.Tavily.URL, cfg.Search.Tavily.APIKey))
	}
	if cfg.Search.Brave.APIKey != "" {
		mgr.Register(search.NewBrave(cfg.Search.Brave.URL, cfg.Search.Brave.APIKey))
	}
	if cfg.Search.SearXNG.URL != "" {
		mgr.Register(search.NewSearXNG(cfg.Search.SearXNG.URL))
	}
	if mgr.Configured() {
		if err := registry.Register(search.Tool(mgr)); err != nil {
			return nil, err
		}
		logger.Debug("web_search enabled", "provider", mgr.Primary(), "available", mgr.Providers())
	} else {
		logger.Warn("web_search disabled: search provider not configured", "provider", mgr.Primary())
	}

	fetcher := fetch.New(fetch.Config{
		Timeout:  time.Duration(cfg.Fetch.TimeoutSec) * time.Second,
		MaxChars: cfg.Fetch.MaxChars,
	}, logger)
	if err := registry.Register(fetch.Tool(fetcher)); err != nil {
		return nil, err
	}

	if err := registry.Register(calc.Tool()); err != nil {
		return nil, err
	}

	logger.Debug("tools registered", "tools", registry.Names())
	return registry, nil
}

// isNumber reports whether arg parses as a number, like "-5" or "-0.25".
func isNumber(arg string) bool {
	_, err := strconv.ParseFloat(arg, 64)
	return err == nil
}

// runVersion prints build metadata.
func runVersion(w io.Writer) error {
	info := buildinfo.BuildInfo()
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// runInit writes the example configuration to dir/agentic.yaml. An
// existing file is never overwritten.
func runInit(w io.Writer, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, "agentic.yaml")
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(w, "%s already exists, leaving it alone\n", path)
		return nil
	}
	// The file usually ends up holding API keys.
	if err := os.WriteFile(path, defaults.ConfigYAML, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(w, "Wrote %s\n", path)
	return nil
}

// printUsage writes the help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "agentic - a tool-using research agent")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: agentic [flags] <goal words...>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>       Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  --model <id>         Model identifier (default: gpt-4o-mini)")
	fmt.Fprintln(w, "  --max-steps <n>      Model queries allowed per goal (default: 8)")
	fmt.Fprintln(w, "  --log-level <level>  trace, debug, info, warn, error")
	fmt.Fprintln(w, "  --log-format <fmt>   text or json")
	fmt.Fprintln(w, "  -init [dir]          Write an example agentic.yaml and exit")
	fmt.Fprintln(w, "  --version            Show version information")
	fmt.Fprintln(w, "  -h, --help           Show this help")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Words after -- are always part of the goal, so goal words that")
	fmt.Fprintln(w, "look like flags can be passed as: agentic -- -v means what?")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	for _, p := range config.DefaultSearchPaths() {
		fmt.Fprintf(w, "  %s\n", p)
	}
	return nil
}
