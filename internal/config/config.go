// Package config handles agentic configuration loading.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/nugget/agentic/internal/memory"
)

// Provider names accepted in the llm and search sections.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"

	SearchTavily  = "tavily"
	SearchBrave   = "brave"
	SearchSearXNG = "searxng"
)

// ErrNoConfig is returned by FindConfig when no file exists on the
// search path. Callers fall back to Default.
var ErrNoConfig = errors.New("no config file found")

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./agentic.yaml, ./agentic.toml, ~/.config/agentic/config.yaml,
// /etc/agentic/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"agentic.yaml", "agentic.toml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "agentic", "config.yaml"))
	}

	paths = append(paths, "/etc/agentic/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists,
// or an error wrapping ErrNoConfig.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w (searched: %v)", ErrNoConfig, DefaultSearchPaths())
}

// Config holds all agentic configuration.
type Config struct {
	Agent     AgentConfig  `yaml:"agent" toml:"agent"`
	LLM       LLMConfig    `yaml:"llm" toml:"llm"`
	Search    SearchConfig `yaml:"search" toml:"search"`
	Fetch     FetchConfig  `yaml:"fetch" toml:"fetch"`
	LogLevel  string       `yaml:"log_level" toml:"log_level"`
	LogFormat string       `yaml:"log_format" toml:"log_format"` // text or json
}

// AgentConfig defines the control loop's model and budgets.
type AgentConfig struct {
	Model        string  `yaml:"model" toml:"model"`
	MaxSteps     int     `yaml:"max_steps" toml:"max_steps"`
	Temperature  float64 `yaml:"temperature" toml:"temperature"`
	TopP         float64 `yaml:"top_p" toml:"top_p"`
	MaxTurns     int     `yaml:"max_turns" toml:"max_turns"`
	Eviction     string  `yaml:"eviction" toml:"eviction"` // oldest or pin_system
	SystemPrompt string  `yaml:"system_prompt" toml:"system_prompt"`
}

// LLMConfig defines the model providers and how models route to them.
type LLMConfig struct {
	// DefaultProvider serves any model without an explicit route.
	DefaultProvider string         `yaml:"default_provider" toml:"default_provider"`
	OpenAI          ProviderConfig `yaml:"openai" toml:"openai"`
	Anthropic       ProviderConfig `yaml:"anthropic" toml:"anthropic"`
	Ollama          ProviderConfig `yaml:"ollama" toml:"ollama"`
	// Routes maps a model name to a provider name.
	Routes map[string]string `yaml:"routes" toml:"routes"`
}

// ProviderConfig holds one provider's endpoint and credential.
type ProviderConfig struct {
	URL    string `yaml:"url" toml:"url"`
	APIKey string `yaml:"api_key" toml:"api_key"`
}

// SearchConfig defines the web_search backends.
type SearchConfig struct {
	Provider string         `yaml:"provider" toml:"provider"`
	Tavily   ProviderConfig `yaml:"tavily" toml:"tavily"`
	Brave    ProviderConfig `yaml:"brave" toml:"brave"`
	SearXNG  ProviderConfig `yaml:"searxng" toml:"searxng"`
}

// FetchConfig tunes the fetch_url tool.
type FetchConfig struct {
	TimeoutSec int `yaml:"timeout_sec" toml:"timeout_sec"` // default 15
	MaxChars   int `yaml:"max_chars" toml:"max_chars"`     // default 20000
}

// Load reads configuration from a YAML or TOML file, chosen by
// extension. Environment references are expanded before decoding and
// values absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Default returns a default configuration with credentials taken from
// the environment.
func Default() *Config {
	cfg := &Config{
		Agent: AgentConfig{
			Model:       "gpt-4o-mini",
			MaxSteps:    8,
			Temperature: 0.2,
			TopP:        1.0,
			MaxTurns:    memory.DefaultMaxTurns,
			Eviction:    memory.EvictOldest.String(),
		},
		LLM: LLMConfig{
			DefaultProvider: ProviderOpenAI,
		},
		Search: SearchConfig{
			Provider: SearchTavily,
		},
		Fetch: FetchConfig{
			TimeoutSec: 15,
			MaxChars:   20000,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
	cfg.applyEnv()
	return cfg
}

// applyEnv fills empty credentials from the conventional variables.
func (c *Config) applyEnv() {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	fill(&c.LLM.OpenAI.APIKey, "OPENAI_API_KEY")
	fill(&c.LLM.OpenAI.URL, "OPENAI_BASE_URL")
	fill(&c.LLM.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	fill(&c.LLM.Ollama.URL, "OLLAMA_HOST")
	fill(&c.Search.Tavily.APIKey, "TAVILY_API_KEY")
	fill(&c.Search.Brave.APIKey, "BRAVE_API_KEY")
	fill(&c.Search.SearXNG.URL, "SEARXNG_URL")
}

// applyDefaults replaces unusable zero values left by a sparse file.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Agent.Model == "" {
		c.Agent.Model = d.Agent.Model
	}
	if c.Agent.MaxSteps == 0 {
		c.Agent.MaxSteps = d.Agent.MaxSteps
	}
	if c.Agent.MaxTurns == 0 {
		c.Agent.MaxTurns = d.Agent.MaxTurns
	}
	if c.LLM.DefaultProvider == "" {
		c.LLM.DefaultProvider = d.LLM.DefaultProvider
	}
	if c.Search.Provider == "" {
		c.Search.Provider = d.Search.Provider
	}
	if c.Fetch.TimeoutSec == 0 {
		c.Fetch.TimeoutSec = d.Fetch.TimeoutSec
	}
	if c.Fetch.MaxChars == 0 {
		c.Fetch.MaxChars = d.Fetch.MaxChars
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Agent.MaxSteps < 1 {
		return fmt.Errorf("agent.max_steps must be at least 1, got %d", c.Agent.MaxSteps)
	}
	if c.Agent.MaxTurns < 1 {
		return fmt.Errorf("agent.max_turns must be at least 1, got %d", c.Agent.MaxTurns)
	}
	if c.Agent.Temperature < 0 || c.Agent.Temperature > 2 {
		return fmt.Errorf("agent.temperature must be within [0, 2], got %g", c.Agent.Temperature)
	}
	if c.Agent.TopP <= 0 || c.Agent.TopP > 1 {
		return fmt.Errorf("agent.top_p must be within (0, 1], got %g", c.Agent.TopP)
	}
	if _, err := memory.ParseEvictionPolicy(c.Agent.Eviction); err != nil {
		return fmt.Errorf("agent.eviction: %w", err)
	}

	if !validLLMProvider(c.LLM.DefaultProvider) {
		return fmt.Errorf("llm.default_provider: unknown provider %q", c.LLM.DefaultProvider)
	}
	for model, provider := range c.LLM.Routes {
		if !validLLMProvider(provider) {
			return fmt.Errorf("llm.routes[%s]: unknown provider %q", model, provider)
		}
	}

	switch c.Search.Provider {
	case SearchTavily, SearchBrave, SearchSearXNG:
	default:
		return fmt.Errorf("search.provider: unknown provider %q", c.Search.Provider)
	}

	if c.Fetch.TimeoutSec < 1 {
		return fmt.Errorf("fetch.timeout_sec must be at least 1, got %d", c.Fetch.TimeoutSec)
	}
	if c.Fetch.MaxChars < 1 {
		return fmt.Errorf("fetch.max_chars must be at least 1, got %d", c.Fetch.MaxChars)
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// EvictionPolicy returns the parsed agent.eviction setting.
func (c *Config) EvictionPolicy() memory.EvictionPolicy {
	p, _ := memory.ParseEvictionPolicy(c.Agent.Eviction)
	return p
}

// ProviderFor returns the provider that serves model.
func (c *Config) ProviderFor(model string) string {
	if p, ok := c.LLM.Routes[model]; ok {
		return p
	}
	return c.LLM.DefaultProvider
}

func validLLMProvider(name string) bool {
	switch name {
	case ProviderOpenAI, ProviderAnthropic, ProviderOllama:
		return true
	}
	return false
}
