package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App       AppConfig                 `yaml:"app"`
	Gateways  map[string]GatewayConfig  `yaml:"gateways"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Memory    MemoryConfig              `yaml:"memory"`
	Limits    LimitsConfig              `yaml:"limits"`
}

type AppConfig struct {
	Name      string `yaml:"name"`
	Workspace string `yaml:"workspace"`
	OutputDir string `yaml:"output_dir"`
}

type GatewayConfig struct {
	Token   string `yaml:"token"`
	Enabled bool   `yaml:"enabled"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url,omitempty"`
	Enabled bool   `yaml:"enabled"`
}

type MemoryConfig struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

// LimitsConfig bounds every loop in the orchestrator. Zero values fall
// back to the defaults below.
type LimitsConfig struct {
	MaxIterations      int `yaml:"max_iterations"`
	RetryBudget        int `yaml:"retry_budget"`
	ToolTimeoutSeconds int `yaml:"tool_timeout_seconds"`
}

const (
	DefaultMaxIterations = 10
	DefaultRetryBudget   = 3
	DefaultToolTimeout   = 60
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	return &cfg, nil
}

// applyEnvOverrides lets API keys come from the environment so the
// config file can be committed without secrets.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if p, ok := c.Providers["openai"]; ok {
			p.APIKey = key
			c.Providers["openai"] = p
		}
	}
	if key := os.Getenv("TELEGRAM_BOT_TOKEN"); key != "" {
		if g, ok := c.Gateways["telegram"]; ok {
			g.Token = key
			c.Gateways["telegram"] = g
		}
	}
	if key := os.Getenv("DISCORD_BOT_TOKEN"); key != "" {
		if g, ok := c.Gateways["discord"]; ok {
			g.Token = key
			c.Gateways["discord"] = g
		}
	}
}

func (c *Config) applyDefaults() {
	if c.App.Workspace == "" {
		c.App.Workspace = "./workspace"
	}
	if c.App.OutputDir == "" {
		c.App.OutputDir = "./output"
	}
	if c.Memory.Path == "" {
		c.Memory.Path = "yantra.db"
	}
	if c.Limits.MaxIterations <= 0 {
		c.Limits.MaxIterations = DefaultMaxIterations
	}
	if c.Limits.RetryBudget <= 0 {
		c.Limits.RetryBudget = DefaultRetryBudget
	}
	if c.Limits.ToolTimeoutSeconds <= 0 {
		c.Limits.ToolTimeoutSeconds = DefaultToolTimeout
	}
}

// GetDefaultProvider returns the first enabled provider.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	for name, p := range c.Providers {
		if p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetGateway returns the named gateway config if enabled.
func (c *Config) GetGateway(name string) (GatewayConfig, bool) {
	g, ok := c.Gateways[name]
	if ok && g.Enabled && g.Token != "" {
		return g, true
	}
	return GatewayConfig{}, false
}
