package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// ErrMissingModelCredential is returned by Validate when no API key is
// configured for the default LLM.
var ErrMissingModelCredential = errors.New("OPENAI_API_KEY environment variable is required")

const (
	TransportStreamableHTTP = "streamable_http"
	TransportSSE            = "sse"
	TransportStdio          = "stdio"
)

type Config struct {
	DefaultLLM     string                      `toml:"default_llm" validate:"required"`
	LLMs           map[string]*LLMConfig       `toml:"llm" validate:"required,dive"`
	RecursionLimit int                         `toml:"recursion_limit" validate:"min=1"`
	Search         SearchConfig                `toml:"search"`
	MCP            map[string]*MCPServerConfig `toml:"mcp" validate:"dive"`
	Workspace      WorkspaceConfig             `toml:"workspace"`
	Gateway        GatewayConfig               `toml:"gateway"`
	DB             DBConfig                    `toml:"db"`
	Trace          TraceConfig                 `toml:"trace"`
	Telegram       TelegramConfig              `toml:"telegram"`
}

type LLMConfig struct {
	Model   string `toml:"model" validate:"required"`
	BaseURL string `toml:"base_url" validate:"omitempty,url"`
	APIKey  string `toml:"api_key"`
}

type SearchConfig struct {
	Provider string `toml:"provider" validate:"oneof=tavily brave"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url" validate:"omitempty,url"`
}

// MCPServerConfig describes one remote tool server. URL is used by the
// HTTP transports, Command/Args/Env by stdio.
type MCPServerConfig struct {
	URL       string   `toml:"url" validate:"required_unless=Transport stdio,omitempty,url"`
	Transport string   `toml:"transport" validate:"oneof=streamable_http sse stdio"`
	Command   string   `toml:"command" validate:"required_if=Transport stdio"`
	Args      []string `toml:"args"`
	Env       []string `toml:"env"`
}

type WorkspaceConfig struct {
	Dir string `toml:"dir" validate:"required"`
}

type GatewayConfig struct {
	Addr string `toml:"addr" validate:"required"`
}

type DBConfig struct {
	Path string `toml:"path"`
}

// TelegramConfig enables the Telegram webhook channel when BotToken is set.
type TelegramConfig struct {
	BotToken     string  `toml:"bot_token"`
	Secret       string  `toml:"secret"`
	AllowedChats []int64 `toml:"allowed_chats"`
	APIURL       string  `toml:"api_url" validate:"omitempty,url"`
}

type TraceConfig struct {
	Endpoint string `toml:"endpoint"`
	URLPath  string `toml:"url_path"`
	APIKey   string `toml:"api_key"`
}

// Default returns the built-in configuration: gpt-4o-mini, a step ceiling of
// 1000, Tavily search and the local LinkedIn scraper MCP server.
func Default() *Config {
	return &Config{
		DefaultLLM: "openai",
		LLMs: map[string]*LLMConfig{
			"openai": {
				Model: "gpt-4o-mini",
			},
		},
		RecursionLimit: 1000,
		Search: SearchConfig{
			Provider: "tavily",
		},
		MCP: map[string]*MCPServerConfig{
			"linkedin_scraper": {
				URL:       "http://127.0.0.1:8000/mcp",
				Transport: TransportStreamableHTTP,
			},
		},
		Workspace: WorkspaceConfig{
			Dir: defaultWorkspaceDir(),
		},
		Gateway: GatewayConfig{
			Addr: ":8484",
		},
		DB: DBConfig{
			Path: defaultDBPath(),
		},
	}
}

// Load reads the TOML file at path over the defaults and applies environment
// overrides. An empty path means $JOBAGENT_CONFIG or the user config dir; a
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = Path()
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// decode applies the TOML document over cfg. Tables the file defines replace
// the default tables wholesale, so a file can drop the default MCP server or
// LLM entry ("mcp = {}" disables remote tools).
func decode(data string, cfg *Config) error {
	var doc map[string]any
	md, err := toml.Decode(data, &doc)
	if err != nil {
		return err
	}
	if md.IsDefined("mcp") {
		cfg.MCP = map[string]*MCPServerConfig{}
	}
	if md.IsDefined("llm") {
		cfg.LLMs = map[string]*LLMConfig{}
	}
	_, err = toml.Decode(data, cfg)
	return err
}

func (c *Config) applyEnv() {
	if llm, ok := c.LLMs[c.DefaultLLM]; ok && llm.APIKey == "" {
		llm.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Search.APIKey == "" {
		switch c.Search.Provider {
		case "brave":
			c.Search.APIKey = os.Getenv("BRAVE_API_KEY")
		default:
			c.Search.APIKey = os.Getenv("TAVILY_API_KEY")
		}
	}
	if c.Telegram.BotToken == "" {
		c.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	for _, srv := range c.MCP {
		if srv.Transport == "" {
			srv.Transport = TransportStreamableHTTP
		}
	}
}

// LLM returns the default LLM entry.
func (c *Config) LLM() (*LLMConfig, error) {
	llm, ok := c.LLMs[c.DefaultLLM]
	if !ok {
		return nil, fmt.Errorf("default LLM %q not found in config", c.DefaultLLM)
	}
	return llm, nil
}

// Validate checks the model credential first, then the struct constraints.
// The search credential is intentionally not checked here.
func (c *Config) Validate() error {
	llm, err := c.LLM()
	if err != nil {
		return err
	}
	if llm.APIKey == "" {
		return ErrMissingModelCredential
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Write encodes cfg as TOML to path, creating parent directories.
func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// Path returns the config file location.
func Path() string {
	if p := os.Getenv("JOBAGENT_CONFIG"); p != "" {
		return p
	}
	dir, _ := os.UserConfigDir()
	return filepath.Join(dir, "jobagent", "config.toml")
}

func defaultDBPath() string {
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, ".local", "share", "jobagent", "jobagent.db")
}

func defaultWorkspaceDir() string {
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, ".local", "share", "jobagent", "workspace")
}
