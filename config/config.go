package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

type OllamaConfig struct {
	Host         string `toml:"host"`
	DefaultModel string `toml:"default_model"`
}

type ProviderConfig struct {
	ID           string `toml:"id"`
	Name         string `toml:"name"`
	BaseURL      string `toml:"base_url,omitempty"`
	DefaultModel string `toml:"default_model,omitempty"`
	Enabled      bool   `toml:"enabled"`
}

type ToolsConfig struct {
	Enabled     bool   `toml:"enabled"`
	CatalogPath string `toml:"catalog_path,omitempty"`
}

type SecurityConfig struct {
	Method     string `toml:"method"`
	SSHKeyPath string `toml:"ssh_key_path,omitempty"`
}

type UserConfig struct {
	DefaultProvider     string           `toml:"default_provider"`
	DefaultSystemPrompt string           `toml:"default_system_prompt,omitempty"`
	Ollama              OllamaConfig     `toml:"ollama"`
	Providers           []ProviderConfig `toml:"providers"`
	Tools               ToolsConfig      `toml:"tools"`
	Security            SecurityConfig   `toml:"security"`
}

type Config struct {
	DataDirectory       string
	DefaultProvider     string
	DefaultModel        string
	OllamaHost          string
	DefaultSystemPrompt string
	ToolsEnabled        bool
	ToolsCatalogPath    string
	Providers           []ProviderConfig
	CredentialStore     *CredentialStore
}

var Debug = false
var DebugLog *log.Logger

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// ProviderBaseURL returns the configured base URL for a provider ID,
// falling back to the provider's well-known default.
func (c *Config) ProviderBaseURL(id string) string {
	for _, p := range c.Providers {
		if p.ID == id && p.BaseURL != "" {
			return p.BaseURL
		}
	}
	if id == "ollama" {
		return c.OllamaHost
	}
	return DefaultProviderBaseURL(id)
}

// ProviderModel returns the default model for a provider ID.
func (c *Config) ProviderModel(id string) string {
	for _, p := range c.Providers {
		if p.ID == id && p.DefaultModel != "" {
			return p.DefaultModel
		}
	}
	return ""
}

func (c *Config) applyEnvOverrides() {
	if dataDir := os.Getenv("ORCHAT_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if provider := os.Getenv("ORCHAT_PROVIDER"); provider != "" {
		c.DefaultProvider = provider
	}
	if model := os.Getenv("ORCHAT_MODEL"); model != "" {
		c.DefaultModel = model
	}
	if host := os.Getenv("ORCHAT_OLLAMA_HOST"); host != "" {
		c.OllamaHost = host
	}
}

func CheckDebug() bool {
	debug := os.Getenv("ORCHAT_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600: debug output may echo request payloads
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (ORCHAT_DEBUG=%s) ===", os.Getenv("ORCHAT_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

func Load() (*Config, error) {
	cfg := &Config{
		DataDirectory:   "~/.local/share/orchat",
		DefaultProvider: "openrouter",
		OllamaHost:      "http://localhost:11434",
		ToolsEnabled:    true,
	}

	systemCfg, err := LoadSystemConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load system config: %w", err)
	}
	cfg.DataDirectory = systemCfg.DataDirectory
	cfg.applyEnvOverrides()

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	cfg.DefaultSystemPrompt = userCfg.DefaultSystemPrompt
	cfg.OllamaHost = userCfg.Ollama.Host
	cfg.Providers = userCfg.Providers
	cfg.ToolsEnabled = userCfg.Tools.Enabled
	cfg.ToolsCatalogPath = userCfg.Tools.CatalogPath
	if userCfg.DefaultProvider != "" {
		cfg.DefaultProvider = userCfg.DefaultProvider
	}

	// env wins over file settings
	cfg.applyEnvOverrides()

	if cfg.DefaultModel == "" {
		cfg.DefaultModel = cfg.ProviderModel(cfg.DefaultProvider)
	}
	if cfg.DefaultModel == "" && cfg.DefaultProvider == "ollama" {
		cfg.DefaultModel = userCfg.Ollama.DefaultModel
	}

	if cfg.ToolsCatalogPath == "" {
		cfg.ToolsCatalogPath = filepath.Join(dataDir, "tools.json")
	} else {
		cfg.ToolsCatalogPath = ExpandPath(cfg.ToolsCatalogPath)
	}

	method := SecurityMethod(userCfg.Security.Method)
	if method == "" {
		method = SecurityPlainText
	}
	store := NewCredentialStore(method, ExpandPath(userCfg.Security.SSHKeyPath))
	if err := store.Load(dataDir); err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	cfg.CredentialStore = store

	return cfg, nil
}
