package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"orchat/config"
	appmodel "orchat/model"
	"orchat/provider"
	"orchat/storage"
	"orchat/tools"
	"orchat/toolserver"
	"orchat/ui"
)

const Version = "v0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize debug logging after config is loaded
	config.InitDebugLog(cfg.DataDir())

	store, err := storage.Open(cfg.DataDir())
	if err != nil {
		fmt.Printf("Failed to open conversation store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	engine, err := setupTools(cfg)
	if err != nil {
		fmt.Printf("Failed to set up tools: %v\n", err)
		os.Exit(1)
	}

	providers := buildProviders(cfg)
	if len(providers) == 0 {
		fmt.Println("No providers configured. Enable a provider in config.toml or set an API key in credentials.toml.")
		os.Exit(1)
	}

	dataModel := appmodel.NewModel(cfg, store, engine, providers, Version)

	p := tea.NewProgram(
		ui.NewAppView(dataModel),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running orchat: %v\n", err)
		os.Exit(1)
	}
}

// setupTools starts the local tool backend on a loopback port and builds the
// detection/dispatch engine around it. Returns nil when tools are disabled.
func setupTools(cfg *config.Config) (*tools.Engine, error) {
	if !cfg.ToolsEnabled {
		return nil, nil
	}

	if err := config.CreateDefaultToolCatalog(cfg.ToolsCatalogPath); err != nil {
		return nil, fmt.Errorf("tool catalog: %w", err)
	}
	catalog, err := tools.LoadCatalog(cfg.ToolsCatalogPath)
	if err != nil {
		return nil, fmt.Errorf("tool catalog: %w", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("tool backend listen: %w", err)
	}

	srv := toolserver.New(toolserver.Config{})
	go func() {
		if serveErr := http.Serve(ln, srv.Handler()); serveErr != nil && config.DebugLog != nil {
			config.DebugLog.Printf("tool backend stopped: %v", serveErr)
		}
	}()

	baseURL := "http://" + ln.Addr().String()
	if config.DebugLog != nil {
		config.DebugLog.Printf("tool backend listening on %s", baseURL)
	}

	return tools.NewEngine(catalog, tools.NewDispatcher(baseURL))
}

// buildProviders constructs a client for every enabled provider that has
// what it needs (Ollama needs no key, the rest do).
func buildProviders(cfg *config.Config) map[string]appmodel.Provider {
	providers := make(map[string]appmodel.Provider)

	for _, pc := range cfg.Providers {
		if !pc.Enabled {
			continue
		}

		apiKey := cfg.CredentialStore.Get(pc.ID)
		if apiKey == "" {
			apiKey = os.Getenv(strings.ToUpper(pc.ID) + "_API_KEY")
		}

		client, err := provider.NewProvider(provider.Config{
			Type:    provider.MapProviderIDToType(pc.ID),
			BaseURL: cfg.ProviderBaseURL(pc.ID),
			Model:   cfg.ProviderModel(pc.ID),
			APIKey:  apiKey,
		})
		if err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("skipping provider %s: %v", pc.ID, err)
			}
			continue
		}
		providers[pc.ID] = client
	}

	return providers
}
