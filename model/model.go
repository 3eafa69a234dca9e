package model

import (
	"orchat/config"
	"orchat/storage"
	"orchat/tools"
)

// Model holds the core application data and business logic state
type Model struct {
	// Core dependencies
	Config    *config.Config
	Store     *storage.Store
	Tools     *tools.Engine // nil when tools are disabled
	Providers map[string]Provider

	// Application data
	Messages              []Message
	CurrentConversationID string
	ActiveProviderID      string

	// Runtime state (not UI)
	Waiting            bool
	NeedsInitialRender bool
	Quitting           bool

	// Application metadata
	Version string
}

// NewModel creates a new Model with the given configuration
func NewModel(cfg *config.Config, store *storage.Store, engine *tools.Engine, providers map[string]Provider, version string) *Model {
	active := cfg.DefaultProvider
	if _, ok := providers[active]; !ok {
		// Fall back to any configured provider
		for id := range providers {
			active = id
			break
		}
	}

	return &Model{
		Config:           cfg,
		Store:            store,
		Tools:            engine,
		Providers:        providers,
		ActiveProviderID: active,
		Version:          version,
	}
}

// ActiveProvider returns the provider for the active provider ID, or nil.
func (m *Model) ActiveProvider() Provider {
	return m.Providers[m.ActiveProviderID]
}

// SwitchModel switches the active provider and model.
func (m *Model) SwitchModel(info ModelInfo) bool {
	p, ok := m.Providers[info.Provider]
	if !ok {
		return false
	}
	m.ActiveProviderID = info.Provider
	p.SetModel(info.InternalName)
	if config.DebugLog != nil {
		config.DebugLog.Printf("[Model] Switched to %s via %s", info.InternalName, info.Provider)
	}
	return true
}

// NewConversation clears the transcript and detaches from the stored
// conversation. The next persisted message starts a fresh record.
func (m *Model) NewConversation() {
	m.Messages = nil
	m.CurrentConversationID = ""
	m.Waiting = false
}
