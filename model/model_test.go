package model

import (
	"context"
	"strings"
	"testing"

	"orchat/config"
	"orchat/tools"
)

type fakeProvider struct {
	model string
	reply string
}

func (f *fakeProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	return f.reply, nil
}

func (f *fakeProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	return nil, nil
}

func (f *fakeProvider) GetModel() string       { return f.model }
func (f *fakeProvider) GetDisplayName() string { return f.model }
func (f *fakeProvider) SetModel(model string)  { f.model = model }

func (f *fakeProvider) Ping(ctx context.Context) error { return nil }

func newPromptEngine(t *testing.T) *tools.Engine {
	t.Helper()
	catalog := &tools.Catalog{Tools: []tools.Definition{
		{
			ID:              "time",
			Name:            "Current Time",
			Keywords:        []string{"time", "clock"},
			LLMInstructions: `Reply with {"tool": "time", "location": "<place>"}.`,
			BackendEndpoint: "/tools/time",
			Renderer:        "time",
		},
	}}
	engine, err := tools.NewEngine(catalog, tools.NewDispatcher("http://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func TestNewModelProviderFallback(t *testing.T) {
	providers := map[string]Provider{"ollama": &fakeProvider{model: "llama3"}}

	m := NewModel(&config.Config{DefaultProvider: "openrouter"}, nil, nil, providers, "test")
	if m.ActiveProviderID != "ollama" {
		t.Errorf("ActiveProviderID = %q, want fallback to %q", m.ActiveProviderID, "ollama")
	}

	m = NewModel(&config.Config{DefaultProvider: "ollama"}, nil, nil, providers, "test")
	if m.ActiveProviderID != "ollama" {
		t.Errorf("ActiveProviderID = %q, want configured %q", m.ActiveProviderID, "ollama")
	}
	if m.ActiveProvider() == nil {
		t.Error("ActiveProvider() = nil for configured provider")
	}
}

func TestSwitchModel(t *testing.T) {
	ollama := &fakeProvider{model: "llama3"}
	m := NewModel(&config.Config{DefaultProvider: "ollama"}, nil, nil, map[string]Provider{"ollama": ollama}, "test")

	if ok := m.SwitchModel(ModelInfo{InternalName: "qwen3", Provider: "ollama"}); !ok {
		t.Fatal("SwitchModel to configured provider failed")
	}
	if m.ActiveProviderID != "ollama" {
		t.Errorf("ActiveProviderID = %q after switch", m.ActiveProviderID)
	}
	if ollama.model != "qwen3" {
		t.Errorf("provider model = %q, want %q", ollama.model, "qwen3")
	}

	if ok := m.SwitchModel(ModelInfo{InternalName: "claude-sonnet", Provider: "anthropic"}); ok {
		t.Error("SwitchModel to unconfigured provider succeeded")
	}
	if m.ActiveProviderID != "ollama" || ollama.model != "qwen3" {
		t.Error("failed switch mutated provider state")
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	engine := newPromptEngine(t)

	tests := []struct {
		name         string
		configPrompt string
		engine       *tools.Engine
		userText     string
		want         []string
		wantAbsent   []string
	}{
		{
			name:     "no prompt no tools",
			userText: "hello there",
		},
		{
			name:         "config prompt only",
			configPrompt: "Be concise.",
			userText:     "hello there",
			want:         []string{"Be concise."},
			wantAbsent:   []string{"### Tool:"},
		},
		{
			name:         "matched tool appended after config prompt",
			configPrompt: "Be concise.",
			engine:       engine,
			userText:     "what time is it in Tokyo",
			want:         []string{"Be concise.", "### Tool: Current Time", `{"tool": "time"`},
		},
		{
			name:       "unmatched text gets no tool block",
			engine:     engine,
			userText:   "tell me about whales",
			wantAbsent: []string{"### Tool:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Model{
				Config: &config.Config{DefaultSystemPrompt: tt.configPrompt},
				Tools:  tt.engine,
			}
			got := m.BuildSystemPrompt(tt.userText)
			if len(tt.want) == 0 && len(tt.wantAbsent) == 0 && got != "" {
				t.Fatalf("BuildSystemPrompt = %q, want empty", got)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("prompt missing %q:\n%s", w, got)
				}
			}
			for _, w := range tt.wantAbsent {
				if strings.Contains(got, w) {
					t.Errorf("prompt unexpectedly contains %q:\n%s", w, got)
				}
			}
		})
	}
}

func TestBuildAPIMessages(t *testing.T) {
	history := []Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}

	got := buildAPIMessages(history, "Be concise.")
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Role != "system" || got[0].Content != "Be concise." {
		t.Errorf("first message = %+v, want system prompt", got[0])
	}
	if got[1].Content != "hi" || got[2].Content != "hello" {
		t.Error("history not preserved in order after system prompt")
	}

	got = buildAPIMessages(history, "")
	if len(got) != 2 || got[0].Role != "user" {
		t.Errorf("empty system prompt should leave history as-is, got %+v", got)
	}
}

func TestNewConversationResets(t *testing.T) {
	m := &Model{
		Messages:              []Message{{Role: "user", Content: "hi"}},
		CurrentConversationID: "abc",
		Waiting:               true,
	}
	m.NewConversation()
	if len(m.Messages) != 0 || m.CurrentConversationID != "" || m.Waiting {
		t.Errorf("NewConversation left state: %+v", m)
	}
}
