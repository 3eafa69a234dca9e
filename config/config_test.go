package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home := GetHomeDir()

	tests := []struct {
		in   string
		want string
	}{
		{"~/data", filepath.Join(home, "data")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultProviderBaseURL(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"openrouter", "https://openrouter.ai/api/v1"},
		{"ollama", "http://localhost:11434"},
		{"anthropic", "https://api.anthropic.com"},
		{"openai", "https://api.openai.com/v1"},
		{"unknown", ""},
	}

	for _, tt := range tests {
		if got := DefaultProviderBaseURL(tt.id); got != tt.want {
			t.Errorf("DefaultProviderBaseURL(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestGenerateToolCatalogTemplate(t *testing.T) {
	var catalog struct {
		Tools []struct {
			ID              string   `json:"id"`
			Keywords        []string `json:"keywords"`
			LLMInstructions string   `json:"llm_instructions"`
			BackendEndpoint string   `json:"backend_endpoint"`
			Renderer        string   `json:"renderer"`
		} `json:"tools"`
	}

	if err := json.Unmarshal([]byte(GenerateToolCatalogTemplate()), &catalog); err != nil {
		t.Fatalf("default catalog is not valid JSON: %v", err)
	}

	want := map[string]bool{"time": false, "weather": false, "finance": false}
	for _, tool := range catalog.Tools {
		if _, known := want[tool.ID]; !known {
			t.Errorf("unexpected tool %q in default catalog", tool.ID)
			continue
		}
		want[tool.ID] = true

		if len(tool.Keywords) == 0 {
			t.Errorf("tool %q has no keywords", tool.ID)
		}
		if tool.BackendEndpoint == "" || tool.Renderer == "" {
			t.Errorf("tool %q missing endpoint or renderer", tool.ID)
		}
		if !strings.Contains(tool.LLMInstructions, `\"tool\": \"`+tool.ID+`\"`) &&
			!strings.Contains(tool.LLMInstructions, `"tool": "`+tool.ID+`"`) {
			t.Errorf("tool %q instructions do not show the call shape", tool.ID)
		}
	}
	for id, present := range want {
		if !present {
			t.Errorf("default catalog missing tool %q", id)
		}
	}
}

func TestCreateDefaultToolCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.json")

	if err := CreateDefaultToolCatalog(path); err != nil {
		t.Fatalf("CreateDefaultToolCatalog() error = %v", err)
	}

	// Existing catalogs are never overwritten
	if err := os.WriteFile(path, []byte(`{"tools": []}`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := CreateDefaultToolCatalog(path); err != nil {
		t.Fatalf("CreateDefaultToolCatalog() second call error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != `{"tools": []}` {
		t.Error("CreateDefaultToolCatalog() overwrote an existing catalog")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dataDir := t.TempDir()
	t.Setenv("ORCHAT_DATA_DIR", dataDir)
	t.Setenv("ORCHAT_PROVIDER", "ollama")
	t.Setenv("ORCHAT_MODEL", "llama3.2")
	t.Setenv("ORCHAT_OLLAMA_HOST", "http://10.0.0.5:11434")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DataDir() != dataDir {
		t.Errorf("DataDir() = %q, want %q", cfg.DataDir(), dataDir)
	}
	if cfg.DefaultProvider != "ollama" {
		t.Errorf("DefaultProvider = %q, want ollama", cfg.DefaultProvider)
	}
	if cfg.DefaultModel != "llama3.2" {
		t.Errorf("DefaultModel = %q, want llama3.2", cfg.DefaultModel)
	}
	if cfg.OllamaHost != "http://10.0.0.5:11434" {
		t.Errorf("OllamaHost = %q", cfg.OllamaHost)
	}
	if cfg.ToolsCatalogPath != filepath.Join(dataDir, "tools.json") {
		t.Errorf("ToolsCatalogPath = %q", cfg.ToolsCatalogPath)
	}
	if cfg.CredentialStore == nil {
		t.Error("CredentialStore not initialized")
	}

	// First load writes the default user config into the data dir
	if !FileExists(filepath.Join(dataDir, "config.toml")) {
		t.Error("default user config not created")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ORCHAT_DATA_DIR", t.TempDir())
	t.Setenv("ORCHAT_PROVIDER", "")
	t.Setenv("ORCHAT_MODEL", "")
	t.Setenv("ORCHAT_OLLAMA_HOST", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DefaultProvider != "openrouter" {
		t.Errorf("DefaultProvider = %q, want openrouter", cfg.DefaultProvider)
	}
	if !cfg.ToolsEnabled {
		t.Error("tools disabled by default")
	}
	if len(cfg.Providers) == 0 {
		t.Fatal("no providers in default config")
	}

	if got := cfg.ProviderBaseURL("openrouter"); got != "https://openrouter.ai/api/v1" {
		t.Errorf("ProviderBaseURL(openrouter) = %q", got)
	}
}

func TestCredentialStorePlaintext(t *testing.T) {
	dataDir := t.TempDir()
	store := NewCredentialStore(SecurityPlainText, "")

	if err := store.Load(dataDir); err != nil {
		t.Fatalf("Load() on empty dir error = %v", err)
	}

	if err := store.Set("openrouter", "sk-or-test"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Save(dataDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded := NewCredentialStore(SecurityPlainText, "")
	if err := reloaded.Load(dataDir); err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if got := reloaded.Get("openrouter"); got != "sk-or-test" {
		t.Errorf("Get() = %q, want sk-or-test", got)
	}
	if got := reloaded.Get("missing"); got != "" {
		t.Errorf("Get(missing) = %q, want empty", got)
	}

	if err := reloaded.Delete("openrouter"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := reloaded.Save(dataDir); err != nil {
		t.Fatalf("Save() after delete error = %v", err)
	}

	final := NewCredentialStore(SecurityPlainText, "")
	final.Load(dataDir)
	if got := final.Get("openrouter"); got != "" {
		t.Errorf("deleted credential still present: %q", got)
	}
}

func TestAESGCMRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	plaintext := []byte(`{"openrouter": "sk-or-secret"}`)

	encrypted, err := encryptAESGCM(plaintext, key)
	if err != nil {
		t.Fatalf("encryptAESGCM() error = %v", err)
	}
	if strings.Contains(string(encrypted), "sk-or-secret") {
		t.Error("ciphertext contains plaintext")
	}

	decrypted, err := decryptAESGCM(encrypted, key)
	if err != nil {
		t.Fatalf("decryptAESGCM() error = %v", err)
	}
	if string(decrypted) != string(plaintext) {
		t.Errorf("round trip = %q, want %q", decrypted, plaintext)
	}

	// Tampering must fail authentication
	encrypted[len(encrypted)-1] ^= 0xff
	if _, err := decryptAESGCM(encrypted, key); err == nil {
		t.Error("decryptAESGCM() accepted tampered ciphertext")
	}

	wrongKey := make([]byte, 32)
	if _, err := decryptAESGCM(encrypted, wrongKey); err == nil {
		t.Error("decryptAESGCM() accepted wrong key")
	}
}
