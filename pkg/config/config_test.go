package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestLoadConfigOptional_EmptyPath tests loading when file path is empty
func TestLoadConfigOptional_EmptyPath(t *testing.T) {
	t.Setenv("PORT", "9999")

	cfg, err := LoadConfigOptional("")
	if err != nil {
		t.Fatalf("LoadConfigOptional with empty path should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected non-nil config")
	}
	if cfg.Port != 9999 {
		t.Errorf("Expected Port=9999 from env, got %d", cfg.Port)
	}
}

// TestLoadConfigOptional_FileNotExist tests loading when file does not exist
func TestLoadConfigOptional_FileNotExist(t *testing.T) {
	nonExistentPath := filepath.Join(t.TempDir(), "config-does-not-exist.yaml")

	cfg, err := LoadConfigOptional(nonExistentPath)
	if err != nil {
		t.Fatalf("LoadConfigOptional with non-existent file should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected non-nil config")
	}
}

// TestLoadConfigOptional_Defaults verifies defaults fill absent values
func TestLoadConfigOptional_Defaults(t *testing.T) {
	cfg, err := LoadConfigOptional("")
	if err != nil {
		t.Fatalf("LoadConfigOptional should not error: %v", err)
	}

	if cfg.Port != 8000 {
		t.Errorf("Expected default Port=8000, got %d", cfg.Port)
	}
	if cfg.LLMProvider != ProviderGoogle {
		t.Errorf("Expected default provider 'google', got %q", cfg.LLMProvider)
	}
	if cfg.GeminiModel != "gemini-1.5-pro-latest" {
		t.Errorf("Expected default Gemini model, got %q", cfg.GeminiModel)
	}
	if cfg.OpenRouterModel != "openai/gpt-oss-20b:free" {
		t.Errorf("Expected default OpenRouter model, got %q", cfg.OpenRouterModel)
	}
	if cfg.OpenRouterBaseURL != "https://openrouter.ai/api/v1" {
		t.Errorf("Expected default OpenRouter base URL, got %q", cfg.OpenRouterBaseURL)
	}
	if cfg.TranscriptLanguage != "en" {
		t.Errorf("Expected default transcript language 'en', got %q", cfg.TranscriptLanguage)
	}
	if cfg.AuthMode != AuthModeNone {
		t.Errorf("Expected default auth mode 'none', got %q", cfg.AuthMode)
	}
}

// TestLoadConfigOptional_InvalidYAML tests loading when file exists but has invalid YAML
func TestLoadConfigOptional_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
port: 8080
llmProvider: "google"
  invalid indentation here
  more bad yaml
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	_, err := LoadConfigOptional(configPath)
	if err == nil {
		t.Fatal("Expected error when loading invalid YAML, got nil")
	}
}

// TestLoadConfigOptional_ValidConfig tests loading when file exists with valid config
func TestLoadConfigOptional_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "valid.yaml")

	validYAML := `
port: 8080
llmProvider: "openrouter"
openrouterApiKey: "sk-or-test"
openrouterModel: "openai/gpt-4o-mini"
transcriptLanguage: "pt"
logLevel: "debug"
env: "test"
`
	if err := os.WriteFile(configPath, []byte(validYAML), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	cfg, err := LoadConfigOptional(configPath)
	if err != nil {
		t.Fatalf("LoadConfigOptional with valid config should not error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected Port=8080, got %d", cfg.Port)
	}
	if cfg.LLMProvider != "openrouter" {
		t.Errorf("Expected LLMProvider='openrouter', got %q", cfg.LLMProvider)
	}
	if cfg.OpenRouterAPIKey != "sk-or-test" {
		t.Errorf("Expected OpenRouterAPIKey='sk-or-test', got %q", cfg.OpenRouterAPIKey)
	}
	if cfg.OpenRouterModel != "openai/gpt-4o-mini" {
		t.Errorf("Expected OpenRouterModel='openai/gpt-4o-mini', got %q", cfg.OpenRouterModel)
	}
	if cfg.TranscriptLanguage != "pt" {
		t.Errorf("Expected TranscriptLanguage='pt', got %q", cfg.TranscriptLanguage)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel='debug', got %q", cfg.LogLevel)
	}
	if cfg.Env != "test" {
		t.Errorf("Expected Env='test', got %q", cfg.Env)
	}
}

// TestLoadConfigOptional_EnvOverrides tests that environment variables override file values
func TestLoadConfigOptional_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configYAML := `
port: 8080
llmProvider: "google"
googleApiKey: "file-key"
geminiModel: "gemini-1.0-pro"
`
	if err := os.WriteFile(configPath, []byte(configYAML), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	t.Setenv("PORT", "9090")
	t.Setenv("LLM_PROVIDER", "openrouter")
	t.Setenv("OPENROUTER_API_KEY", "env-key")
	t.Setenv("GEMINI_MODEL", "gemini-1.5-flash")

	cfg, err := LoadConfigOptional(configPath)
	if err != nil {
		t.Fatalf("LoadConfigOptional should not error: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Expected Port=9090 from env, got %d", cfg.Port)
	}
	if cfg.LLMProvider != "openrouter" {
		t.Errorf("Expected LLMProvider='openrouter' from env, got %q", cfg.LLMProvider)
	}
	if cfg.OpenRouterAPIKey != "env-key" {
		t.Errorf("Expected OpenRouterAPIKey='env-key' from env, got %q", cfg.OpenRouterAPIKey)
	}
	if cfg.GeminiModel != "gemini-1.5-flash" {
		t.Errorf("Expected GeminiModel='gemini-1.5-flash' from env, got %q", cfg.GeminiModel)
	}
	if cfg.GoogleAPIKey != "file-key" {
		t.Errorf("Expected GoogleAPIKey='file-key' from file, got %q", cfg.GoogleAPIKey)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadConfigOptional("")
		if err != nil {
			t.Fatalf("LoadConfigOptional should not error: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "google provider without key",
			mutate:  func(c *Config) { c.LLMProvider = ProviderGoogle },
			wantErr: "GOOGLE_API_KEY is required",
		},
		{
			name: "openrouter provider without key",
			mutate: func(c *Config) {
				c.LLMProvider = ProviderOpenRouter
				c.OpenRouterAPIKey = ""
			},
			wantErr: "OPENROUTER_API_KEY is required",
		},
		{
			name: "unknown provider",
			mutate: func(c *Config) {
				c.LLMProvider = "anthropic"
			},
			wantErr: "unknown LLM_PROVIDER",
		},
		{
			name: "static auth without token",
			mutate: func(c *Config) {
				c.GoogleAPIKey = "key"
				c.AuthMode = AuthModeStatic
			},
			wantErr: "authToken is required",
		},
		{
			name: "jwt auth without secret",
			mutate: func(c *Config) {
				c.GoogleAPIKey = "key"
				c.AuthMode = AuthModeJWT
			},
			wantErr: "authJwtSecret is required",
		},
		{
			name: "bad sample ratio",
			mutate: func(c *Config) {
				c.GoogleAPIKey = "key"
				c.TraceSampleRatio = 2.5
			},
			wantErr: "traceSampleRatio",
		},
		{
			name: "valid google config",
			mutate: func(c *Config) {
				c.GoogleAPIKey = "key"
			},
		},
		{
			name: "valid openrouter config",
			mutate: func(c *Config) {
				c.LLMProvider = ProviderOpenRouter
				c.OpenRouterAPIKey = "sk-or"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

// TestValidate_CollectsAllErrors verifies every problem is reported at once
func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg, err := LoadConfigOptional("")
	if err != nil {
		t.Fatalf("LoadConfigOptional should not error: %v", err)
	}
	cfg.LLMProvider = "nope"
	cfg.AuthMode = "wat"
	cfg.Port = -1

	verr := cfg.Validate()
	if verr == nil {
		t.Fatal("Expected validation error, got nil")
	}
	for _, want := range []string{"unknown LLM_PROVIDER", "authMode", "port"} {
		if !strings.Contains(verr.Error(), want) {
			t.Errorf("Expected error to mention %q, got %v", want, verr)
		}
	}
}
