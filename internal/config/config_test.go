package config

import (
	"errors"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.BatchWorkers != 4 {
		t.Errorf("BatchWorkers: got %d, want 4", cfg.BatchWorkers)
	}
	if cfg.OutputDir != "" {
		t.Errorf("OutputDir: got %q, want empty (next to the invoice)", cfg.OutputDir)
	}
	if cfg.GoogleCloudLocation != "eu" {
		t.Errorf("GoogleCloudLocation: got %q", cfg.GoogleCloudLocation)
	}
	if got := cfg.GetLoggerConfig(); got.Level != "info" || got.Output != "stderr" {
		t.Errorf("logger config: %+v", got)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BATCH_WORKERS", "8")
	t.Setenv("RECIPES_OUTPUT_DIR", "/tmp/recipes")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BatchWorkers != 8 || cfg.OutputDir != "/tmp/recipes" || cfg.LogFormat != "json" {
		t.Errorf("got %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"Zero workers", "BATCH_WORKERS", "0"},
		{"Not a number", "BATCH_WORKERS", "many"},
		{"Unknown log format", "LOG_FORMAT", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestRequireChecks(t *testing.T) {
	cfg := &Config{}
	if err := cfg.RequireSheets(); !errors.Is(err, ErrSheetsNotConfigured) {
		t.Errorf("RequireSheets: got %v", err)
	}
	cfg.GoogleSheetURL = "https://docs.google.com/spreadsheets/d/abc/edit"
	if err := cfg.RequireSheets(); !errors.Is(err, ErrCredentialsMissing) {
		t.Errorf("RequireSheets without credentials: got %v", err)
	}
	cfg.CredentialsJSON = "{}"
	if err := cfg.RequireSheets(); err != nil {
		t.Errorf("RequireSheets: %v", err)
	}

	if err := cfg.RequireDocumentAI(); !errors.Is(err, ErrDocumentAINotConfigured) {
		t.Errorf("RequireDocumentAI: got %v", err)
	}
	cfg.GoogleCloudProject, cfg.DocumentAIProcessorID = "proj", "proc"
	if err := cfg.RequireDocumentAI(); err != nil {
		t.Errorf("RequireDocumentAI: %v", err)
	}
}
