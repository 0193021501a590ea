package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetup(t *testing.T) {
	saved := log.Logger
	savedLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = saved
		zerolog.SetGlobalLevel(savedLevel)
	})

	tests := []struct {
		name    string
		config  LogConfig
		wantErr bool
	}{
		{"Default", DefaultConfig(), false},
		{"JSON to stdout", LogConfig{Level: "debug", Format: "json", Output: "stdout"}, false},
		{"Unknown format", LogConfig{Level: "warn", Format: "xml", Output: "stderr"}, false},
		{"Bad level", LogConfig{Level: "loud", Format: "json", Output: "stderr"}, true},
		{"Unwritable file", LogConfig{Level: "info", Output: filepath.Join(t.TempDir(), "missing", "log.txt")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Setup(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("Setup() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetupFileOutput(t *testing.T) {
	saved := log.Logger
	t.Cleanup(func() { log.Logger = saved })

	path := filepath.Join(t.TempDir(), "recipes.log")
	if err := Setup(LogConfig{Level: "info", Format: "json", Output: path}); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	l := WithComponent("batch")
	l.Info().Msg("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"component":"batch"`) {
		t.Errorf("log file: %s", data)
	}
}

func TestFieldHelpers(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	l := WithInvoice(WithRunID(base, "run-1"), "2024-0042", "in/a.json")
	l.Warn().Msg("check")

	out := buf.String()
	for _, want := range []string{`"run_id":"run-1"`, `"invoice_id":"2024-0042"`, `"file":"in/a.json"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}
