package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/fluxyoga/batchcaption/pkg/config"
	"github.com/fluxyoga/batchcaption/pkg/types"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	if cfg.Model != string(types.BackendFlorence) {
		t.Errorf("default model = %q, want florence-2", cfg.Model)
	}
	if cfg.Style != string(types.StyleDetailed) {
		t.Errorf("default style = %q, want detailed", cfg.Style)
	}
	if cfg.MaxTokens != 150 {
		t.Errorf("default max_tokens = %d, want 150", cfg.MaxTokens)
	}
	if cfg.Timeout() != 120*time.Second {
		t.Errorf("default timeout = %s, want 120s", cfg.Timeout())
	}
	if cfg.CaptionExt != ".txt" {
		t.Errorf("default caption_ext = %q, want .txt", cfg.CaptionExt)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{"defaults pass", func(c *config.Config) {}, false},
		{"unknown model", func(c *config.Config) { c.Model = "dall-e" }, true},
		{"unknown style", func(c *config.Config) { c.Style = "verbose" }, true},
		{"caption ext without dot", func(c *config.Config) { c.CaptionExt = "txt" }, true},
		{"negative settling delay", func(c *config.Config) { c.Watch.SettlingDelayMS = -1 }, true},
		{"empty fields get defaults", func(c *config.Config) {
			c.Model = ""
			c.Style = ""
			c.Python = ""
			c.MaxTokens = 0
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_FillsDefaults(t *testing.T) {
	cfg := &config.Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() on zero config: %v", err)
	}
	if cfg.Model != string(types.DefaultBackend) {
		t.Errorf("model = %q, want default backend", cfg.Model)
	}
	if cfg.TimeoutSeconds != 120 {
		t.Errorf("timeout_seconds = %d, want 120", cfg.TimeoutSeconds)
	}
	if cfg.Watch.SettlingDelayMS != 500 {
		t.Errorf("settling_delay_ms = %d, want 500", cfg.Watch.SettlingDelayMS)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batchcaption.yaml")
	content := []byte("model: blip2\nstyle: tags\nmax_tokens: 75\nscripts_dir: /opt/fluxyoga/scripts\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(v)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Model != "blip2" {
		t.Errorf("model = %q, want blip2", cfg.Model)
	}
	if cfg.Style != "tags" {
		t.Errorf("style = %q, want tags", cfg.Style)
	}
	if cfg.MaxTokens != 75 {
		t.Errorf("max_tokens = %d, want 75", cfg.MaxTokens)
	}
	if cfg.ScriptsDir != "/opt/fluxyoga/scripts" {
		t.Errorf("scripts_dir = %q", cfg.ScriptsDir)
	}
	// Unset values keep their defaults.
	if cfg.TimeoutSeconds != 120 {
		t.Errorf("timeout_seconds = %d, want 120", cfg.TimeoutSeconds)
	}
}

func TestLoad_RejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batchcaption.yaml")
	if err := os.WriteFile(path, []byte("model: not-a-model\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatal(err)
	}

	if _, err := config.Load(v); err == nil {
		t.Fatal("expected error for unknown model")
	}
}

func TestWriteDefault_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batchcaption.yaml")

	if err := config.WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error: %v", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("written config is not readable: %v", err)
	}

	cfg, err := config.Load(v)
	if err != nil {
		t.Fatalf("written config does not validate: %v", err)
	}
	if cfg.Model != string(types.DefaultBackend) {
		t.Errorf("roundtrip model = %q", cfg.Model)
	}
}

func TestWriteDefault_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batchcaption.yaml")
	if err := os.WriteFile(path, []byte("model: blip\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := config.WriteDefault(path); err == nil {
		t.Fatal("expected error when config file exists")
	}
}
