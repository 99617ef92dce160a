package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/fluxyoga/batchcaption/pkg/config"
)

func newFlagCmd(flags *runFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "test", Run: func(cmd *cobra.Command, args []string) {}}
	flags.register(cmd)
	return cmd
}

func TestRunFlagsApply(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, cfg *config.Config)
		wantErr bool
	}{
		{
			name: "no flags keeps config values",
			args: []string{},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Model != "blip2" {
					t.Errorf("expected model blip2, got %s", cfg.Model)
				}
				if cfg.MaxTokens != 99 {
					t.Errorf("expected max_tokens 99, got %d", cfg.MaxTokens)
				}
			},
		},
		{
			name: "flags override config values",
			args: []string{"--model", "florence-2", "--max_tokens", "200", "--overwrite"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Model != "florence-2" {
					t.Errorf("expected model florence-2, got %s", cfg.Model)
				}
				if cfg.MaxTokens != 200 {
					t.Errorf("expected max_tokens 200, got %d", cfg.MaxTokens)
				}
				if !cfg.Overwrite {
					t.Error("expected overwrite to be set")
				}
			},
		},
		{
			name: "template flag carries placeholder through",
			args: []string{"--template", "photo of {caption}"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Template != "photo of {caption}" {
					t.Errorf("unexpected template %q", cfg.Template)
				}
			},
		},
		{
			name:    "unknown model is rejected",
			args:    []string{"--model", "dall-e"},
			wantErr: true,
		},
		{
			name:    "unknown style is rejected",
			args:    []string{"--style", "noir"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flags runFlags
			cmd := newFlagCmd(&flags)
			cmd.SetArgs(tt.args)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("flag parsing failed: %v", err)
			}

			cfg := config.Default()
			cfg.Model = "blip2"
			cfg.MaxTokens = 99

			err := flags.apply(cmd, cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("apply failed: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestRunInit(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(oldWd)

	if err := runInit(false); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, config.DefaultConfigName)); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	// A second init must refuse unless forced.
	if err := runInit(false); err == nil {
		t.Error("expected an error when config already exists")
	}
	if err := runInit(true); err != nil {
		t.Errorf("forced init failed: %v", err)
	}
}
