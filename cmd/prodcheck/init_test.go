package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/prodcheck/internal/config"
)

// TestNewInitCmd tests the init command creation.
func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	if cmd.Use != "init" {
		t.Errorf("expected use 'init', got %q", cmd.Use)
	}

	flag := cmd.Flags().Lookup("output")
	if flag == nil {
		t.Fatal("expected output flag")
	}
	if flag.DefValue != config.DefaultConfigFile {
		t.Errorf("expected default %q, got %q", config.DefaultConfigFile, flag.DefValue)
	}

	if cmd.Flags().Lookup("force") == nil {
		t.Fatal("expected force flag")
	}
}

// TestRunInitCmd tests the init command execution.
func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates a loadable configuration file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", ".prodcheck")

		stdout, _, err := executeCmd(t, "init", "-o", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Created configuration file: "+path) {
			t.Errorf("unexpected output:\n%s", stdout)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected file to exist: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("expected permissions 0600, got %o", perm)
		}

		cf, err := config.LoadConfigFile(path)
		if err != nil {
			t.Fatalf("template does not load: %v", err)
		}
		cfg := config.NewConfig()
		cf.Apply(cfg)
		if err := cfg.Validate(); err != nil {
			t.Errorf("template is not valid: %v", err)
		}
		if err := cfg.ValidateMonitor(); err != nil {
			t.Errorf("template monitor settings are not valid: %v", err)
		}
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".prodcheck")
		if err := os.WriteFile(path, []byte("url: http://localhost/\n"), 0600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		if _, _, err := executeCmd(t, "init", "-o", path); err == nil {
			t.Error("expected error for existing file")
		}

		if _, _, err := executeCmd(t, "init", "-o", path, "-f"); err != nil {
			t.Errorf("unexpected error with force: %v", err)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if !strings.Contains(string(content), "monitor:") {
			t.Error("expected file to be overwritten with the template")
		}
	})
}
