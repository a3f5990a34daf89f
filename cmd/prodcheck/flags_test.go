package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/prodcheck/internal/config"
)

func TestApplyFlags(t *testing.T) {
	t.Parallel()

	t.Run("explicit flags override the configuration file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		cfgPath := filepath.Join(dir, ".prodcheck")
		content := "url: http://file.example/products\nconcurrency: 4\nheaders:\n  X-Team: catalog\n"
		writeFile(t, cfgPath, content)

		cmd := NewCheckCmd()
		if err := cmd.ParseFlags([]string{
			"--config", cfgPath,
			"--concurrency", "2",
			"-H", "X-Api-Key=secret",
			"--no-db",
			"--timeout", "5s",
		}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.URL != "http://file.example/products" {
			t.Errorf("expected URL from the file, got %q", cfg.URL)
		}
		if cfg.Concurrency != 2 {
			t.Errorf("expected concurrency 2 from the flag, got %d", cfg.Concurrency)
		}
		if cfg.Timeout != 5*time.Second {
			t.Errorf("expected timeout 5s, got %s", cfg.Timeout)
		}
		if cfg.Headers["X-Team"] != "catalog" || cfg.Headers["X-Api-Key"] != "secret" {
			t.Errorf("expected merged headers, got %v", cfg.Headers)
		}
		if cfg.SaveToDB {
			t.Error("expected --no-db to disable the database")
		}
		if cfg.ConfigFilePath != cfgPath {
			t.Errorf("expected config path %q, got %q", cfgPath, cfg.ConfigFilePath)
		}
	})

	t.Run("unset flags keep defaults", func(t *testing.T) {
		t.Parallel()

		cmd := NewMonitorCmd()
		if err := cmd.ParseFlags([]string{"--config", emptyConfig(t)}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.URL != config.DefaultURL {
			t.Errorf("expected default URL, got %q", cfg.URL)
		}
		if cfg.Schedule != config.DefaultSchedule {
			t.Errorf("expected default schedule, got %q", cfg.Schedule)
		}
		if cfg.KeepRuns != config.DefaultKeepRuns {
			t.Errorf("expected default keep, got %d", cfg.KeepRuns)
		}
		if !cfg.SaveToDB {
			t.Error("expected the database to be enabled by default")
		}
	})
}
