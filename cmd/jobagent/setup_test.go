package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobagent", "config.toml")
	configPath = path
	setupForce = false
	t.Cleanup(func() { configPath = "" })

	var out bytes.Buffer
	setupCmd.SetOut(&out)
	if err := setupCmd.RunE(setupCmd, nil); err != nil {
		t.Fatalf("setup: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "gpt-4o-mini") || !strings.Contains(string(raw), "linkedin_scraper") {
		t.Errorf("unexpected config:\n%s", raw)
	}

	if err := setupCmd.RunE(setupCmd, nil); err == nil {
		t.Fatal("second setup without --force succeeded")
	}
	setupForce = true
	t.Cleanup(func() { setupForce = false })
	if err := setupCmd.RunE(setupCmd, nil); err != nil {
		t.Fatalf("setup --force: %v", err)
	}
}
