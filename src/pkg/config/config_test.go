package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadMissingFileIsZeroConfig(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, &Config{}) {
		t.Errorf("Load() = %+v, want zero config", cfg)
	}
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	content := `
default:
  config: contracts/contract.yml
  format: json
  strict: true
check:
  rules: [required_files]
  policies_dir: policies
github:
  token: t0ken
  repo: org/repo
`
	if err := os.WriteFile(filepath.Join(root, Filename), []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Default.Config != "contracts/contract.yml" || cfg.Default.Format != "json" || !cfg.Default.Strict {
		t.Errorf("Default = %+v", cfg.Default)
	}
	if !reflect.DeepEqual(cfg.Check.Rules, []string{"required_files"}) || cfg.Check.PoliciesDir != "policies" {
		t.Errorf("Check = %+v", cfg.Check)
	}
	if cfg.GitHub.Token != "t0ken" || cfg.GitHub.Repo != "org/repo" {
		t.Errorf("GitHub = %+v", cfg.GitHub)
	}
}

func TestLoadMalformed(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, Filename), []byte("default: ["), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(root); err == nil {
		t.Errorf("Load() error = nil, want parse failure")
	}
}
