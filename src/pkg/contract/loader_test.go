package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gh-nvat/repo-contractchk/src/pkg/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoadWithoutProfile(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "contract.yml")
	writeFile(t, base, `
version: "1.0"
required_files:
  - path: README.md
`)

	loaded, err := Load(LoadOptions{ConfigPath: base, IncludeProfile: true})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Contract.Version != "1.0" {
		t.Errorf("Version = %q, want 1.0", loaded.Contract.Version)
	}
	if len(loaded.Advisories) != 0 {
		t.Errorf("Advisories = %v, want none", loaded.Advisories)
	}
}

func TestLoadMergesDeclaredProfile(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "contract.yml")
	writeFile(t, base, `
version: "1.0"
profile: go
required_files:
  - path: README.md
`)
	writeFile(t, filepath.Join(dir, "contract.go.yml"), `
version: "1.0"
language: go
required_files:
  - path: go.mod
`)

	loaded, err := Load(LoadOptions{ConfigPath: base, IncludeProfile: true})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded.Contract.RequiredFiles) != 2 {
		t.Fatalf("RequiredFiles = %v, want base + profile entries", loaded.Contract.RequiredFiles)
	}
	if loaded.Contract.RequiredFiles[1].Path != "go.mod" {
		t.Errorf("RequiredFiles[1].Path = %q, want go.mod", loaded.Contract.RequiredFiles[1].Path)
	}
	if loaded.ProfilePath == "" {
		t.Errorf("ProfilePath empty, want resolved profile file")
	}
}

func TestLoadMissingProfileDegradesToAdvisory(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "contract.yml")
	writeFile(t, base, `
version: "1.0"
profile: go
required_files:
  - path: README.md
`)

	loaded, err := Load(LoadOptions{ConfigPath: base, IncludeProfile: true})
	if err != nil {
		t.Fatalf("Load() error = %v, want degraded load", err)
	}
	if len(loaded.Contract.RequiredFiles) != 1 {
		t.Errorf("RequiredFiles = %v, want base entries only", loaded.Contract.RequiredFiles)
	}
	if len(loaded.Advisories) != 1 || loaded.Advisories[0].Code != models.CodeProfileNotFound {
		t.Errorf("Advisories = %v, want one %s advisory", loaded.Advisories, models.CodeProfileNotFound)
	}
}

func TestLoadMissingProfileFatalWhenRequired(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "contract.yml")
	writeFile(t, base, `
version: "1.0"
profile: go
`)

	if _, err := Load(LoadOptions{ConfigPath: base, IncludeProfile: true, RequireProfile: true}); err == nil {
		t.Errorf("Load() error = nil, want missing-profile failure")
	}
}

func TestProfilePathFor(t *testing.T) {
	got := ProfilePathFor(filepath.Join("some", "dir", "contract.yml"), "go")
	want := filepath.Join("some", "dir", "contract.go.yml")
	if got != want {
		t.Errorf("ProfilePathFor() = %q, want %q", got, want)
	}
}

func TestInitScaffoldsContract(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "contract.yml")

	outcome, err := Init(dir, InitOptions{OutputPath: out, Profile: "go"})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if len(outcome.Created) != 2 {
		t.Fatalf("Created = %v, want contract plus profile", outcome.Created)
	}

	loaded, err := Load(LoadOptions{ConfigPath: out, IncludeProfile: true})
	if err != nil {
		t.Fatalf("Load() of scaffolded contract error = %v", err)
	}
	if loaded.Contract.Version != "1.0" {
		t.Errorf("Version = %q, want 1.0", loaded.Contract.Version)
	}

	if _, err := Init(dir, InitOptions{OutputPath: out}); err == nil {
		t.Errorf("Init() over existing file error = nil, want AlreadyExistsError")
	}
}
