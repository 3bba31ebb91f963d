package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gh-nvat/repo-contractchk/src/pkg/models"
)

const protectionContract = `version: "1.0"
branch_protection:
  branches: ["main"]
  rules:
    enforce_admins: true
`

func writeContract(t *testing.T, root, doc string) string {
	t.Helper()
	path := filepath.Join(root, "contract.yml")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunnerGitHubWithoutTokenLeavesRemoteUnset(t *testing.T) {
	t.Setenv("GH_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "")

	root := t.TempDir()
	opts := &Options{
		RunMode:    RunModeGitHub,
		Root:       root,
		ConfigPath: writeContract(t, root, protectionContract),
	}

	r := NewRunnerGitHub(context.Background(), opts)
	if err := r.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if r.Remote != nil {
		t.Fatal("Remote = non-nil, want nil when no credential is available")
	}
}

func TestRunnerGitHubWithoutTokenCheckIsExecutionError(t *testing.T) {
	t.Setenv("GH_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "")

	root := t.TempDir()
	opts := &Options{
		RunMode:    RunModeGitHub,
		Root:       root,
		ConfigPath: writeContract(t, root, protectionContract),
	}

	r := NewRunnerGitHub(context.Background(), opts)
	if err := r.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	_, err := r.Check()
	var execErr *models.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("Check() error = %v, want *models.ExecutionError", err)
	}
	if execErr.Rule != models.RuleBranchProtection {
		t.Errorf("rule = %q, want %q", execErr.Rule, models.RuleBranchProtection)
	}
}

func TestOutputQuiet(t *testing.T) {
	var buf strings.Builder
	r := NewRunnerBase(context.Background(), &Options{
		Format: FormatJSON,
		Quiet:  true,
		Writer: &buf,
	})

	report := models.NewReport(nil, nil)
	if err := r.Output(report); err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("quiet output wrote %q, want nothing", buf.String())
	}

	r.Options.Quiet = false
	if err := r.Output(report); err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Error("non-quiet output wrote nothing")
	}
}
