package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gh-nvat/repo-contractchk/src/pkg/models"
)

func writeContract(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contract.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write contract: %v", err)
	}
	return path
}

func TestValidateFileValidDocument(t *testing.T) {
	path := writeContract(t, `
version: "1.0"
profile: go
branch_protection:
  branches: ["main", "release/*"]
  rules:
    required_pull_request_reviews:
      required_approving_review_count: 2
    required_status_checks:
      checks:
        - ci
        - context: lint
          app_id: 123
required_files:
  - path: README.md
  - pattern: 'docs/.*\.md'
    severity: info
`)

	report, err := ValidateFile(path)
	if err != nil {
		t.Fatalf("ValidateFile() error = %v", err)
	}
	if !report.Valid {
		t.Errorf("Valid = false, errors = %v", report.Errors)
	}
}

func TestValidateFileViolations(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantPath string
	}{
		{
			name:     "missing version",
			content:  "required_files:\n  - path: README.md\n",
			wantPath: "",
		},
		{
			name:     "version not major.minor",
			content:  "version: \"1\"\n",
			wantPath: "version",
		},
		{
			name:     "unknown severity",
			content:  "version: \"1.0\"\nrequired_files:\n  - path: README.md\n    severity: fatal\n",
			wantPath: "required_files[0].severity",
		},
		{
			name:     "review count above range",
			content:  "version: \"1.0\"\nbranch_protection:\n  rules:\n    required_pull_request_reviews:\n      required_approving_review_count: 7\n",
			wantPath: "branch_protection.rules.required_pull_request_reviews.required_approving_review_count",
		},
		{
			name:     "entry with neither path nor pattern",
			content:  "version: \"1.0\"\nrequired_files:\n  - severity: error\n",
			wantPath: "required_files[0]",
		},
		{
			name:     "unknown top-level field",
			content:  "version: \"1.0\"\nbranches: [main]\n",
			wantPath: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeContract(t, tt.content)
			report, err := ValidateFile(path)
			if err != nil {
				t.Fatalf("ValidateFile() error = %v", err)
			}
			if report.Valid {
				t.Fatalf("Valid = true, want violation")
			}
			found := false
			for _, schemaErr := range report.Errors {
				if schemaErr.Code != models.CodeSchemaViolation {
					t.Errorf("Code = %q, want %q", schemaErr.Code, models.CodeSchemaViolation)
				}
				if schemaErr.Path == tt.wantPath || strings.HasPrefix(schemaErr.Path, tt.wantPath) {
					found = true
				}
			}
			if !found {
				t.Errorf("no error at path %q, got %v", tt.wantPath, report.Errors)
			}
		})
	}
}

func TestValidateFileReportsPositions(t *testing.T) {
	path := writeContract(t, "version: \"1.0\"\nrequired_files:\n  - path: README.md\n    severity: fatal\n")

	report, err := ValidateFile(path)
	if err != nil {
		t.Fatalf("ValidateFile() error = %v", err)
	}
	if report.Valid {
		t.Fatalf("Valid = true, want violation")
	}
	var located bool
	for _, schemaErr := range report.Errors {
		if schemaErr.Line == 4 {
			located = true
		}
	}
	if !located {
		t.Errorf("no error carried line 4, got %v", report.Errors)
	}
}

func TestValidateDocument(t *testing.T) {
	count := 3
	doc := &models.Contract{
		Version: "1.0",
		BranchProtection: &models.BranchProtection{
			Rules: models.BranchProtectionRules{
				RequiredPullRequestReviews: &models.RequiredPullRequestReviews{
					RequiredApprovingReviewCount: &count,
				},
			},
		},
		RequiredFiles: []models.RequiredFile{{Path: "README.md"}},
	}
	if errs := ValidateDocument(doc); len(errs) != 0 {
		t.Errorf("ValidateDocument() = %v, want no errors", errs)
	}

	bad := 9
	doc.BranchProtection.Rules.RequiredPullRequestReviews.RequiredApprovingReviewCount = &bad
	if errs := ValidateDocument(doc); len(errs) == 0 {
		t.Errorf("ValidateDocument() = nil, want range violation")
	}
}

func TestJSONIsEmbedded(t *testing.T) {
	if !strings.Contains(JSON(), "\"required\": [\"version\"]") {
		t.Errorf("JSON() does not contain the version requirement")
	}
}
