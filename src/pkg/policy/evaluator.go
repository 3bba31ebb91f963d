// Package policy evaluates optional custom rego policies against the
// merged contract and the observed repository state. Policies are a
// supplement to the built-in rule families and are skipped entirely
// when no policies directory exists.
package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/open-policy-agent/opa/rego"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/gh-nvat/repo-contractchk/src/pkg/models"
)

var logger *log.Entry = log.New().WithFields(log.Fields{
	"package": "policy",
})

// ManifestFilename names the file that declares the policy set inside a
// policies directory.
const ManifestFilename = "policies.yaml"

// denyQuery is the rego document every policy module must populate.
// Each policy file declares `package contract.policy` and contributes
// deny[msg] rules.
const denyQuery = "data.contract.policy.deny"

// Policy is one manifest entry.
type Policy struct {
	ID       string          `yaml:"id"`
	Name     string          `yaml:"name"`
	File     string          `yaml:"file"`
	Severity models.Severity `yaml:"severity,omitempty"`
}

// Manifest declares the policy set of a policies directory.
type Manifest struct {
	Policies []Policy `yaml:"policies"`
}

// Input is the document policies evaluate against. Branch protection is
// present only when the branch_protection rule ran.
type Input struct {
	Contract *models.Contract `json:"contract"`
	Files    []string         `json:"files,omitempty"`
	Branches []BranchInput    `json:"branches,omitempty"`
}

// BranchInput is one branch's observed protection. Protected is false
// when the branch carries no protection at all.
type BranchInput struct {
	Name      string `json:"name"`
	Protected bool   `json:"protected"`

	ReviewsEnabled               bool     `json:"reviews_enabled"`
	RequiredApprovingReviewCount int      `json:"required_approving_review_count"`
	ChecksEnabled                bool     `json:"checks_enabled"`
	Checks                       []string `json:"checks"`
	EnforceAdmins                bool     `json:"enforce_admins"`
}

// Evaluator runs the declared policies in-process.
type Evaluator struct {
	dir      string
	policies []Policy
}

// NewEvaluator loads the manifest under dir. It returns (nil, nil) when
// dir does not exist, which callers treat as "no policy rule family".
func NewEvaluator(dir string) (*Evaluator, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.WithField("dir", dir).Debug("No policies directory, skipping policy rule")
		return nil, nil
	}

	manifestPath := filepath.Join(dir, ManifestFilename)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy manifest %s: %w", manifestPath, err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse policy manifest %s: %w", manifestPath, err)
	}

	for i, policy := range manifest.Policies {
		if policy.ID == "" || policy.File == "" {
			return nil, fmt.Errorf("policy manifest %s: entry %d needs both id and file", manifestPath, i)
		}
		if !strings.HasSuffix(policy.File, ".rego") {
			return nil, fmt.Errorf("policy %s: unsupported file extension (must be .rego)", policy.ID)
		}
		if _, err := os.Stat(filepath.Join(dir, policy.File)); err != nil {
			return nil, fmt.Errorf("policy %s: file not found: %s", policy.ID, policy.File)
		}
	}

	return &Evaluator{dir: dir, policies: manifest.Policies}, nil
}

// Evaluate runs every policy against input and returns one CheckResult
// per policy, in manifest order.
func (e *Evaluator) Evaluate(ctx context.Context, input Input) ([]models.CheckResult, error) {
	document, err := toDocument(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode policy input: %w", err)
	}

	results := make([]models.CheckResult, 0, len(e.policies))
	for _, policy := range e.policies {
		denials, err := e.evaluateOne(ctx, policy, document)
		if err != nil {
			return nil, models.NewExecutionError(models.RulePolicy,
				fmt.Sprintf("policy %s failed to evaluate", policy.ID), err)
		}
		results = append(results, policyResult(policy, denials))
	}
	return results, nil
}

func (e *Evaluator) evaluateOne(ctx context.Context, policy Policy, document any) ([]string, error) {
	source, err := os.ReadFile(filepath.Join(e.dir, policy.File))
	if err != nil {
		return nil, err
	}

	query, err := rego.New(
		rego.Query(denyQuery),
		rego.Module(policy.File, string(source)),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}

	resultSet, err := query.Eval(ctx, rego.EvalInput(document))
	if err != nil {
		return nil, err
	}

	var denials []string
	for _, result := range resultSet {
		for _, expression := range result.Expressions {
			values, ok := expression.Value.([]any)
			if !ok {
				continue
			}
			for _, value := range values {
				if message, ok := value.(string); ok {
					denials = append(denials, message)
				}
			}
		}
	}
	return denials, nil
}

func policyResult(policy Policy, denials []string) models.CheckResult {
	result := models.CheckResult{
		Rule:     models.RulePolicy,
		Target:   policy.ID,
		Path:     models.RulePolicy,
		Expected: models.SequenceValue(nil),
		Actual:   models.SequenceValue(denials),
		Passed:   len(denials) == 0,
		Severity: policy.Severity.Normalize(),
	}
	if len(denials) > 0 {
		result.Code = models.CodePolicyFailed
		result.Message = fmt.Sprintf("%s: %s", policy.Name, strings.Join(denials, "; "))
	}
	return result
}

// toDocument round-trips the input through JSON so OPA sees plain maps
// and slices.
func toDocument(input Input) (any, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	var document any
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, err
	}
	return document, nil
}

// InputFromState builds the policy input document from the merged
// contract and whatever state the enabled rules fetched.
func InputFromState(doc *models.Contract, files []string, branches []BranchInput) Input {
	return Input{Contract: doc, Files: files, Branches: branches}
}
