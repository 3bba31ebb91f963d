// Package reconcile evaluates a merged contract against actual repository
// state. It owns the per-field comparison logic; the diff engine reuses
// the same evaluation to emit structural diffs.
package reconcile

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/gh-nvat/repo-contractchk/src/pkg/models"
	"github.com/gh-nvat/repo-contractchk/src/pkg/pathmatch"
	"github.com/gh-nvat/repo-contractchk/src/pkg/state"
)

var logger *log.Entry = log.New().WithFields(log.Fields{
	"package": "reconcile",
})

// Options selects which rule families run and how actual state is
// fetched.
type Options struct {
	// Rules filters the rule families to evaluate. Empty means all.
	// Entries that name no known rule are ignored.
	Rules []string
	// RemoteForced is set when the caller explicitly requested remote
	// checking; required_files cannot be checked remotely and fails fast
	// instead of reporting false negatives.
	RemoteForced bool
	Concurrency  int
}

// RuleEnabled reports whether the filter keeps the given rule family.
func (o Options) RuleEnabled(rule string) bool {
	if len(o.Rules) == 0 {
		return true
	}
	for _, entry := range o.Rules {
		if strings.TrimSpace(entry) == rule {
			return true
		}
	}
	return false
}

// FileCheck is the outcome of one required_files entry.
type FileCheck struct {
	Spec   models.RequiredFile
	Label  string
	Exists bool
}

// Detail is one field-level branch protection comparison. Missing and
// Extra are only set for the checks-list comparison.
type Detail struct {
	Path     string
	Code     string
	Expected models.Value
	Actual   models.Value
	Missing  []string
	Extra    []string
	Passed   bool
	Severity models.Severity
	Message  string
}

// BranchEvaluation is the full comparison for one branch.
type BranchEvaluation struct {
	Branch  string
	Details []Detail
}

// FetchState gathers the actual-state snapshot the enabled rules need.
// Collaborator failures come back as *models.ExecutionError so callers
// can separate "could not check" from "contract violated".
func FetchState(ctx context.Context, doc *models.Contract, fs state.FileLister, repo state.RemoteRepository, opts Options) (*state.Snapshot, error) {
	snapshot := &state.Snapshot{}

	if opts.RuleEnabled(models.RuleRequiredFiles) && len(doc.RequiredFiles) > 0 {
		if opts.RemoteForced {
			return nil, models.NewExecutionError(models.RuleRequiredFiles, "remote mode",
				&models.UnsupportedOperationError{
					Rule:   models.RuleRequiredFiles,
					Reason: "required_files can only be checked against a local working tree",
				})
		}
		if fs == nil {
			return nil, models.NewExecutionError(models.RuleRequiredFiles, "no file lister configured", nil)
		}
		files, err := state.FetchFiles(fs)
		if err != nil {
			return nil, models.NewExecutionError(models.RuleRequiredFiles, "failed to list repository files", err)
		}
		snapshot.Files = files
	}

	if opts.RuleEnabled(models.RuleBranchProtection) && doc.BranchProtection != nil {
		if repo == nil {
			return nil, models.NewExecutionError(models.RuleBranchProtection,
				"no remote repository collaborator available (is a GitHub token configured?)", nil)
		}
		branches, err := state.FetchBranches(ctx, repo, doc.BranchProtection.TargetBranches(), opts.Concurrency)
		if err != nil {
			return nil, models.NewExecutionError(models.RuleBranchProtection, "failed to fetch branch protection", err)
		}
		snapshot.Branches = branches
	}

	return snapshot, nil
}

// Reconcile evaluates every enabled rule family and returns results in
// rule-declaration order, then document-declaration order within a rule.
func Reconcile(ctx context.Context, doc *models.Contract, fs state.FileLister, repo state.RemoteRepository, opts Options) ([]models.CheckResult, error) {
	snapshot, err := FetchState(ctx, doc, fs, repo, opts)
	if err != nil {
		return nil, err
	}
	return ResultsFromSnapshot(doc, snapshot)
}

// ResultsFromSnapshot evaluates the contract against an already-fetched
// snapshot. Callers that also feed the snapshot elsewhere, such as the
// policy evaluator, use this to fetch state exactly once.
func ResultsFromSnapshot(doc *models.Contract, snapshot *state.Snapshot) ([]models.CheckResult, error) {
	var results []models.CheckResult

	if snapshot.Files != nil {
		checks, err := EvaluateRequiredFiles(doc.RequiredFiles, snapshot.Files)
		if err != nil {
			return nil, err
		}
		for _, check := range checks {
			results = append(results, fileCheckResult(check))
		}
	}

	for _, branch := range snapshot.Branches {
		evaluation := EvaluateBranch(doc.BranchProtection.Rules, branch)
		for _, detail := range evaluation.Details {
			results = append(results, detailToCheckResult(evaluation.Branch, detail))
		}
	}

	logger.WithField("results", len(results)).Debug("Reconciled contract")
	return results, nil
}

// EvaluateRequiredFiles resolves each entry against the file set. The
// matcher for an entry is compiled once, not per candidate path.
func EvaluateRequiredFiles(specs []models.RequiredFile, files *pathmatch.FileSet) ([]FileCheck, error) {
	checks := make([]FileCheck, 0, len(specs))
	for _, spec := range specs {
		matcher, err := pathmatch.NewFileMatcher(spec)
		if err != nil {
			return nil, models.NewExecutionError(models.RuleRequiredFiles, "invalid required_files entry", err)
		}
		checks = append(checks, FileCheck{
			Spec:   spec,
			Label:  spec.Label(),
			Exists: matcher.Matches(files),
		})
	}
	return checks, nil
}

func fileCheckResult(check FileCheck) models.CheckResult {
	message := "Found"
	if !check.Exists {
		message = fmt.Sprintf("Not found (%s)", check.Spec.Severity.Normalize())
	}
	return models.CheckResult{
		Rule:     models.RuleRequiredFiles,
		Target:   check.Label,
		Path:     models.RuleRequiredFiles,
		Expected: models.BoolValue(true),
		Actual:   models.BoolValue(check.Exists),
		Passed:   check.Exists,
		Severity: check.Spec.Severity.Normalize(),
		Message:  message,
	}
}

// EvaluateBranch compares the declared rules, defaults applied, against
// one branch's actual protection.
func EvaluateBranch(declared models.BranchProtectionRules, branch state.BranchState) BranchEvaluation {
	if branch.Protection == nil {
		return BranchEvaluation{
			Branch: branch.Name,
			Details: []Detail{{
				Path:     "branch_protection",
				Code:     models.CodeProtectionMissing,
				Expected: models.BoolValue(true),
				Actual:   models.BoolValue(false),
				Passed:   false,
				Severity: models.SeverityError,
				Message:  "Branch protection is not enabled",
			}},
		}
	}

	expected := declared.Resolve()
	actual := *branch.Protection
	var details []Detail

	enabledSeverity := models.SeverityWarning
	if expected.ReviewsEnabled && !actual.ReviewsEnabled {
		enabledSeverity = models.SeverityError
	}
	details = append(details, boolDetail(
		"required_pull_request_reviews.enabled",
		expected.ReviewsEnabled, actual.ReviewsEnabled, enabledSeverity))

	if expected.ReviewsEnabled {
		countPassed := actual.RequiredApprovingReviewCount >= expected.RequiredApprovingReviewCount
		countDetail := Detail{
			Path:     "required_pull_request_reviews.required_approving_review_count",
			Expected: models.IntValue(expected.RequiredApprovingReviewCount),
			Actual:   models.IntValue(actual.RequiredApprovingReviewCount),
			Passed:   countPassed,
			Severity: models.SeverityError,
		}
		if !countPassed {
			countDetail.Code = models.CodeReviewCountTooLow
			countDetail.Message = fmt.Sprintf("required_approving_review_count: expected at least %d, got %d",
				expected.RequiredApprovingReviewCount, actual.RequiredApprovingReviewCount)
		}
		details = append(details, countDetail)

		details = append(details, boolDetail(
			"required_pull_request_reviews.dismiss_stale_reviews",
			expected.DismissStaleReviews, actual.DismissStaleReviews, models.SeverityWarning))
		details = append(details, boolDetail(
			"required_pull_request_reviews.require_code_owner_reviews",
			expected.RequireCodeOwnerReviews, actual.RequireCodeOwnerReviews, models.SeverityWarning))
		details = append(details, boolDetail(
			"required_pull_request_reviews.require_last_push_approval",
			expected.RequireLastPushApproval, actual.RequireLastPushApproval, models.SeverityWarning))
	}

	checksSeverity := models.SeverityWarning
	if expected.ChecksEnabled && !actual.ChecksEnabled {
		checksSeverity = models.SeverityError
	}
	details = append(details, boolDetail(
		"required_status_checks.enabled",
		expected.ChecksEnabled, actual.ChecksEnabled, checksSeverity))

	if expected.ChecksEnabled {
		details = append(details, boolDetail(
			"required_status_checks.strict",
			expected.ChecksStrict, actual.ChecksStrict, models.SeverityWarning))
		if len(expected.Checks) > 0 {
			details = append(details, checksDetail(expected, actual))
		}
	}

	details = append(details, boolDetail("enforce_admins",
		expected.EnforceAdmins, actual.EnforceAdmins, models.SeverityWarning))
	details = append(details, boolDetail("required_linear_history",
		expected.RequiredLinearHistory, actual.RequiredLinearHistory, models.SeverityWarning))
	details = append(details, boolDetail("allow_force_pushes",
		expected.AllowForcePushes, actual.AllowForcePushes, models.SeverityWarning))
	details = append(details, boolDetail("allow_deletions",
		expected.AllowDeletions, actual.AllowDeletions, models.SeverityWarning))
	details = append(details, boolDetail("required_conversation_resolution",
		expected.RequiredConversationResolution, actual.RequiredConversationResolution, models.SeverityWarning))
	details = append(details, boolDetail("required_signatures",
		expected.RequiredSignatures, actual.RequiredSignatures, models.SeverityWarning))

	return BranchEvaluation{Branch: branch.Name, Details: details}
}

func boolDetail(path string, expected, actual bool, severity models.Severity) Detail {
	detail := Detail{
		Path:     path,
		Expected: models.BoolValue(expected),
		Actual:   models.BoolValue(actual),
		Passed:   expected == actual,
		Severity: severity,
	}
	if !detail.Passed {
		detail.Message = fmt.Sprintf("%s: expected %t, got %t", path, expected, actual)
	}
	return detail
}

// checksDetail computes the order-preserving set difference between the
// declared and actual status check lists.
func checksDetail(expected, actual models.ResolvedRules) Detail {
	missing := missingChecks(expected.Checks, actual.Checks)
	extra := extraChecks(expected.Checks, actual.Checks)
	passed := len(missing) == 0 && len(extra) == 0

	detail := Detail{
		Path:     "required_status_checks.checks",
		Expected: models.SequenceValue(expected.CheckContexts()),
		Actual:   models.SequenceValue(actual.CheckContexts()),
		Missing:  missing,
		Extra:    extra,
		Passed:   passed,
		Severity: models.SeverityWarning,
	}
	if len(missing) > 0 {
		detail.Severity = models.SeverityError
		detail.Code = models.CodeMissingStatusCheck
	}

	switch {
	case passed:
	case len(missing) > 0 && len(extra) > 0:
		detail.Message = fmt.Sprintf("Missing required status check: %s (extra: %s)",
			strings.Join(missing, ", "), strings.Join(extra, ", "))
	case len(missing) > 0:
		detail.Message = fmt.Sprintf("Missing required status check: %s", strings.Join(missing, ", "))
	default:
		detail.Message = fmt.Sprintf("Unexpected status checks: %s", strings.Join(extra, ", "))
	}
	return detail
}

// missingChecks returns expected − actual. A declared app_id must match
// the actual check's app_id; a declared check without one matches any.
func missingChecks(expected, actual []models.StatusCheck) []string {
	missing := []string{}
	for _, check := range expected {
		if !hasCheck(check, actual) {
			missing = append(missing, check.Context)
		}
	}
	return missing
}

// extraChecks returns actual − expected by context.
func extraChecks(expected, actual []models.StatusCheck) []string {
	declared := make(map[string]struct{}, len(expected))
	for _, check := range expected {
		declared[check.Context] = struct{}{}
	}
	extra := []string{}
	for _, check := range actual {
		if _, ok := declared[check.Context]; !ok {
			extra = append(extra, check.Context)
		}
	}
	return extra
}

func hasCheck(expected models.StatusCheck, actual []models.StatusCheck) bool {
	for _, check := range actual {
		if check.Context != expected.Context {
			continue
		}
		if expected.AppID == nil {
			return true
		}
		if check.AppID != nil && *check.AppID == *expected.AppID {
			return true
		}
	}
	return false
}

func detailToCheckResult(branch string, detail Detail) models.CheckResult {
	return models.CheckResult{
		Rule:     models.RuleBranchProtection,
		Target:   branch,
		Path:     detail.Path,
		Code:     detail.Code,
		Expected: detail.Expected,
		Actual:   detail.Actual,
		Passed:   detail.Passed,
		Severity: detail.Severity,
		Message:  detail.Message,
	}
}
