// Package diffengine turns the reconciler's field comparisons into
// structural diff entries. A repository is compliant exactly when its
// diff is empty; both views are computed from the same evaluation.
package diffengine

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/gh-nvat/repo-contractchk/src/pkg/models"
	"github.com/gh-nvat/repo-contractchk/src/pkg/reconcile"
	"github.com/gh-nvat/repo-contractchk/src/pkg/state"
)

var logger *log.Entry = log.New().WithFields(log.Fields{
	"package": "diffengine",
})

// Diff computes the structural differences between the contract and the
// actual repository state. Entries appear in the same order the
// reconciler emits its results.
func Diff(ctx context.Context, doc *models.Contract, fs state.FileLister, repo state.RemoteRepository, opts reconcile.Options) ([]models.DiffEntry, error) {
	snapshot, err := reconcile.FetchState(ctx, doc, fs, repo, opts)
	if err != nil {
		return nil, err
	}

	var diffs []models.DiffEntry

	if snapshot.Files != nil {
		checks, err := reconcile.EvaluateRequiredFiles(doc.RequiredFiles, snapshot.Files)
		if err != nil {
			return nil, err
		}
		for _, check := range checks {
			if check.Exists {
				continue
			}
			diffs = append(diffs, models.DiffEntry{
				Rule:     models.RuleRequiredFiles,
				Target:   check.Label,
				Path:     models.RuleRequiredFiles,
				Type:     models.DiffTypeMissingFile,
				Severity: check.Spec.Severity.Normalize(),
			})
		}
	}

	for _, branch := range snapshot.Branches {
		evaluation := reconcile.EvaluateBranch(doc.BranchProtection.Rules, branch)
		for _, detail := range evaluation.Details {
			if detail.Passed {
				continue
			}
			diffs = append(diffs, detailToDiff(evaluation.Branch, detail))
		}
	}

	logger.WithField("diffs", len(diffs)).Debug("Computed contract diff")
	return diffs, nil
}

func detailToDiff(branch string, detail reconcile.Detail) models.DiffEntry {
	entry := models.DiffEntry{
		Rule:     models.RuleBranchProtection,
		Target:   branch,
		Path:     detail.Path,
		Type:     models.DiffTypeScalar,
		Severity: detail.Severity,
	}
	expected, actual := detail.Expected, detail.Actual
	entry.Expected = &expected
	entry.Actual = &actual
	if len(detail.Missing) > 0 || len(detail.Extra) > 0 {
		entry.Type = models.DiffTypeArray
		entry.Missing = detail.Missing
		entry.Extra = detail.Extra
	}
	return entry
}
