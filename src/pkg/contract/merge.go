package contract

import "github.com/gh-nvat/repo-contractchk/src/pkg/models"

// Strategy selects how a top-level contract field combines with the same
// field of a profile.
type Strategy int

const (
	// StrategyKeepBase keeps the base document's value; the profile's is
	// discarded.
	StrategyKeepBase Strategy = iota
	// StrategyAppend concatenates sequences, base first. Duplicates are
	// preserved: a path listed in both documents is checked twice.
	StrategyAppend
	// StrategyMergeFields merges object fields one level deep: a field set
	// in the profile replaces the base's, a field set only in the base
	// passes through. Arrays inside such fields append regardless of
	// nesting depth.
	StrategyMergeFields
)

// fieldStrategies documents the per-field merge behavior. Merge below is
// the single routine consulting it.
var fieldStrategies = map[string]Strategy{
	"version":           StrategyKeepBase,
	"metadata":          StrategyKeepBase,
	"required_files":    StrategyAppend,
	"branch_protection": StrategyMergeFields,
}

// Merge combines a base contract with a profile and returns a new merged
// document. Neither input is mutated.
func Merge(base, profile *models.Contract) *models.Contract {
	if profile == nil {
		return base
	}

	merged := &models.Contract{}

	// version, metadata: keep-base by table.
	merged.Version = base.Version
	merged.Profile = base.Profile
	merged.Language = base.Language
	merged.Metadata = base.Metadata

	// required_files: append, base entries first.
	merged.RequiredFiles = make([]models.RequiredFile, 0, len(base.RequiredFiles)+len(profile.RequiredFiles))
	merged.RequiredFiles = append(merged.RequiredFiles, base.RequiredFiles...)
	merged.RequiredFiles = append(merged.RequiredFiles, profile.RequiredFiles...)

	merged.BranchProtection = mergeBranchProtection(base.BranchProtection, profile.BranchProtection)

	return merged
}

func mergeBranchProtection(base, profile *models.BranchProtection) *models.BranchProtection {
	if base == nil && profile == nil {
		return nil
	}
	if base == nil {
		out := *profile
		return &out
	}
	if profile == nil {
		out := *base
		return &out
	}

	merged := &models.BranchProtection{}
	// branches is an array: append semantics apply at any depth.
	merged.Branches = append(append([]string(nil), base.Branches...), profile.Branches...)
	merged.Rules = mergeRules(base.Rules, profile.Rules)
	return merged
}

func mergeRules(base, profile models.BranchProtectionRules) models.BranchProtectionRules {
	merged := base

	if profile.RequiredPullRequestReviews != nil {
		reviews := *profile.RequiredPullRequestReviews
		merged.RequiredPullRequestReviews = &reviews
	}
	if profile.RequiredStatusChecks != nil {
		checks := *profile.RequiredStatusChecks
		if base.RequiredStatusChecks != nil {
			// checks lists append across documents instead of replacing.
			combined := make([]models.StatusCheck, 0,
				len(base.RequiredStatusChecks.Checks)+len(profile.RequiredStatusChecks.Checks))
			combined = append(combined, base.RequiredStatusChecks.Checks...)
			combined = append(combined, profile.RequiredStatusChecks.Checks...)
			checks.Checks = combined
		}
		merged.RequiredStatusChecks = &checks
	}
	if profile.EnforceAdmins != nil {
		merged.EnforceAdmins = profile.EnforceAdmins
	}
	if profile.RequiredLinearHistory != nil {
		merged.RequiredLinearHistory = profile.RequiredLinearHistory
	}
	if profile.AllowForcePushes != nil {
		merged.AllowForcePushes = profile.AllowForcePushes
	}
	if profile.AllowDeletions != nil {
		merged.AllowDeletions = profile.AllowDeletions
	}
	if profile.RequiredConversationResolution != nil {
		merged.RequiredConversationResolution = profile.RequiredConversationResolution
	}
	if profile.RequiredSignatures != nil {
		merged.RequiredSignatures = profile.RequiredSignatures
	}
	return merged
}
