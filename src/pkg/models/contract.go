package models

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Contract is the root declarative document describing desired repository
// state. A Profile is structurally the same document with a Language set;
// it is only ever used as a merge input.
type Contract struct {
	Version          string            `yaml:"version" json:"version"`
	Profile          string            `yaml:"profile,omitempty" json:"profile,omitempty"`
	Language         string            `yaml:"language,omitempty" json:"language,omitempty"`
	BranchProtection *BranchProtection `yaml:"branch_protection,omitempty" json:"branch_protection,omitempty"`
	RequiredFiles    []RequiredFile    `yaml:"required_files,omitempty" json:"required_files,omitempty"`
	Metadata         map[string]any    `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// BranchProtection declares which branches are protected and what rules
// they must carry. Branches default to ["main"] when absent.
type BranchProtection struct {
	Branches []string              `yaml:"branches,omitempty" json:"branches,omitempty"`
	Rules    BranchProtectionRules `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// TargetBranches returns the configured branch globs, falling back to the
// documented default.
func (b *BranchProtection) TargetBranches() []string {
	if len(b.Branches) == 0 {
		return []string{"main"}
	}
	return b.Branches
}

// BranchProtectionRules is the declared rule set. Fields are pointers so
// the merger can tell an absent field from an explicit false; defaults are
// applied by Resolve before reconciliation.
type BranchProtectionRules struct {
	RequiredPullRequestReviews     *RequiredPullRequestReviews `yaml:"required_pull_request_reviews,omitempty" json:"required_pull_request_reviews,omitempty"`
	RequiredStatusChecks           *RequiredStatusChecks       `yaml:"required_status_checks,omitempty" json:"required_status_checks,omitempty"`
	EnforceAdmins                  *bool                       `yaml:"enforce_admins,omitempty" json:"enforce_admins,omitempty"`
	RequiredLinearHistory          *bool                       `yaml:"required_linear_history,omitempty" json:"required_linear_history,omitempty"`
	AllowForcePushes               *bool                       `yaml:"allow_force_pushes,omitempty" json:"allow_force_pushes,omitempty"`
	AllowDeletions                 *bool                       `yaml:"allow_deletions,omitempty" json:"allow_deletions,omitempty"`
	RequiredConversationResolution *bool                       `yaml:"required_conversation_resolution,omitempty" json:"required_conversation_resolution,omitempty"`
	RequiredSignatures             *bool                       `yaml:"required_signatures,omitempty" json:"required_signatures,omitempty"`
}

// RequiredPullRequestReviews declares the pull-request review policy.
type RequiredPullRequestReviews struct {
	Enabled                      *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	RequiredApprovingReviewCount *int  `yaml:"required_approving_review_count,omitempty" json:"required_approving_review_count,omitempty"`
	DismissStaleReviews          *bool `yaml:"dismiss_stale_reviews,omitempty" json:"dismiss_stale_reviews,omitempty"`
	RequireCodeOwnerReviews      *bool `yaml:"require_code_owner_reviews,omitempty" json:"require_code_owner_reviews,omitempty"`
	RequireLastPushApproval      *bool `yaml:"require_last_push_approval,omitempty" json:"require_last_push_approval,omitempty"`
}

// RequiredStatusChecks declares the status-check policy.
type RequiredStatusChecks struct {
	Enabled *bool         `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Strict  *bool         `yaml:"strict,omitempty" json:"strict,omitempty"`
	Checks  []StatusCheck `yaml:"checks,omitempty" json:"checks,omitempty"`
}

// StatusCheck is a single required status check. In YAML it can be written
// either as a plain scalar ("ci") or as a mapping with context and app_id.
type StatusCheck struct {
	Context string `yaml:"context" json:"context"`
	AppID   *int64 `yaml:"app_id,omitempty" json:"app_id,omitempty"`
}

func (s *StatusCheck) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Context = node.Value
		return nil
	}
	type rawStatusCheck StatusCheck
	var raw rawStatusCheck
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("invalid status check entry: %w", err)
	}
	*s = StatusCheck(raw)
	return nil
}

// RequiredFile is one required_files entry. Exactly one of Path or Pattern
// drives the match; Alternatives are any-of fallbacks for Path.
type RequiredFile struct {
	Path            string   `yaml:"path,omitempty" json:"path,omitempty"`
	Pattern         string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Description     string   `yaml:"description,omitempty" json:"description,omitempty"`
	Alternatives    []string `yaml:"alternatives,omitempty" json:"alternatives,omitempty"`
	Severity        Severity `yaml:"severity,omitempty" json:"severity,omitempty"`
	CaseInsensitive bool     `yaml:"case_insensitive,omitempty" json:"case_insensitive,omitempty"`
}

// Label is the identifier used for the entry in results: the path when
// present, otherwise the pattern.
func (f *RequiredFile) Label() string {
	if f.Path != "" {
		return f.Path
	}
	return f.Pattern
}

// Severity classifies a check outcome for aggregation and exit codes.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Normalize applies the documented default (error) for an absent severity.
func (s Severity) Normalize() Severity {
	if s == "" {
		return SeverityError
	}
	return s
}

// Valid reports whether s is one of the documented severity levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// ResolvedRules is BranchProtectionRules with every documented default
// applied. Both the declared side and the actual side of a reconciliation
// are expressed in this form so comparison is field by field on concrete
// values.
type ResolvedRules struct {
	ReviewsEnabled                 bool
	RequiredApprovingReviewCount   int
	DismissStaleReviews            bool
	RequireCodeOwnerReviews        bool
	RequireLastPushApproval        bool
	ChecksEnabled                  bool
	ChecksStrict                   bool
	Checks                         []StatusCheck
	EnforceAdmins                  bool
	RequiredLinearHistory          bool
	AllowForcePushes               bool
	AllowDeletions                 bool
	RequiredConversationResolution bool
	RequiredSignatures             bool
}

// Resolve applies defaults: review and status-check policies are enabled
// with one approving review, stale-review dismissal and strict checks; the
// remaining booleans default to false.
func (r BranchProtectionRules) Resolve() ResolvedRules {
	resolved := ResolvedRules{
		ReviewsEnabled:               true,
		RequiredApprovingReviewCount: 1,
		DismissStaleReviews:          true,
		ChecksEnabled:                true,
		ChecksStrict:                 true,
	}
	if reviews := r.RequiredPullRequestReviews; reviews != nil {
		if reviews.Enabled != nil {
			resolved.ReviewsEnabled = *reviews.Enabled
		}
		if reviews.RequiredApprovingReviewCount != nil {
			resolved.RequiredApprovingReviewCount = *reviews.RequiredApprovingReviewCount
		}
		if reviews.DismissStaleReviews != nil {
			resolved.DismissStaleReviews = *reviews.DismissStaleReviews
		}
		if reviews.RequireCodeOwnerReviews != nil {
			resolved.RequireCodeOwnerReviews = *reviews.RequireCodeOwnerReviews
		}
		if reviews.RequireLastPushApproval != nil {
			resolved.RequireLastPushApproval = *reviews.RequireLastPushApproval
		}
	}
	if checks := r.RequiredStatusChecks; checks != nil {
		if checks.Enabled != nil {
			resolved.ChecksEnabled = *checks.Enabled
		}
		if checks.Strict != nil {
			resolved.ChecksStrict = *checks.Strict
		}
		resolved.Checks = append([]StatusCheck(nil), checks.Checks...)
	}
	if r.EnforceAdmins != nil {
		resolved.EnforceAdmins = *r.EnforceAdmins
	}
	if r.RequiredLinearHistory != nil {
		resolved.RequiredLinearHistory = *r.RequiredLinearHistory
	}
	if r.AllowForcePushes != nil {
		resolved.AllowForcePushes = *r.AllowForcePushes
	}
	if r.AllowDeletions != nil {
		resolved.AllowDeletions = *r.AllowDeletions
	}
	if r.RequiredConversationResolution != nil {
		resolved.RequiredConversationResolution = *r.RequiredConversationResolution
	}
	if r.RequiredSignatures != nil {
		resolved.RequiredSignatures = *r.RequiredSignatures
	}
	return resolved
}

// CheckContexts returns the check contexts in declaration order.
func (r ResolvedRules) CheckContexts() []string {
	contexts := make([]string, 0, len(r.Checks))
	for _, check := range r.Checks {
		contexts = append(contexts, check.Context)
	}
	return contexts
}
