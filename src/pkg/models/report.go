package models

// Rule names as they appear in results and --rules filters.
const (
	RuleRequiredFiles    = "required_files"
	RuleBranchProtection = "branch_protection"
	RulePolicy           = "policy"
)

// CheckResult is one reconciliation outcome: a single rule field compared
// against the actual repository state.
type CheckResult struct {
	Rule     string   `json:"rule"`
	Target   string   `json:"target,omitempty"`
	Path     string   `json:"path"`
	Code     string   `json:"code,omitempty"`
	Expected Value    `json:"expected"`
	Actual   Value    `json:"actual"`
	Passed   bool     `json:"passed"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message,omitempty"`
}

// Summary counts non-passing results per severity.
type Summary struct {
	Error   int `json:"error"`
	Warning int `json:"warning"`
	Info    int `json:"info"`
}

// Add folds another summary into s.
func (s *Summary) Add(other Summary) {
	s.Error += other.Error
	s.Warning += other.Warning
	s.Info += other.Info
}

// Count records one non-passing outcome of the given severity.
func (s *Summary) Count(severity Severity) {
	switch severity.Normalize() {
	case SeverityError:
		s.Error++
	case SeverityWarning:
		s.Warning++
	case SeverityInfo:
		s.Info++
	}
}

// Advisory is a non-fatal signal raised while loading or merging, such as
// a referenced profile file that could not be found.
type Advisory struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Report aggregates reconciliation results. Valid reflects error-severity
// outcomes only; strict-mode escalation of warnings is an exit-code policy
// applied by the caller, not part of the report.
type Report struct {
	Valid      bool          `json:"valid"`
	Results    []CheckResult `json:"results"`
	Summary    Summary       `json:"summary"`
	Advisories []Advisory    `json:"advisories,omitempty"`
}

// NewReport builds a report from results, computing the severity summary
// from the non-passing entries.
func NewReport(results []CheckResult, advisories []Advisory) *Report {
	report := &Report{
		Results:    results,
		Advisories: advisories,
	}
	for _, result := range results {
		if result.Passed {
			continue
		}
		report.Summary.Count(result.Severity)
	}
	report.Valid = report.Summary.Error == 0
	return report
}

// Diff entry types.
const (
	DiffTypeArray       = "array_diff"
	DiffTypeScalar      = "scalar_diff"
	DiffTypeMissingFile = "missing_file"
	DiffTypeExtraFile   = "extra_file"
)

// DiffEntry is a structural difference between expected and actual state,
// independent of the pass/fail verdict. For array_diff entries, Missing
// holds expected-minus-actual and Extra actual-minus-expected, both order
// preserving.
type DiffEntry struct {
	Rule     string   `json:"rule" yaml:"rule"`
	Target   string   `json:"target,omitempty" yaml:"target,omitempty"`
	Path     string   `json:"path" yaml:"path"`
	Type     string   `json:"type" yaml:"type"`
	Severity Severity `json:"severity,omitempty" yaml:"severity,omitempty"`
	Expected *Value   `json:"expected,omitempty" yaml:"expected,omitempty"`
	Actual   *Value   `json:"actual,omitempty" yaml:"actual,omitempty"`
	Missing  []string `json:"missing,omitempty" yaml:"missing,omitempty"`
	Extra    []string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// DiffReport is the machine-readable diff output shape.
type DiffReport struct {
	Diffs      []DiffEntry `json:"diffs" yaml:"diffs"`
	Advisories []Advisory  `json:"advisories,omitempty" yaml:"advisories,omitempty"`
}
