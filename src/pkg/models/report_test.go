package models

import (
	"encoding/json"
	"testing"
)

func TestNewReportSummary(t *testing.T) {
	results := []CheckResult{
		{Rule: RuleRequiredFiles, Passed: true, Severity: SeverityError},
		{Rule: RuleRequiredFiles, Passed: false, Severity: SeverityError},
		{Rule: RuleBranchProtection, Passed: false, Severity: SeverityWarning},
		{Rule: RuleBranchProtection, Passed: false, Severity: SeverityWarning},
		{Rule: RuleRequiredFiles, Passed: false, Severity: SeverityInfo},
	}

	report := NewReport(results, nil)

	if report.Summary.Error != 1 || report.Summary.Warning != 2 || report.Summary.Info != 1 {
		t.Errorf("Summary = %+v, want 1 error, 2 warnings, 1 info", report.Summary)
	}
	if report.Valid {
		t.Errorf("Valid = true, want false with an error outcome")
	}
}

func TestNewReportValidWithWarningsOnly(t *testing.T) {
	results := []CheckResult{
		{Rule: RuleBranchProtection, Passed: false, Severity: SeverityWarning},
	}
	report := NewReport(results, nil)
	if !report.Valid {
		t.Errorf("Valid = false, want true: warnings alone do not invalidate")
	}
}

func TestNewReportUnsetSeverityCountsAsError(t *testing.T) {
	report := NewReport([]CheckResult{{Rule: RuleRequiredFiles, Passed: false}}, nil)
	if report.Summary.Error != 1 {
		t.Errorf("Summary.Error = %d, want unset severity to default to error", report.Summary.Error)
	}
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{name: "bools equal", a: BoolValue(true), b: BoolValue(true), want: true},
		{name: "bools differ", a: BoolValue(true), b: BoolValue(false), want: false},
		{name: "kinds differ", a: BoolValue(true), b: IntValue(1), want: false},
		{name: "sequences equal in order", a: SequenceValue([]string{"a", "b"}), b: SequenceValue([]string{"a", "b"}), want: true},
		{name: "sequences differ by order", a: SequenceValue([]string{"a", "b"}), b: SequenceValue([]string{"b", "a"}), want: false},
		{name: "absent equals absent", a: AbsentValue(), b: AbsentValue(), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueMarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{name: "absent", value: AbsentValue(), want: "null"},
		{name: "bool", value: BoolValue(true), want: "true"},
		{name: "int", value: IntValue(2), want: "2"},
		{name: "string", value: StringValue("main"), want: `"main"`},
		{name: "sequence", value: SequenceValue([]string{"ci", "lint"}), want: `["ci","lint"]`},
		{name: "nil sequence", value: SequenceValue(nil), want: "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}
