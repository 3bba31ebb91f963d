package models

import "fmt"

// Stable error codes referenced by results, advisories, and schema errors.
const (
	CodeProtectionMissing  = "E010" // branch protection absent while required
	CodeReviewCountTooLow  = "E011" // approving review count below the declared minimum
	CodeMissingStatusCheck = "E012" // declared status check absent on the branch
	CodeSchemaViolation    = "E020" // document does not conform to the schema
	CodeProfileNotFound    = "E021" // referenced profile file could not be located
	CodePolicyFailed       = "E030" // custom policy denied the contract
)

// ExecutionError marks a failure to check the contract, as opposed to a
// contract violation: a missing collaborator, a decode failure, a timed
// out remote call. Callers map it to exit class 2.
type ExecutionError struct {
	Rule   string
	Reason string
	Err    error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Rule, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Rule, e.Reason)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// NewExecutionError wraps err as an execution failure for the given rule.
func NewExecutionError(rule, reason string, err error) *ExecutionError {
	return &ExecutionError{Rule: rule, Reason: reason, Err: err}
}

// UnsupportedOperationError signals a rule forced into a mode it does
// not support, such as remote-backed required_files checks.
type UnsupportedOperationError struct {
	Rule   string
	Reason string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s: unsupported operation: %s", e.Rule, e.Reason)
}
