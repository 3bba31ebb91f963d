package runner

import "github.com/gh-nvat/repo-contractchk/src/pkg/models"

type RunnerInterface interface {
	// Initialize loads and merges the contract, validates the merged
	// document, and prepares the collaborators the run mode needs.
	Initialize() error

	// Check reconciles the contract against actual state.
	Check() (*models.Report, error)

	// Diff computes the structural differences against actual state.
	Diff() (*models.DiffReport, error)

	// Output writes data in the configured format.
	Output(data any) error
}
