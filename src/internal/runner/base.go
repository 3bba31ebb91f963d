package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/gh-nvat/repo-contractchk/src/pkg/contract"
	"github.com/gh-nvat/repo-contractchk/src/pkg/diffengine"
	"github.com/gh-nvat/repo-contractchk/src/pkg/models"
	"github.com/gh-nvat/repo-contractchk/src/pkg/policy"
	"github.com/gh-nvat/repo-contractchk/src/pkg/reconcile"
	"github.com/gh-nvat/repo-contractchk/src/pkg/render"
	"github.com/gh-nvat/repo-contractchk/src/pkg/schema"
	"github.com/gh-nvat/repo-contractchk/src/pkg/state"
	"github.com/gh-nvat/repo-contractchk/src/pkg/trace"
)

var logger *log.Entry = log.New().WithFields(log.Fields{
	"package": "runner",
})

// RunnerBase carries the collaborators and merged contract shared by
// every run mode. The run modes differ only in which collaborators they
// wire: local has no remote repository.
type RunnerBase struct {
	Context context.Context
	Options *Options

	RunMode string

	Loaded    *contract.Loaded
	Evaluator *policy.Evaluator

	Lister state.FileLister
	Remote state.RemoteRepository

	Instance RunnerInterface
}

var _ RunnerInterface = (*RunnerBase)(nil)

func NewRunnerBase(ctx context.Context, options *Options) *RunnerBase {
	return &RunnerBase{
		Context: ctx,
		Options: options,
		RunMode: options.RunMode,
	}
}

// Initialize loads and merges the contract and validates the merged
// document. A schema-invalid merged document aborts the run; it never
// reaches reconciliation.
func (r *RunnerBase) Initialize() error {
	logger.Debug("Initializing runner: loading contract...")

	loaded, err := contract.Load(contract.LoadOptions{
		ConfigPath:     r.Options.ConfigPath,
		IncludeProfile: r.Options.WithProfile,
		RequireProfile: r.Options.RequireProfile,
	})
	if err != nil {
		return models.NewExecutionError("load", "failed to load contract", err)
	}
	r.Loaded = loaded

	if schemaErrors := schema.ValidateDocument(loaded.Contract); len(schemaErrors) > 0 {
		messages := make([]string, 0, len(schemaErrors))
		for _, schemaErr := range schemaErrors {
			if schemaErr.Path != "" {
				messages = append(messages, fmt.Sprintf("%s: %s", schemaErr.Path, schemaErr.Message))
			} else {
				messages = append(messages, schemaErr.Message)
			}
		}
		return models.NewExecutionError("load", "merged contract is not schema-valid",
			fmt.Errorf("%s", strings.Join(messages, "; ")))
	}

	evaluator, err := policy.NewEvaluator(r.Options.PoliciesPath)
	if err != nil {
		return models.NewExecutionError(models.RulePolicy, "failed to load policies", err)
	}
	r.Evaluator = evaluator

	logger.Debug("Initializing runner: done.")
	return nil
}

func (r *RunnerBase) reconcileOptions() reconcile.Options {
	return reconcile.Options{
		Rules:        r.Options.Rules,
		RemoteForced: r.Options.RemoteForced,
		Concurrency:  r.Options.Concurrency,
	}
}

// Check reconciles the merged contract against actual state and folds in
// the custom policy results.
func (r *RunnerBase) Check() (*models.Report, error) {
	spanCtx, span := trace.StartSpan(r.Context, "Check")
	defer span.End()

	logger.Debug("Check: starting...")

	ctx, cancel := context.WithTimeout(spanCtx, r.Options.EffectiveTimeout())
	defer cancel()

	opts := r.reconcileOptions()
	fetchCtx, fetchSpan := trace.StartSpan(ctx, "FetchState")
	snapshot, err := reconcile.FetchState(fetchCtx, r.Loaded.Contract, r.Lister, r.Remote, opts)
	fetchSpan.End()
	if err != nil {
		return nil, err
	}

	results, err := reconcile.ResultsFromSnapshot(r.Loaded.Contract, snapshot)
	if err != nil {
		return nil, err
	}

	if r.Evaluator != nil && opts.RuleEnabled(models.RulePolicy) {
		evalCtx, evalSpan := trace.StartSpan(ctx, "EvaluatePolicies")
		policyResults, err := r.Evaluator.Evaluate(evalCtx, policyInput(r.Loaded.Contract, snapshot))
		evalSpan.End()
		if err != nil {
			return nil, err
		}
		results = append(results, policyResults...)
	}

	report := models.NewReport(results, r.Loaded.Advisories)
	logger.WithField("valid", report.Valid).Debug("Check: done.")
	return report, nil
}

// Diff computes the structural differences against actual state.
func (r *RunnerBase) Diff() (*models.DiffReport, error) {
	spanCtx, span := trace.StartSpan(r.Context, "Diff")
	defer span.End()

	logger.Debug("Diff: starting...")

	ctx, cancel := context.WithTimeout(spanCtx, r.Options.EffectiveTimeout())
	defer cancel()

	diffs, err := diffengine.Diff(ctx, r.Loaded.Contract, r.Lister, r.Remote, r.reconcileOptions())
	if err != nil {
		return nil, err
	}
	return &models.DiffReport{Diffs: diffs, Advisories: r.Loaded.Advisories}, nil
}

// Output writes data in the configured format. Human rendering is only
// defined for the report shapes; other data falls back to JSON.
func (r *RunnerBase) Output(data any) error {
	_, span := trace.StartSpan(r.Context, "Output")
	defer span.End()

	if r.Options.Quiet {
		return nil
	}
	writer := r.Options.Writer
	if writer == nil {
		writer = os.Stdout
	}

	switch r.Options.EffectiveFormat() {
	case FormatJSON:
		encoded, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Fprintln(writer, string(encoded))
		return nil
	case FormatYAML:
		encoded, err := yaml.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Fprint(writer, string(encoded))
		return nil
	}

	switch typed := data.(type) {
	case *models.Report:
		render.Report(writer, typed)
	case *models.DiffReport:
		render.Diff(writer, typed)
	case *schema.Report:
		render.Schema(writer, typed)
	default:
		encoded, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Fprintln(writer, string(encoded))
	}
	return nil
}

// policyInput projects the fetched snapshot into the policy document.
func policyInput(doc *models.Contract, snapshot *state.Snapshot) policy.Input {
	var files []string
	if snapshot.Files != nil {
		files = snapshot.Files.Paths
	}
	var branches []policy.BranchInput
	for _, branch := range snapshot.Branches {
		input := policy.BranchInput{Name: branch.Name}
		if branch.Protection != nil {
			input.Protected = true
			input.ReviewsEnabled = branch.Protection.ReviewsEnabled
			input.RequiredApprovingReviewCount = branch.Protection.RequiredApprovingReviewCount
			input.ChecksEnabled = branch.Protection.ChecksEnabled
			input.Checks = branch.Protection.CheckContexts()
			input.EnforceAdmins = branch.Protection.EnforceAdmins
		}
		branches = append(branches, input)
	}
	return policy.InputFromState(doc, files, branches)
}
