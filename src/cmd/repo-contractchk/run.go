package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gh-nvat/repo-contractchk/src/internal/runner"
	"github.com/gh-nvat/repo-contractchk/src/pkg/config"
	"github.com/gh-nvat/repo-contractchk/src/pkg/contract"
	"github.com/gh-nvat/repo-contractchk/src/pkg/models"
	"github.com/gh-nvat/repo-contractchk/src/pkg/schema"
	"github.com/gh-nvat/repo-contractchk/src/pkg/trace"
)

var logger *log.Entry = log.New().WithFields(log.Fields{
	"package": "run",
})

// Exit classes: 0 compliant, 1 contract violated, 2 could not check.
const (
	ExitOK             = 0
	ExitViolation      = 1
	ExitExecutionError = 2
)

// exitError carries an explicit exit class through cobra.
type exitError struct {
	code    int
	message string
}

func (e *exitError) Error() string { return e.message }

// prepareOptions layers the tool configuration file under the flags and
// applies defaults shared by every subcommand.
func prepareOptions(cmd *cobra.Command, opts *runner.Options) error {
	if opts.Debug {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(opts.Root)
	if err != nil {
		return &exitError{code: ExitExecutionError, message: err.Error()}
	}
	opts.ApplyConfig(cfg)
	opts.ResolveStrict()

	if opts.ConfigPath == "" {
		opts.ConfigPath = filepath.Join(opts.Root, "contract.yml")
	}
	opts.WithProfile = true
	return nil
}

// createRunner picks the run mode implementation.
func createRunner(ctx context.Context, opts *runner.Options) (runner.RunnerInterface, error) {
	logger.WithField("runMode", opts.RunMode).Debug("Creating runner..")

	switch opts.RunMode {
	case runner.RunModeGitHub:
		return runner.NewRunnerGitHub(ctx, opts), nil
	case runner.RunModeLocal:
		return runner.NewRunnerLocal(ctx, opts), nil
	default:
		return nil, fmt.Errorf("invalid run mode: %s", opts.RunMode)
	}
}

func initialize(ctx context.Context, opts *runner.Options) (runner.RunnerInterface, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	appRunner, err := createRunner(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := appRunner.Initialize(); err != nil {
		return nil, err
	}
	return appRunner, nil
}

func runCheck(ctx context.Context, opts *runner.Options) error {
	shutdown, err := trace.InitTracer("repo-contractchk", opts.EnableExportTrace, opts.OutputDir)
	if err != nil {
		return executionFailure(fmt.Errorf("failed to initialize tracer: %w", err))
	}
	defer shutdown()

	appRunner, err := initialize(ctx, opts)
	if err != nil {
		return executionFailure(err)
	}

	report, err := appRunner.Check()
	if err != nil {
		return executionFailure(err)
	}
	if err := appRunner.Output(report); err != nil {
		return executionFailure(err)
	}

	if !report.Valid {
		return &exitError{code: ExitViolation}
	}
	if opts.Strict && report.Summary.Warning > 0 {
		return &exitError{code: ExitViolation}
	}
	return nil
}

func runDiff(ctx context.Context, opts *runner.Options) error {
	shutdown, err := trace.InitTracer("repo-contractchk", opts.EnableExportTrace, opts.OutputDir)
	if err != nil {
		return executionFailure(fmt.Errorf("failed to initialize tracer: %w", err))
	}
	defer shutdown()

	appRunner, err := initialize(ctx, opts)
	if err != nil {
		return executionFailure(err)
	}

	diff, err := appRunner.Diff()
	if err != nil {
		return executionFailure(err)
	}
	if err := appRunner.Output(diff); err != nil {
		return executionFailure(err)
	}

	if len(diff.Diffs) > 0 {
		return &exitError{code: ExitViolation}
	}
	return nil
}

func runValidate(opts *runner.Options, path string, withProfile bool) error {
	if path == "" {
		path = opts.ConfigPath
	}

	report, err := schema.ValidateFile(path)
	if err != nil {
		return executionFailure(err)
	}

	reports := []*schema.Report{report}
	if withProfile {
		profileReport, err := validateProfile(path)
		if err != nil {
			return executionFailure(err)
		}
		if profileReport != nil {
			reports = append(reports, profileReport)
		}
	}

	appRunner := runner.NewRunnerLocal(context.Background(), opts)
	valid := true
	for _, item := range reports {
		if err := appRunner.Output(item); err != nil {
			return executionFailure(err)
		}
		if !item.Valid {
			valid = false
		}
	}
	if !valid {
		return &exitError{code: ExitViolation}
	}
	return nil
}

// validateProfile resolves and validates the profile declared by the
// base document. A declared but missing profile is fatal on this path.
func validateProfile(basePath string) (*schema.Report, error) {
	loaded, err := contract.Load(contract.LoadOptions{ConfigPath: basePath})
	if err != nil {
		return nil, err
	}
	if loaded.Contract.Profile == "" {
		return nil, nil
	}
	profilePath := contract.ProfilePathFor(basePath, loaded.Contract.Profile)
	return schema.ValidateFile(profilePath)
}

func runInit(opts *runner.Options, profile string, fromRepo, force bool) error {
	outcome, err := contract.Init(opts.Root, contract.InitOptions{
		OutputPath: opts.ConfigPath,
		Profile:    profile,
		FromRepo:   fromRepo,
		Force:      force,
	})
	if err != nil {
		var exists *contract.AlreadyExistsError
		if errors.As(err, &exists) {
			return &exitError{code: ExitExecutionError, message: err.Error() + " (use --force to overwrite)"}
		}
		return executionFailure(err)
	}
	for _, created := range outcome.Created {
		fmt.Println("created", created)
	}
	return nil
}

func runSchema() error {
	fmt.Println(schema.JSON())
	return nil
}

// executionFailure maps any error that prevented checking to exit class
// 2, preserving the message.
func executionFailure(err error) error {
	var execErr *models.ExecutionError
	if errors.As(err, &execErr) {
		return &exitError{code: ExitExecutionError, message: execErr.Error()}
	}
	return &exitError{code: ExitExecutionError, message: err.Error()}
}
