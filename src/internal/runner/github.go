package runner

import (
	"context"

	"github.com/gh-nvat/repo-contractchk/src/pkg/github"
	"github.com/gh-nvat/repo-contractchk/src/pkg/models"
	"github.com/gh-nvat/repo-contractchk/src/pkg/repofs"
)

// RunnerGitHub checks the working tree and the remote repository's
// branch protection through the GitHub API.
type RunnerGitHub struct {
	RunnerBase

	Repository string
}

var _ RunnerInterface = (*RunnerGitHub)(nil)

func NewRunnerGitHub(ctx context.Context, options *Options) *RunnerGitHub {
	runner := &RunnerGitHub{RunnerBase: *NewRunnerBase(ctx, options)}
	runner.Instance = runner
	return runner
}

func (r *RunnerGitHub) Initialize() error {
	if err := r.RunnerBase.Initialize(); err != nil {
		return err
	}
	r.Lister = repofs.NewLister(r.Options.Root)

	token := github.ResolveToken(r.Options.GhToken)
	if token == "" {
		// No credential: keep the remote collaborator absent. Rules that
		// need it then surface an execution failure instead of reading
		// unauthenticated 404s from the protection endpoint as "not
		// protected".
		logger.Warn("No GitHub token configured, remote repository unavailable")
		return nil
	}

	repository, err := github.ResolveRepository(r.Context, r.Options.GhRepo)
	if err != nil {
		return models.NewExecutionError(models.RuleBranchProtection, "failed to resolve repository", err)
	}
	r.Repository = repository

	client, err := github.NewClient(repository, token)
	if err != nil {
		return models.NewExecutionError(models.RuleBranchProtection, "failed to create GitHub client", err)
	}
	r.Remote = client

	logger.WithField("repository", repository).Debug("Resolved remote repository")
	return nil
}
