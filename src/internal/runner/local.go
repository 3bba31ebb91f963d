package runner

import (
	"context"

	"github.com/gh-nvat/repo-contractchk/src/pkg/repofs"
)

// RunnerLocal checks against the working tree only. Branch protection
// rules cannot be evaluated in this mode; reconciliation reports that as
// an execution failure rather than silently passing.
type RunnerLocal struct {
	RunnerBase
}

var _ RunnerInterface = (*RunnerLocal)(nil)

func NewRunnerLocal(ctx context.Context, options *Options) *RunnerLocal {
	runner := &RunnerLocal{RunnerBase: *NewRunnerBase(ctx, options)}
	runner.Instance = runner
	return runner
}

func (r *RunnerLocal) Initialize() error {
	if err := r.RunnerBase.Initialize(); err != nil {
		return err
	}
	r.Lister = repofs.NewLister(r.Options.Root)
	return nil
}
